package negotiation

import (
	"context"
	"fmt"
	"time"

	"github.com/a2cal/calendar-agent/runtime/a2a"
	"github.com/a2cal/calendar-agent/runtime/telemetry"
)

// Default deadlines from SPEC_FULL.md §4.4/§5.
const (
	defaultMaxTurns          = 5
	defaultOverallDeadline   = 120 * time.Second
	defaultInitDeadline      = 30 * time.Second
	defaultUtteranceTimeout  = 10 * time.Second
	defaultSendTimeout       = 10 * time.Second
	defaultProgressDeadline  = 500 * time.Millisecond
	handoverProgressDeadline = time.Second
)

// Orchestrator runs the bounded, supervised turn loop described in
// SPEC_FULL.md §4.4, handing control to an Autonomous Continuation loop on a
// handover signal. Grounded on booking_automation.py's BookingAutomation
// class: one Orchestrator per negotiation, constructed fresh, never shared
// (SPEC_FULL.md §3 "No two orchestrators share state").
type Orchestrator struct {
	Transport a2a.Sender
	Agent     LocalAgent
	Log       telemetry.Logger

	MaxTurns         int
	OverallDeadline  time.Duration
	InitDeadline     time.Duration
	UtteranceTimeout time.Duration
	SendTimeout      time.Duration
	ProgressDeadline time.Duration
}

// RunOptions parameterizes a single negotiation.
type RunOptions struct {
	TargetEndpoint string
	TargetID       string
	Intent         Intent
	Progress       ProgressFunc
}

// NewOrchestrator constructs an Orchestrator with SPEC_FULL.md §4.4/§5
// defaults; callers adjust the exported fields afterwards to override them.
func NewOrchestrator(transport a2a.Sender, agent LocalAgent, log telemetry.Logger) *Orchestrator {
	if log == nil {
		log = telemetry.NewNoopLogger()
	}
	return &Orchestrator{
		Transport:        transport,
		Agent:            agent,
		Log:              log,
		MaxTurns:         defaultMaxTurns,
		OverallDeadline:  defaultOverallDeadline,
		InitDeadline:     defaultInitDeadline,
		UtteranceTimeout: defaultUtteranceTimeout,
		SendTimeout:      defaultSendTimeout,
		ProgressDeadline: defaultProgressDeadline,
	}
}

// Run executes the supervised turn loop (SPEC_FULL.md §4.4). It never
// returns a non-nil error for an ordinary negotiation outcome — success or
// failure is reported through Result.Success; error is reserved for
// programmer errors that must surface (SPEC_FULL.md §7).
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.OverallDeadline)
	defer cancel()

	maxTurns := o.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	safeProgress(ctx, opts.Progress, 0, StatusStarting, "Initiating booking negotiation...", o.ProgressDeadline)

	if err := o.initAgent(ctx, opts.Progress); err != nil {
		return incompleteResult(nil, "%s", err.Error()), nil
	}

	state := ConversationState{MaxTurns: maxTurns}

	for turn := 1; turn <= maxTurns; turn++ {
		state.CurrentTurn = turn

		safeProgress(ctx, opts.Progress, turn, StatusThinking,
			fmt.Sprintf("Turn %d/%d: formulating message...", turn, maxTurns), o.ProgressDeadline)

		utterance, err := o.nextUtterance(ctx, turn, opts, state.ConversationHistory)
		if err != nil {
			safeProgress(ctx, opts.Progress, turn, StatusTimeout, err.Error(), o.ProgressDeadline)
			return incompleteResult(state.ConversationHistory, "turn %d: %s", turn, err.Error()), nil
		}

		if signal, remainder, handedOver := DetectHandover(utterance); handedOver {
			o.Log.Info(ctx, "negotiation: handover requested", "turn", turn, "reason", signal.Reason)
			safeProgress(ctx, opts.Progress, turn, StatusHandover, "agent taking over autonomously", handoverProgressDeadline)

			remaining := maxTurns - turn
			ac := NewAutonomousContinuation(o.Transport, o.Agent, o.Log)
			acResult, _ := ac.Run(ctx, AutonomousOptions{
				TargetEndpoint:  opts.TargetEndpoint,
				TargetID:        opts.TargetID,
				Intent:          opts.Intent,
				History:         state.ConversationHistory,
				ContextID:       state.TargetContextID,
				RemainingTurns:  remaining,
				PendingMessage:  remainder,
				StartTurnNumber: len(state.ConversationHistory) + 1,
			})
			acResult.ConversationHistory = append(append([]Turn{}, state.ConversationHistory...), acResult.ConversationHistory...)
			acResult.HandoverOccurred = true
			return acResult, nil
		}

		message := ExtractMessage(utterance)

		safeProgress(ctx, opts.Progress, turn, StatusSending, "sending message to peer...", o.ProgressDeadline)

		sendCtx, sendCancel := context.WithTimeout(ctx, o.SendTimeout)
		responseText, newContextID, err := o.Transport.Send(sendCtx, opts.TargetEndpoint, message, state.TargetContextID)
		sendCancel()
		if err != nil {
			safeProgress(ctx, opts.Progress, turn, StatusError, err.Error(), o.ProgressDeadline)
			return incompleteResult(state.ConversationHistory, "turn %d: timed out or failed sending to peer: %s", turn, err.Error()), nil
		}
		state.TargetContextID = newContextID

		turnRecord := Turn{
			Number:           len(state.ConversationHistory) + 1,
			MessageSent:      message,
			ResponseReceived: responseText,
			Timestamp:        time.Now().UTC(),
			Metadata:         map[string]any{"autonomous": false},
		}
		state.ConversationHistory = append(state.ConversationHistory, turnRecord)

		safeProgress(ctx, opts.Progress, turn, StatusReceived, responseText, o.ProgressDeadline)

		classification := Classify(responseText, false)
		switch {
		case classification.Complete:
			safeProgress(ctx, opts.Progress, turn, StatusComplete, classification.Message, o.ProgressDeadline)
			return Result{
				Success:              true,
				Message:              classification.Message,
				ConversationHistory:  state.ConversationHistory,
				BookingDetails:       map[string]any{"confirmation_message": responseText},
			}, nil
		case classification.IsError:
			safeProgress(ctx, opts.Progress, turn, StatusError, classification.Message, o.ProgressDeadline)
			return incompleteResult(state.ConversationHistory, "%s", classification.Message), nil
		case classification.NeedsInfo:
			safeProgress(ctx, opts.Progress, turn, StatusInfoNeeded, classification.Message, o.ProgressDeadline)
		default:
			safeProgress(ctx, opts.Progress, turn, StatusProcessing, classification.Message, o.ProgressDeadline)
		}
	}

	return incompleteResult(state.ConversationHistory, "incomplete after %d turns", maxTurns), nil
}

func (o *Orchestrator) initAgent(ctx context.Context, progress ProgressFunc) error {
	safeProgress(ctx, progress, 0, StatusInitializing, "initializing booking agent...", o.ProgressDeadline)

	initCtx, cancel := context.WithTimeout(ctx, o.InitDeadline)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- o.Agent.Init(initCtx) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to initialize booking agent: %w", err)
		}
		return nil
	case <-initCtx.Done():
		return fmt.Errorf("booking agent initialization timed out after %s", o.InitDeadline)
	}
}

func (o *Orchestrator) nextUtterance(ctx context.Context, turn int, opts RunOptions, history []Turn) (string, error) {
	prompt := buildTurnPrompt(turn, opts.TargetID, opts.Intent, history)

	uttCtx, cancel := context.WithTimeout(ctx, o.UtteranceTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := o.Agent.NextUtterance(uttCtx, prompt)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("booking agent error on turn %d: %w", turn, r.err)
		}
		if r.text == "" {
			return "", fmt.Errorf("booking agent did not provide a response on turn %d", turn)
		}
		return r.text, nil
	case <-uttCtx.Done():
		return "", fmt.Errorf("booking agent timed out on turn %d (%s)", turn, o.UtteranceTimeout)
	}
}
