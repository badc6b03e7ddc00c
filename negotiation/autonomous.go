package negotiation

import (
	"context"
	"fmt"
	"time"

	"github.com/a2cal/calendar-agent/runtime/a2a"
	"github.com/a2cal/calendar-agent/runtime/telemetry"
)

const (
	defaultAutonomousUtteranceTimeout = 15 * time.Second
	defaultAutonomousSendTimeout      = 15 * time.Second
	autonomousPerTurnBudget           = 45 * time.Second
	autonomousMaxBudget               = 20 * time.Second
	timeoutMonitorSlack               = 500 * time.Millisecond
)

// AutonomousContinuation is the driven loop a handover hands control to
// (SPEC_FULL.md §4.5), using the same Transport and classifier as the
// Orchestrator but with no supervision and no further handover. Grounded on
// calendar_booking_agent.py's continue_autonomously.
type AutonomousContinuation struct {
	Transport a2a.Sender
	Agent     LocalAgent
	Log       telemetry.Logger

	UtteranceTimeout time.Duration
	SendTimeout      time.Duration
}

// AutonomousOptions parameterizes one autonomous continuation.
type AutonomousOptions struct {
	TargetEndpoint string
	TargetID       string
	Intent         Intent
	History        []Turn
	ContextID      string
	RemainingTurns int
	// PendingMessage, if non-empty, is sent verbatim as the first
	// autonomous turn's message instead of asking the agent to formulate
	// one — the text recovered from stripping the handover clause out of
	// the triggering supervised turn's utterance (SPEC_FULL.md §8 scenario
	// 2: the handover turn's leftover text becomes the first autonomous
	// send).
	PendingMessage  string
	StartTurnNumber int
}

// NewAutonomousContinuation constructs an AutonomousContinuation with
// SPEC_FULL.md §4.5 default deadlines.
func NewAutonomousContinuation(transport a2a.Sender, agent LocalAgent, log telemetry.Logger) *AutonomousContinuation {
	if log == nil {
		log = telemetry.NewNoopLogger()
	}
	return &AutonomousContinuation{
		Transport:        transport,
		Agent:            agent,
		Log:              log,
		UtteranceTimeout: defaultAutonomousUtteranceTimeout,
		SendTimeout:      defaultAutonomousSendTimeout,
	}
}

// Run executes the autonomous loop (SPEC_FULL.md §4.5). The overall deadline
// is min(45s * remaining_turns, 20s); a parallel timeout monitor wakes
// slightly after that deadline and logs a diagnostic if the task is still
// running, a safety net against missed cancellation (SPEC_FULL.md §5).
func (a *AutonomousContinuation) Run(ctx context.Context, opts AutonomousOptions) (Result, error) {
	remaining := opts.RemainingTurns
	if remaining <= 0 {
		return Result{Success: false, Message: "no autonomous turns remaining"}, nil
	}

	budget := time.Duration(float64(autonomousPerTurnBudget) * float64(remaining))
	if budget > autonomousMaxBudget {
		budget = autonomousMaxBudget
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()
	monitorDone := make(chan struct{})

	type runOutcome struct {
		result Result
	}
	outcomeCh := make(chan runOutcome, 1)
	go func() {
		defer close(monitorDone)
		outcomeCh <- runOutcome{a.runLoop(ctx, opts, remaining)}
	}()
	go a.timeoutMonitor(ctx, start, budget, monitorDone)

	select {
	case out := <-outcomeCh:
		return out.result, nil
	case <-ctx.Done():
		a.Log.Error(ctx, "negotiation: autonomous mode timed out", "elapsed", time.Since(start).String(), "budget", budget.String())
		return Result{
			Success: false,
			Message: fmt.Sprintf("autonomous mode timed out after %s", budget),
			ConversationHistory: opts.History,
		}, nil
	}
}

// timeoutMonitor is the Go analogue of the source's timeout_monitor task:
// it wakes budget+500ms after start and, if the main loop goroutine hasn't
// signaled completion via done, logs a diagnostic. Cancellation of a goroutine
// blocked on I/O is best-effort (SPEC_FULL.md §5); this is a visibility net,
// not an enforcement mechanism.
func (a *AutonomousContinuation) timeoutMonitor(ctx context.Context, start time.Time, budget time.Duration, done <-chan struct{}) {
	timer := time.NewTimer(budget + timeoutMonitorSlack)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		if ctx.Err() == nil {
			return
		}
		a.Log.Warn(ctx, "negotiation: autonomous timeout monitor observed overrun",
			"elapsed", time.Since(start).String(), "budget", budget.String())
	}
}

func (a *AutonomousContinuation) runLoop(ctx context.Context, opts AutonomousOptions, remaining int) Result {
	history := append([]Turn{}, opts.History...)
	contextID := opts.ContextID
	pending := opts.PendingMessage

	for turn := 1; turn <= remaining; turn++ {
		var message string
		if turn == 1 && pending != "" {
			message = pending
		} else {
			prompt := buildAutonomousPrompt(turn, remaining, opts.TargetID, opts.Intent, history)
			utterance, err := a.nextUtterance(ctx, prompt)
			if err != nil {
				return incompleteResult(history, "autonomous turn %d: %s", turn, err.Error())
			}
			message = ExtractMessage(utterance)
		}

		sendCtx, cancel := context.WithTimeout(ctx, a.SendTimeout)
		responseText, newContextID, err := a.Transport.Send(sendCtx, opts.TargetEndpoint, message, contextID)
		cancel()
		if err != nil {
			return incompleteResult(history, "autonomous turn %d: communication error: %s", turn, err.Error())
		}
		contextID = newContextID

		turnNumber := opts.StartTurnNumber + turn - 1
		history = append(history, Turn{
			Number:           turnNumber,
			MessageSent:      message,
			ResponseReceived: responseText,
			Timestamp:        time.Now().UTC(),
			Metadata:         map[string]any{"autonomous": true},
		})

		classification := Classify(responseText, true)
		switch {
		case classification.Complete:
			return Result{
				Success:             true,
				Message:             classification.Message,
				ConversationHistory: history,
				BookingDetails:      map[string]any{"confirmation_message": responseText},
			}
		case classification.IsError:
			return Result{Success: false, Message: classification.Message, ConversationHistory: history}
		}
		// needs-more-info / still-processing: continue to next turn.
	}

	return incompleteResult(history, "incomplete after %d autonomous turns", remaining)
}

func (a *AutonomousContinuation) nextUtterance(ctx context.Context, prompt string) (string, error) {
	uttCtx, cancel := context.WithTimeout(ctx, a.UtteranceTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := a.Agent.NextUtterance(uttCtx, prompt)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-uttCtx.Done():
		return "", fmt.Errorf("agent timed out after %s", a.UtteranceTimeout)
	}
}
