// Package negotiation implements the outbound booking flow (SPEC_FULL.md
// §4.4-§4.5): the supervised Orchestrator turn loop, the Autonomous
// Continuation it can hand control to, response classification, and
// handover detection. Grounded throughout on
// original_source/a2cal/src/a2a_client/booking_automation.py and
// original_source/a2cal/src/agents/calendar_booking_agent.py's
// continue_autonomously.
package negotiation

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Turn is one exchange: a local-agent utterance formulated, a message sent
// to the peer, and the peer's response received and classified
// (SPEC_FULL.md §3).
type Turn struct {
	Number           int
	MessageSent      string
	ResponseReceived string
	Timestamp        time.Time
	Metadata         map[string]any
}

// ConversationState is the volatile per-negotiation state described in
// SPEC_FULL.md §3: owned by exactly one Orchestrator/Autonomous Continuation
// call, discarded when that call returns.
type ConversationState struct {
	CurrentTurn         int
	MaxTurns            int
	BookingComplete     bool
	TargetContextID     string
	ConversationHistory []Turn
	HandoverOccurred    bool
}

// Intent is a Preferences-derived description of the meeting the local
// booking agent is trying to arrange (SPEC_FULL.md §4.4 "Inputs"). Field
// names and the ToNaturalLanguage rendering are grounded on the original
// source's MeetingPreferences dataclass.
type Intent struct {
	Date           string // e.g. "Thursday", "2025-11-07"
	Time           string // e.g. "14:00", "2pm"
	Duration       string // canonical duration string, e.g. "30m"
	Title          string
	Description    string
	PartnerAgentID string
}

// ToNaturalLanguage renders the intent as the sentence fragments fed into the
// local agent's prompt, in original-source field order.
func (i Intent) ToNaturalLanguage() string {
	var parts []string
	if i.Title != "" {
		parts = append(parts, "Meeting title: "+i.Title)
	}
	if i.Description != "" {
		parts = append(parts, "Description: "+i.Description)
	}
	if i.Date != "" {
		parts = append(parts, "Date: "+i.Date)
	}
	if i.Time != "" {
		parts = append(parts, "Time: "+i.Time)
	}
	if i.Duration != "" {
		parts = append(parts, "Duration: "+i.Duration)
	}
	if i.PartnerAgentID != "" {
		parts = append(parts, "Partner agent: "+i.PartnerAgentID)
	}
	if len(parts) == 0 {
		return "Schedule a meeting."
	}
	return strings.Join(parts, ". ") + "."
}

// Result is the outcome of a top-level negotiation call (SPEC_FULL.md §4.4
// "Output"). Every outcome carries success, a one-line message, the full
// history, and optional booking details — never a partial success
// (SPEC_FULL.md §7).
type Result struct {
	Success             bool
	Message             string
	ConversationHistory []Turn
	BookingDetails      map[string]any
	HandoverOccurred    bool
}

func incompleteResult(history []Turn, format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...), ConversationHistory: history}
}

// summaryTruncateLen matches get_conversation_summary's per-field truncation
// in the original source.
const summaryTruncateLen = 100

// Summary renders a block-per-turn human-readable transcript of the
// negotiation, grounded on booking_automation.py's get_conversation_summary.
// Each message is truncated to summaryTruncateLen bytes with "..." appended
// regardless of whether truncation actually occurred, matching the original.
func (r Result) Summary() string {
	if len(r.ConversationHistory) == 0 {
		return "No conversation history."
	}

	var b strings.Builder
	for _, t := range r.ConversationHistory {
		fmt.Fprintf(&b, "[%s] Turn %d:\n", t.Timestamp.Format("15:04:05"), t.Number)
		fmt.Fprintf(&b, "  Sent: %s...\n", truncate(t.MessageSent, summaryTruncateLen))
		fmt.Fprintf(&b, "  Received: %s...\n", truncate(t.ResponseReceived, summaryTruncateLen))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Progress status tags (SPEC_FULL.md §4.4 "Progress callback discipline").
const (
	StatusStarting     = "starting"
	StatusInitializing = "initializing"
	StatusThinking     = "thinking"
	StatusSending      = "sending"
	StatusReceived     = "received"
	StatusInfoNeeded   = "info_needed"
	StatusProcessing   = "processing"
	StatusComplete     = "complete"
	StatusTimeout      = "timeout"
	StatusError        = "error"
	StatusHandover     = "handover"
)

// ProgressFunc reports turn progress to an interested caller. It is
// advisory, never load-bearing (SPEC_FULL.md §4.4): the Orchestrator and
// Autonomous Continuation bound every invocation with a short deadline and
// continue regardless of its outcome.
type ProgressFunc func(ctx context.Context, turn int, status, message string)

// safeProgress invokes fn with a short deadline and swallows any error or
// timeout, mirroring _safe_progress_callback in the original source. A nil
// fn is a no-op. A StatusHandover report is always skipped, matching the
// source's dedicated fast path that avoids deadlocks in the caller on the
// handover transition.
func safeProgress(ctx context.Context, fn ProgressFunc, turn int, status, message string, deadline time.Duration) {
	if fn == nil {
		return
	}
	if status == StatusHandover {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = recover() }()
		fn(cctx, turn, status, message)
	}()

	select {
	case <-done:
	case <-cctx.Done():
	}
}
