package negotiation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2cal/calendar-agent/negotiation"
)

func newTestAC(transport *stubSender, agent *stubAgent) *negotiation.AutonomousContinuation {
	ac := negotiation.NewAutonomousContinuation(transport, agent, nil)
	ac.UtteranceTimeout = 200 * time.Millisecond
	ac.SendTimeout = 200 * time.Millisecond
	return ac
}

func TestAutonomousContinuation_CompletesWithinBudget(t *testing.T) {
	agent := &stubAgent{utterances: []string{"Here is my proposal: Thursday 14:00."}}
	transport := &stubSender{steps: []sendStep{
		{Text: "Confirmed for Thursday 14:00.", ContextID: "ctx-1"},
	}}
	ac := newTestAC(transport, agent)

	result, err := ac.Run(context.Background(), negotiation.AutonomousOptions{
		TargetEndpoint:  "https://agent-beta.example/a2a",
		TargetID:        "agent-beta",
		Intent:          testIntent(),
		RemainingTurns:  4,
		StartTurnNumber: 1,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.ConversationHistory, 1)
	assert.Equal(t, 1, result.ConversationHistory[0].Number)
}

func TestAutonomousContinuation_NoRemainingTurnsIsImmediateFailure(t *testing.T) {
	ac := newTestAC(&stubSender{}, &stubAgent{})

	result, err := ac.Run(context.Background(), negotiation.AutonomousOptions{RemainingTurns: 0})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Len(t, result.ConversationHistory, 0)
}

// The handover clause's leftover text is sent verbatim as the first
// autonomous turn's message; the local agent is never consulted for it.
func TestAutonomousContinuation_PendingMessageSentVerbatimOnFirstTurn(t *testing.T) {
	agent := &stubAgent{}
	transport := &stubSender{steps: []sendStep{
		{Text: "Confirmed for Thursday 14:00.", ContextID: "ctx-1"},
	}}
	ac := newTestAC(transport, agent)

	result, err := ac.Run(context.Background(), negotiation.AutonomousOptions{
		TargetEndpoint:  "https://agent-beta.example/a2a",
		PendingMessage:  "Please propose an alternative 30m slot on Thursday.",
		RemainingTurns:  4,
		StartTurnNumber: 1,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Equal(t, 1, transport.callCount())
	assert.Equal(t, "Please propose an alternative 30m slot on Thursday.", transport.callAt(0).Text)
	assert.Equal(t, 0, agent.calls)
}

// Boundary case: context id carries from one autonomous turn's response into
// the next autonomous turn's send, same as the supervised loop.
func TestAutonomousContinuation_ContextIDCarriesAcrossTurns(t *testing.T) {
	agent := &stubAgent{utterances: []string{"14:00 works, please confirm."}}
	transport := &stubSender{steps: []sendStep{
		{Text: "How about 14:00?", ContextID: "ctx-ac-1"},
		{Text: "Confirmed for Thursday 14:00.", ContextID: "ctx-ac-2"},
	}}
	ac := newTestAC(transport, agent)

	result, err := ac.Run(context.Background(), negotiation.AutonomousOptions{
		TargetEndpoint:  "https://agent-beta.example/a2a",
		PendingMessage:  "Please propose an alternative 30m slot on Thursday.",
		RemainingTurns:  4,
		StartTurnNumber: 1,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Equal(t, 2, transport.callCount())
	assert.Empty(t, transport.callAt(0).ContextID)
	assert.Equal(t, "ctx-ac-1", transport.callAt(1).ContextID)
}

func TestAutonomousContinuation_TransportErrorIsReportedAsFailure(t *testing.T) {
	agent := &stubAgent{utterances: []string{"proposal text"}}
	transport := &stubSender{steps: []sendStep{{Err: assert.AnError}}}
	ac := newTestAC(transport, agent)

	result, err := ac.Run(context.Background(), negotiation.AutonomousOptions{
		TargetEndpoint:  "https://agent-beta.example/a2a",
		RemainingTurns:  2,
		StartTurnNumber: 1,
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "communication error")
}
