package negotiation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2cal/calendar-agent/negotiation"
)

func newTestOrchestrator(transport *stubSender, agent *stubAgent) *negotiation.Orchestrator {
	o := negotiation.NewOrchestrator(transport, agent, nil)
	o.OverallDeadline = 2 * time.Second
	o.InitDeadline = 200 * time.Millisecond
	o.UtteranceTimeout = 200 * time.Millisecond
	o.SendTimeout = 200 * time.Millisecond
	o.ProgressDeadline = 50 * time.Millisecond
	return o
}

func testIntent() negotiation.Intent {
	return negotiation.Intent{Date: "Thursday", Time: "10:00", Duration: "30m"}
}

// SPEC_FULL.md §8 scenario 1: a booking confirmed in a single supervised turn.
func TestOrchestrator_SuccessfulSupervisedBookingInOneTurn(t *testing.T) {
	agent := &stubAgent{utterances: []string{"Hi agent-beta, please schedule 30 minutes on Thursday at 10:00."}}
	transport := &stubSender{steps: []sendStep{
		{Text: "Meeting scheduled for Thursday 10:00, 30m. Confirmed.", ContextID: "ctx-1"},
	}}
	o := newTestOrchestrator(transport, agent)

	result, err := o.Run(context.Background(), negotiation.RunOptions{
		TargetEndpoint: "https://agent-beta.example/a2a",
		TargetID:       "agent-beta",
		Intent:         testIntent(),
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.HandoverOccurred)
	require.Len(t, result.ConversationHistory, 1)
	assert.Equal(t, 1, result.ConversationHistory[0].Number)
}

// Boundary case: a two-turn negotiation must carry the context id from turn
// 1's response into turn 2's send.
func TestOrchestrator_ContextIDCarriesAcrossTurns(t *testing.T) {
	agent := &stubAgent{utterances: []string{
		"Hi agent-beta, are you free Thursday at 10:00?",
		"Could you confirm 10:00 on Thursday works?",
	}}
	transport := &stubSender{steps: []sendStep{
		{Text: "Could you confirm the date?", ContextID: "ctx-turn-1"},
		{Text: "Meeting scheduled for Thursday 10:00, 30m. Confirmed.", ContextID: "ctx-turn-2"},
	}}
	o := newTestOrchestrator(transport, agent)

	result, err := o.Run(context.Background(), negotiation.RunOptions{
		TargetEndpoint: "https://agent-beta.example/a2a",
		TargetID:       "agent-beta",
		Intent:         testIntent(),
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.ConversationHistory, 2)

	require.Equal(t, 2, transport.callCount())
	assert.Empty(t, transport.callAt(0).ContextID, "turn 1 has no prior context id")
	assert.Equal(t, "ctx-turn-1", transport.callAt(1).ContextID, "turn 2 must carry turn 1's returned context id")
}

// SPEC_FULL.md §8 scenario 4: the peer accepts the request but never
// responds; Send must time out and the negotiation must fail without
// recording a turn for the attempt.
func TestOrchestrator_TransportNeverRespondingTimesOut(t *testing.T) {
	agent := &stubAgent{utterances: []string{"Hi agent-beta, please schedule 30 minutes on Thursday at 10:00."}}
	transport := &stubSender{steps: []sendStep{{Block: true}}}
	o := newTestOrchestrator(transport, agent)
	o.SendTimeout = 20 * time.Millisecond

	result, err := o.Run(context.Background(), negotiation.RunOptions{
		TargetEndpoint: "https://agent-beta.example/a2a",
		TargetID:       "agent-beta",
		Intent:         testIntent(),
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "timed out")
	assert.Len(t, result.ConversationHistory, 0)
}

// SPEC_FULL.md §8 scenario 2: the local agent requests a handover after one
// supervised turn; the Autonomous Continuation takes over and completes the
// booking. The handover-triggering utterance is detected before any Send
// attempt, so — per the same rule that keeps scenario 4's history at zero
// turns, a Turn is recorded only once a Send attempt resolves — it is never
// itself recorded as a turn. The recorded history is the two turns the
// autonomous continuation goes on to send.
func TestOrchestrator_HandoverToAutonomousContinuation(t *testing.T) {
	agent := &stubAgent{utterances: []string{
		`{"handover": true, "reason": "peer asked clarifying questions"} Please propose an alternative 30m slot on Thursday.`,
		"14:00 works, please confirm.",
	}}
	transport := &stubSender{steps: []sendStep{
		{Text: "How about 14:00?", ContextID: "ctx-ac-1"},
		{Text: "Confirmed for Thursday 14:00.", ContextID: "ctx-ac-2"},
	}}
	o := newTestOrchestrator(transport, agent)

	result, err := o.Run(context.Background(), negotiation.RunOptions{
		TargetEndpoint: "https://agent-beta.example/a2a",
		TargetID:       "agent-beta",
		Intent:         testIntent(),
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.HandoverOccurred)

	require.Len(t, result.ConversationHistory, 2)
	assert.Equal(t, 1, result.ConversationHistory[0].Number)
	assert.Equal(t, "Please propose an alternative 30m slot on Thursday.", result.ConversationHistory[0].MessageSent)
	assert.Equal(t, 2, result.ConversationHistory[1].Number)

	require.Equal(t, 2, transport.callCount())
	assert.Empty(t, transport.callAt(0).ContextID)
	assert.Equal(t, "ctx-ac-1", transport.callAt(1).ContextID, "autonomous turn 2 must carry turn 1's returned context id")
}

func TestOrchestrator_AgentInitFailurePreventsAnySend(t *testing.T) {
	agent := &stubAgent{initErr: assert.AnError}
	transport := &stubSender{}
	o := newTestOrchestrator(transport, agent)

	result, err := o.Run(context.Background(), negotiation.RunOptions{
		TargetEndpoint: "https://agent-beta.example/a2a",
		TargetID:       "agent-beta",
		Intent:         testIntent(),
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, transport.callCount())
	assert.Len(t, result.ConversationHistory, 0)
}
