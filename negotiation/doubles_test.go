package negotiation_test

import (
	"context"
	"errors"
	"sync"
)

// sentCall records one call a stubSender observed.
type sentCall struct {
	Endpoint  string
	Text      string
	ContextID string
}

// sendStep scripts one stubSender response. Block models a peer that never
// replies: Send blocks until ctx is done and returns ctx's error, the shape
// SPEC_FULL.md §8 scenario 4 ("peer sink accepts the request but never
// responds") needs.
type sendStep struct {
	Text      string
	ContextID string
	Err       error
	Block     bool
}

// stubSender is a scripted a2a.Sender: each Send call consumes the next
// configured step in order and records what it was asked to send.
type stubSender struct {
	mu    sync.Mutex
	steps []sendStep
	calls []sentCall
}

func (s *stubSender) Send(ctx context.Context, endpoint, text, contextID string) (string, string, error) {
	s.mu.Lock()
	idx := len(s.calls)
	s.calls = append(s.calls, sentCall{Endpoint: endpoint, Text: text, ContextID: contextID})
	s.mu.Unlock()

	if idx >= len(s.steps) {
		return "", contextID, errors.New("stubSender: no step configured for call")
	}
	step := s.steps[idx]
	if step.Block {
		<-ctx.Done()
		return "", contextID, ctx.Err()
	}
	if step.Err != nil {
		return "", contextID, step.Err
	}
	newContextID := step.ContextID
	if newContextID == "" {
		newContextID = contextID
	}
	return step.Text, newContextID, nil
}

func (s *stubSender) callAt(i int) sentCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

func (s *stubSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// stubAgent is a scripted negotiation.LocalAgent: each NextUtterance call
// returns the next configured utterance, in order, regardless of which
// caller (Orchestrator or AutonomousContinuation) makes it.
type stubAgent struct {
	mu         sync.Mutex
	utterances []string
	calls      int
	initErr    error
}

func (a *stubAgent) Init(context.Context) error { return a.initErr }

func (a *stubAgent) NextUtterance(context.Context, string) (string, error) {
	a.mu.Lock()
	idx := a.calls
	a.calls++
	a.mu.Unlock()
	if idx >= len(a.utterances) {
		return "", errors.New("stubAgent: no utterance configured for call")
	}
	return a.utterances[idx], nil
}
