package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlanner struct {
	text  string
	err   error
	delay time.Duration
}

// NextUtterance ignores ctx cancellation and sleeps the full delay, modeling
// a call stuck past its deadline — the scenario dispatcher.go's own
// ctx.Done() branch in callModel exists to guard against.
func (s *stubPlanner) NextUtterance(ctx context.Context, prompt string) (string, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.text, s.err
}

func TestDispatch_NaturalLanguageBooking(t *testing.T) {
	engine := newTestEngine(t)
	planner := &stubPlanner{text: `{"tool": "requestBooking", "arguments": {"start_time": "2026-08-06T14:00:00Z", "duration": "30m", "partner_agent_id": "partner-z"}}`}
	d := New(engine, nil, planner, nil)

	result := d.Dispatch(context.Background(), "book a 30 minute meeting with partner-z on Thursday at 2pm")
	assert.Contains(t, result, "event_id")
	assert.Len(t, engine.All(), 1)
}

func TestDispatch_CodeFencedEmission(t *testing.T) {
	engine := newTestEngine(t)
	planner := &stubPlanner{text: "```json\n{\"tool\": \"getCalendarEvents\", \"arguments\": {}}\n```"}
	d := New(engine, nil, planner, nil)

	result := d.Dispatch(context.Background(), "show me my calendar")
	assert.Equal(t, "[]", result)
}

func TestDispatch_LanguageModelErrorIsPlainLanguage(t *testing.T) {
	engine := newTestEngine(t)
	planner := &stubPlanner{err: errors.New("upstream unavailable")}
	d := New(engine, nil, planner, nil)

	result := d.Dispatch(context.Background(), "anything")
	assert.Contains(t, result, "Sorry")
}

func TestDispatch_LanguageModelTimeout(t *testing.T) {
	engine := newTestEngine(t)
	planner := &stubPlanner{delay: 200 * time.Millisecond, text: "irrelevant"}
	d := New(engine, nil, planner, nil)
	d.LMDeadline = 20 * time.Millisecond

	result := d.Dispatch(context.Background(), "anything")
	assert.Contains(t, result, "Sorry")
	assert.Contains(t, result, "timed out")
}

func TestDispatch_UnparseableEmissionIsPlainLanguage(t *testing.T) {
	engine := newTestEngine(t)
	planner := &stubPlanner{text: "I think you should book it"}
	d := New(engine, nil, planner, nil)

	result := d.Dispatch(context.Background(), "anything")
	assert.Contains(t, result, "Sorry")
}

func TestDispatch_ToolErrorIsPlainLanguage(t *testing.T) {
	engine := newTestEngine(t)
	planner := &stubPlanner{text: `{"tool": "acceptMeeting", "arguments": {}}`}
	d := New(engine, nil, planner, nil)

	result := d.Dispatch(context.Background(), "accept it")
	assert.Contains(t, result, "Sorry")
}

func TestRouter_Route_ZeroDeadlineMeansNoExtraDeadline(t *testing.T) {
	engine := newTestEngine(t)
	router := &Router{Engine: engine}

	result, err := router.Route(context.Background(), 0, "getCalendarEvents", map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, result)
}
