package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/a2cal/calendar-agent/calendar"
	"github.com/a2cal/calendar-agent/preferences"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *calendar.Engine {
	t.Helper()
	e, err := calendar.NewEngine(context.Background(), "owner", calendar.NewInMemStore())
	require.NoError(t, err)
	return e
}

func TestRoute_RequestAvailableSlots(t *testing.T) {
	engine := newTestEngine(t)
	router := &Router{Engine: engine}

	args := map[string]any{
		"start_date":               "2026-08-03T09:00:00Z",
		"end_date":                 "2026-08-03T12:00:00Z",
		"duration":                 "30m",
		"slot_granularity_minutes": float64(15),
	}
	result, err := router.Route(context.Background(), 0, "requestAvailableSlots", args)
	require.NoError(t, err)

	slots, ok := result.([]map[string]any)
	require.True(t, ok)
	assert.Len(t, slots, 4)
	assert.Equal(t, "2026-08-03T09:00:00Z", slots[0]["start"])
	assert.Equal(t, "2026-08-03T09:45:00Z", slots[1]["start"])
}

func TestRoute_RequestBooking_CreatesProposedEvent(t *testing.T) {
	engine := newTestEngine(t)
	router := &Router{Engine: engine}

	args := map[string]any{
		"start_time":       "2026-08-06T14:00:00Z",
		"duration":         "30m",
		"partner_agent_id": "partner-z",
	}
	result, err := router.Route(context.Background(), 0, "requestBooking", args)
	require.NoError(t, err)

	m, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, m["success"])
	assert.NotEmpty(t, m["event_id"])

	events := engine.All()
	require.Len(t, events, 1)
	assert.Equal(t, calendar.StatusProposed, events[0].Status)
}

func TestRoute_RequestBooking_ConflictReportedAsFailure(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Add(context.Background(), mustParseTime(t, "2026-08-06T14:00:00Z"), 30*time.Minute, "partner-z", "", calendar.StatusAccepted)
	require.NoError(t, err)

	router := &Router{Engine: engine}
	result, err := router.Route(context.Background(), 0, "requestBooking", map[string]any{
		"start_time":       "2026-08-06T14:15:00Z",
		"duration":         "30m",
		"partner_agent_id": "partner-z",
	})
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, false, m["success"])
	assert.Contains(t, m["error"], "conflict")
}

func TestRoute_RequestBooking_PolicyDenialWhenPartnerBlocked(t *testing.T) {
	engine := newTestEngine(t)
	prefs := preferences.Default()
	prefs.BlockedPartners = []string{"partner-bad"}
	store := preferences.NewInMemStore()
	require.NoError(t, store.Save(context.Background(), prefs))

	router := &Router{Engine: engine, PrefsStore: store}
	result, err := router.Route(context.Background(), 0, "requestBooking", map[string]any{
		"start_time":       "2026-08-06T14:00:00Z",
		"duration":         "30m",
		"partner_agent_id": "partner-bad",
	})
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, false, m["success"])
	assert.Contains(t, m["error"], "policy")
	assert.Empty(t, engine.All())
}

func TestRoute_AcceptMeeting(t *testing.T) {
	engine := newTestEngine(t)
	ev, err := engine.Propose(context.Background(), mustParseTime(t, "2026-08-06T14:00:00Z"), 30*time.Minute, "partner-z", "")
	require.NoError(t, err)

	router := &Router{Engine: engine}
	result, err := router.Route(context.Background(), 0, "acceptMeeting", map[string]any{"event_id": ev.ID})
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, true, m["success"])
}

func TestRoute_UnknownTool(t *testing.T) {
	router := &Router{Engine: newTestEngine(t)}
	_, err := router.Route(context.Background(), 0, "doSomethingUnheardOf", map[string]any{})
	require.Error(t, err)
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
}

func TestRoute_MissingRequiredArgumentIsParseError(t *testing.T) {
	router := &Router{Engine: newTestEngine(t)}
	_, err := router.Route(context.Background(), 0, "acceptMeeting", map[string]any{})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tm
}
