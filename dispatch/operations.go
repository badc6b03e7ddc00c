package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/a2cal/calendar-agent/calendar"
	"github.com/a2cal/calendar-agent/duration"
	"github.com/a2cal/calendar-agent/preferences"
)

const defaultSlotGranularityMinutes = 30

// route performs the named operation against engine and prefsStore, per
// SPEC_FULL.md §6's "Local inbound tool surface" table. It is the single
// place structured (non-LM) callers and the LM-mediated path converge: both
// call route after their own argument preparation.
func route(ctx context.Context, engine *calendar.Engine, prefsStore preferences.Store, tool string, args map[string]any) (any, error) {
	switch tool {
	case "requestAvailableSlots":
		return opAvailableSlots(engine, args)
	case "requestBooking", "proposeMeeting":
		return opRequestBooking(ctx, engine, prefsStore, args)
	case "acceptMeeting":
		return opTransition(ctx, engine, args, engine.Accept)
	case "rejectMeeting":
		return opTransition(ctx, engine, args, engine.Reject)
	case "confirmMeeting":
		return opTransition(ctx, engine, args, engine.Confirm)
	case "cancelEvent":
		return opCancel(args, engine)
	case "getCalendarEvents":
		return opGetCalendarEvents(engine, args)
	case "getPendingRequests":
		return opLimited(engine.Pending(), args)
	case "getUpcomingEvents":
		return opUpcoming(engine, args)
	default:
		return nil, &UnknownToolError{Tool: tool}
	}
}

func opAvailableSlots(engine *calendar.Engine, args map[string]any) (any, error) {
	start, err := argTime(args, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := argTime(args, "end_date")
	if err != nil {
		return nil, err
	}
	durStr, err := argString(args, "duration")
	if err != nil {
		return nil, err
	}
	dur, err := duration.Parse(durStr)
	if err != nil {
		return nil, &ParseError{Tool: "requestAvailableSlots", Reason: err.Error()}
	}

	buffer := defaultSlotGranularityMinutes
	if v, ok := args["slot_granularity_minutes"]; ok {
		n, err := argInt(v)
		if err != nil {
			return nil, &ParseError{Tool: "requestAvailableSlots", Reason: "slot_granularity_minutes: " + err.Error()}
		}
		buffer = n
	}

	slots := engine.AvailableSlots(start, end, dur, buffer)
	out := make([]map[string]any, len(slots))
	for i, s := range slots {
		out[i] = map[string]any{
			"start":            s.Start.Format(time.RFC3339),
			"end":              s.End.Format(time.RFC3339),
			"duration_minutes": int(s.Duration.Minutes()),
		}
	}
	return out, nil
}

func opRequestBooking(ctx context.Context, engine *calendar.Engine, prefsStore preferences.Store, args map[string]any) (any, error) {
	start, err := argTime(args, "start_time")
	if err != nil {
		return nil, err
	}
	durStr, err := argString(args, "duration")
	if err != nil {
		return nil, err
	}
	dur, err := duration.Parse(durStr)
	if err != nil {
		return nil, &ParseError{Tool: "requestBooking", Reason: err.Error()}
	}
	partner, err := argString(args, "partner_agent_id")
	if err != nil {
		return nil, err
	}

	status := calendar.StatusProposed
	if v, ok := args["initial_status"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &ParseError{Tool: "requestBooking", Reason: "initial_status must be a string"}
		}
		switch calendar.Status(s) {
		case calendar.StatusProposed, calendar.StatusAccepted, calendar.StatusConfirmed:
			status = calendar.Status(s)
		default:
			return nil, &ParseError{Tool: "requestBooking", Reason: fmt.Sprintf("initial_status %q is not a legal initial status", s)}
		}
	}

	if prefsStore != nil {
		if prefs, ok, err := prefsStore.Load(ctx); err == nil && ok {
			candidate := calendar.Event{Start: start, Duration: dur, Partner: partner}
			if !prefs.CanAccept(candidate, engine.All()) {
				return map[string]any{"success": false, "error": (&PolicyDenial{Partner: partner, Reason: "rejected by admission policy"}).Error()}, nil
			}
		}
	}

	ev, err := engine.Add(ctx, start, dur, partner, "", status)
	if err != nil {
		return bookingFailure(err), nil
	}
	return map[string]any{"success": true, "event_id": ev.ID, "status": string(ev.Status)}, nil
}

func bookingFailure(err error) map[string]any {
	return map[string]any{"success": false, "error": err.Error()}
}

func opTransition(ctx context.Context, engine *calendar.Engine, args map[string]any, fn func(context.Context, string) (calendar.Event, bool)) (any, error) {
	id, err := argString(args, "event_id")
	if err != nil {
		return nil, err
	}
	ev, ok := fn(ctx, id)
	if !ok {
		return map[string]any{"success": false}, nil
	}
	return map[string]any{"success": true, "event": eventToMap(ev)}, nil
}

func opCancel(args map[string]any, engine *calendar.Engine) (any, error) {
	id, err := argString(args, "event_id")
	if err != nil {
		return nil, err
	}
	ok := engine.Remove(context.Background(), id)
	return map[string]any{"success": ok}, nil
}

func opGetCalendarEvents(engine *calendar.Engine, args map[string]any) (any, error) {
	if v, ok := args["status"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &ParseError{Tool: "getCalendarEvents", Reason: "status must be a string"}
		}
		return eventsToMaps(engine.ByStatus(calendar.Status(s))), nil
	}
	return eventsToMaps(engine.All()), nil
}

func opLimited(events []calendar.Event, args map[string]any) (any, error) {
	if v, ok := args["limit"]; ok {
		n, err := argInt(v)
		if err != nil {
			return nil, &ParseError{Reason: "limit: " + err.Error()}
		}
		if n >= 0 && n < len(events) {
			events = events[:n]
		}
	}
	return eventsToMaps(events), nil
}

func opUpcoming(engine *calendar.Engine, args map[string]any) (any, error) {
	limit := 0
	if v, ok := args["limit"]; ok {
		n, err := argInt(v)
		if err != nil {
			return nil, &ParseError{Tool: "getUpcomingEvents", Reason: "limit: " + err.Error()}
		}
		limit = n
	}
	events, _ := engine.Upcoming(time.Now().UTC(), limit)
	return eventsToMaps(events), nil
}

func eventToMap(ev calendar.Event) map[string]any {
	return map[string]any{
		"id":         ev.ID,
		"start":      ev.Start.Format(time.RFC3339),
		"end":        ev.End().Format(time.RFC3339),
		"partner":    ev.Partner,
		"title":      ev.Title,
		"status":     string(ev.Status),
		"created_at": ev.CreatedAt.Format(time.RFC3339),
		"updated_at": ev.UpdatedAt.Format(time.RFC3339),
	}
}

func eventsToMaps(events []calendar.Event) []map[string]any {
	out := make([]map[string]any, len(events))
	for i, ev := range events {
		out[i] = eventToMap(ev)
	}
	return out
}

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", &ParseError{Reason: fmt.Sprintf("missing required argument %q", key)}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &ParseError{Reason: fmt.Sprintf("argument %q must be a non-empty string", key)}
	}
	return s, nil
}

func argTime(args map[string]any, key string) (time.Time, error) {
	s, err := argString(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &ParseError{Reason: fmt.Sprintf("argument %q is not a valid ISO instant: %s", key, err.Error())}
	}
	return t, nil
}

func argInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
