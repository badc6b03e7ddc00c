package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/a2cal/calendar-agent/runtime/telemetry"
)

// Engine owns all event state for one calendar owner. It is the single shared
// mutable resource in this system (SPEC_FULL.md §5): every mutating operation
// and every read that iterates the full event set is serialized under a
// single sync.RWMutex, the same idiom used for the in-memory session store in
// runtime/agent/session/inmem.Store.
//
// Construct once at process start and inject; there is no module-level
// singleton (SPEC_FULL.md §9 "Shared global calendar").
type Engine struct {
	mu     sync.RWMutex
	owner  string
	store  Store
	events map[string]Event
	log    telemetry.Logger
	now    func() time.Time
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the Engine's logger. Defaults to a no-op logger.
func WithLogger(l telemetry.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the Engine's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine constructs an Engine backed by store, loading any events already
// present. owner identifies the calendar's principal.
func NewEngine(ctx context.Context, owner string, store Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		owner:  owner,
		store:  store,
		events: make(map[string]Event),
		log:    telemetry.NewNoopLogger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}

	existing, err := store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range existing {
		e.events[ev.ID] = ev
	}
	return e, nil
}

// hasConflict reports whether a candidate [start, start+dur) interval
// overlaps any blocking (accepted/confirmed/booked) event, excluding the
// event identified by excludeID (used when re-checking an existing event).
// Caller must hold at least a read lock.
func (e *Engine) hasConflict(start time.Time, dur time.Duration, excludeID string) (Event, bool) {
	candidate := Event{Start: start, Duration: dur}
	for _, ev := range e.events {
		if ev.ID == excludeID || !ev.Status.blocking() {
			continue
		}
		if candidate.Overlaps(ev) {
			return ev, true
		}
	}
	return Event{}, false
}

// Propose constructs a new proposed event. Returns a *ConflictError if the
// candidate interval overlaps a blocking event.
func (e *Engine) Propose(ctx context.Context, start time.Time, dur time.Duration, partner, title string) (Event, error) {
	return e.insert(ctx, start, dur, partner, title, StatusProposed)
}

// Add inserts an event with an explicit initial status (proposed, accepted,
// or confirmed per the inbound requestBooking contract, SPEC_FULL §6).
func (e *Engine) Add(ctx context.Context, start time.Time, dur time.Duration, partner, title string, status Status) (Event, error) {
	return e.insert(ctx, start, dur, partner, title, status)
}

func (e *Engine) insert(ctx context.Context, start time.Time, dur time.Duration, partner, title string, status Status) (Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if conflict, ok := e.hasConflict(start, dur, ""); ok {
		e.log.Debug(ctx, "calendar: conflict on insert", "partner", partner, "conflict_with", conflict.ID)
		return Event{}, &ConflictError{With: conflict}
	}

	ev := newEvent(start, dur, partner, title, status, e.now())
	e.events[ev.ID] = ev
	if err := e.store.Save(ctx, ev); err != nil {
		delete(e.events, ev.ID)
		return Event{}, err
	}
	return ev, nil
}

// applyTransition runs the named transition op against the event identified
// by id. Returns the updated event and true on success; on an unknown id or
// an illegal transition, returns (Event{}, false) without error — per
// SPEC_FULL §3, illegal transitions are silent no-ops.
func (e *Engine) applyTransition(ctx context.Context, id, op string) (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev, ok := e.events[id]
	if !ok {
		return Event{}, false
	}

	newStatus, ok := transition(ev.Status, op)
	if !ok {
		return Event{}, false
	}
	if newStatus == ev.Status {
		// Legal no-op (e.g. repeated mark_failed): report success without
		// touching updated_at, per the universal invariant in SPEC_FULL §8.
		return ev.clone(), true
	}

	ev.Status = newStatus
	ev.UpdatedAt = e.now()
	e.events[id] = ev
	if err := e.store.Save(ctx, ev); err != nil {
		e.log.Warn(ctx, "calendar: persist transition failed", "event_id", id, "op", op, "error", err.Error())
	}
	return ev.clone(), true
}

// Accept transitions a proposed event to accepted.
func (e *Engine) Accept(ctx context.Context, id string) (Event, bool) { return e.applyTransition(ctx, id, "accept") }

// Reject transitions a proposed event to rejected.
func (e *Engine) Reject(ctx context.Context, id string) (Event, bool) { return e.applyTransition(ctx, id, "reject") }

// Confirm transitions a proposed or accepted event to confirmed.
func (e *Engine) Confirm(ctx context.Context, id string) (Event, bool) { return e.applyTransition(ctx, id, "confirm") }

// MarkBooked transitions any non-terminal event to booked.
func (e *Engine) MarkBooked(ctx context.Context, id string) (Event, bool) {
	return e.applyTransition(ctx, id, "mark_booked")
}

// MarkFailed transitions any event to failed.
func (e *Engine) MarkFailed(ctx context.Context, id string) (Event, bool) {
	return e.applyTransition(ctx, id, "mark_failed")
}

// MarkNoShow transitions any event to no_show.
func (e *Engine) MarkNoShow(ctx context.Context, id string) (Event, bool) {
	return e.applyTransition(ctx, id, "mark_no_show")
}

// Remove deletes an event outright, regardless of status. Returns false if
// the id was unknown.
func (e *Engine) Remove(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.events[id]; !ok {
		return false
	}
	delete(e.events, id)
	if err := e.store.Delete(ctx, id); err != nil {
		e.log.Warn(ctx, "calendar: persist delete failed", "event_id", id, "error", err.Error())
	}
	return true
}

// Get returns a single event by id.
func (e *Engine) Get(id string) (Event, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ev, ok := e.events[id]
	if !ok {
		return Event{}, false
	}
	return ev.clone(), true
}

// ByStatus returns all events with the given status.
func (e *Engine) ByStatus(status Status) []Event {
	return e.filter(func(ev Event) bool { return ev.Status == status })
}

// ByPartner returns all events for the given partner.
func (e *Engine) ByPartner(partner string) []Event {
	return e.filter(func(ev Event) bool { return ev.Partner == partner })
}

// Pending returns proposed and accepted events.
func (e *Engine) Pending() []Event {
	return e.filter(func(ev Event) bool { return ev.Status == StatusProposed || ev.Status == StatusAccepted })
}

// Confirmed returns confirmed and booked events.
func (e *Engine) Confirmed() []Event {
	return e.filter(func(ev Event) bool { return ev.Status == StatusConfirmed || ev.Status == StatusBooked })
}

// All returns every event.
func (e *Engine) All() []Event {
	return e.filter(func(Event) bool { return true })
}

// CountByStatus tallies events per status.
func (e *Engine) CountByStatus() map[Status]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[Status]int)
	for _, ev := range e.events {
		out[ev.Status]++
	}
	return out
}

// Upcoming returns future-time confirmed/accepted/booked events, sorted
// ascending by start, optionally truncated to limit (0 or negative means no
// limit). bounds describes any truncation applied.
func (e *Engine) Upcoming(after time.Time, limit int) (events []Event, bounds Bounds) {
	all := e.filter(func(ev Event) bool {
		if ev.Start.Before(after) {
			return false
		}
		switch ev.Status {
		case StatusAccepted, StatusConfirmed, StatusBooked:
			return true
		default:
			return false
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })

	total := len(all)
	var limPtr *int
	if limit > 0 {
		limPtr = &limit
		if len(all) > limit {
			all = all[:limit]
		}
	}
	return all, boundsFor(len(all), total, limPtr)
}

func (e *Engine) filter(pred func(Event) bool) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Event, 0, len(e.events))
	for _, ev := range e.events {
		if pred(ev) {
			out = append(out, ev.clone())
		}
	}
	return out
}
