package calendar

import "context"

// Store persists calendar events (preferences are persisted separately, by
// preferences.Store). The engine
// holds its event map behind this interface so the in-memory map used for
// fast reads is never the sole source of truth: per SPEC_FULL.md §6, the
// store MUST survive process restart.
type Store interface {
	// Save inserts or updates an event.
	Save(ctx context.Context, event Event) error
	// Load returns an event by id. ok is false when the id is unknown.
	Load(ctx context.Context, id string) (event Event, ok bool, err error)
	// LoadAll returns every stored event, in no particular order.
	LoadAll(ctx context.Context) ([]Event, error)
	// Delete removes an event by id. It is not an error to delete an unknown id.
	Delete(ctx context.Context, id string) error
}
