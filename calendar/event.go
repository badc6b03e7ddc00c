// Package calendar implements the event model, status state machine, conflict
// detection, and availability search at the core of the scheduling agent.
package calendar

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle stage of an Event.
type Status string

// The full set of legal event statuses. Only Accepted, Confirmed, and Booked
// block the calendar for conflict purposes.
const (
	StatusProposed  Status = "proposed"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusConfirmed Status = "confirmed"
	StatusBooked    Status = "booked"
	StatusFailed    Status = "failed"
	StatusNoShow    Status = "no_show"
)

// blocking reports whether the status counts toward conflict detection.
func (s Status) blocking() bool {
	switch s {
	case StatusAccepted, StatusConfirmed, StatusBooked:
		return true
	default:
		return false
	}
}

// terminal reports whether the status accepts no further transitions other
// than removal.
func (s Status) terminal() bool {
	switch s {
	case StatusRejected, StatusFailed, StatusNoShow:
		return true
	default:
		return false
	}
}

// Event is the unit of scheduling.
type Event struct {
	ID        string
	Start     time.Time
	Duration  time.Duration
	Partner   string
	Title     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// End returns the instant the event ends.
func (e Event) End() time.Time {
	return e.Start.Add(e.Duration)
}

// Overlaps reports whether e and other occupy any common instant.
// Back-to-back events (one's End equals the other's Start) do not overlap.
func (e Event) Overlaps(other Event) bool {
	return e.Start.Before(other.End()) && other.Start.Before(e.End())
}

// clone returns a value copy of e. Event has no reference fields, so this is
// only a readability aid at call sites that want to make the copy explicit.
func (e Event) clone() Event {
	return e
}

// newEvent constructs a fresh event in the given status with a random id and
// CreatedAt == UpdatedAt == now.
func newEvent(start time.Time, dur time.Duration, partner, title string, status Status, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Start:     start,
		Duration:  dur,
		Partner:   partner,
		Title:     title,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
