package calendar

import "fmt"

// ConflictError reports that an insert or proposal would overlap a blocking
// event (status accepted, confirmed, or booked).
type ConflictError struct {
	With Event
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: overlaps existing %s event %s for partner %s starting %s",
		e.With.Status, e.With.ID, e.With.Partner, e.With.Start.Format("2006-01-02T15:04:05Z07:00"))
}

// NotFoundError reports that no event exists with the given id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("calendar: no event with id %q", e.ID)
}
