package calendar

import (
	"sort"
	"time"
)

// Slot is a contiguous free interval on the calendar, long enough for a
// requested duration, respecting buffer (SPEC_FULL.md Glossary).
type Slot struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// AvailableSlots enumerates contiguous free intervals within [start, end]
// that fit dur with bufferMinutes separation from every blocking event.
//
// Algorithm (SPEC_FULL.md §4.1): walk blocking events in start order,
// emitting back-to-back candidate slots of dur separated by dur+buffer
// within each gap between the search window and/or consecutive blocking
// events, each gap ending buffer before a blocking event and resuming buffer
// after it; after the final blocking event, continue to end. A slot is only
// emitted when its start+dur does not exceed end.
func (e *Engine) AvailableSlots(start, end time.Time, dur time.Duration, bufferMinutes int) []Slot {
	buffer := time.Duration(bufferMinutes) * time.Minute
	step := dur + buffer

	blocking := e.filter(func(ev Event) bool {
		if !ev.Status.blocking() {
			return false
		}
		// Only events whose buffered span could intersect [start, end] matter.
		return ev.End().Add(buffer).After(start) && ev.Start.Add(-buffer).Before(end)
	})
	sort.Slice(blocking, func(i, j int) bool { return blocking[i].Start.Before(blocking[j].Start) })

	var slots []Slot
	cursor := start
	for _, ev := range blocking {
		slots = append(slots, fillGap(cursor, ev.Start.Add(-buffer), dur, step)...)
		if ev.End().Add(buffer).After(cursor) {
			cursor = ev.End().Add(buffer)
		}
	}
	slots = append(slots, fillGap(cursor, end, dur, step)...)
	return slots
}

// fillGap emits back-to-back candidate slots of length dur, spaced step
// apart, starting at gapStart, as long as slotStart+dur <= gapEnd.
func fillGap(gapStart, gapEnd time.Time, dur, step time.Duration) []Slot {
	var out []Slot
	if !gapStart.Before(gapEnd) {
		return out
	}
	for cursor := gapStart; !cursor.Add(dur).After(gapEnd); cursor = cursor.Add(step) {
		out = append(out, Slot{Start: cursor, End: cursor.Add(dur), Duration: dur})
	}
	return out
}
