package preferences

import (
	"time"

	"github.com/a2cal/calendar-agent/calendar"
)

// CanAccept reports whether a candidate event should be admitted given the
// set of events already on the calendar (SPEC_FULL.md §4.2):
//
//	IsPreferredTime(candidate.start)
//	  AND partner admitted by PartnerAccess
//	  AND day_count(existing, candidate.day) < MaxMeetingsPerDay
//	  AND week_count(existing, candidate.week) < MaxMeetingsPerWeek
//	  AND (AllowBackToBack OR buffer respected against every blocking event)
func (p Preferences) CanAccept(candidate calendar.Event, existing []calendar.Event) bool {
	if !p.IsPreferredTime(candidate.Start) {
		return false
	}
	if !p.PartnerAccess(candidate.Partner) {
		return false
	}

	day, week := 0, 0
	for _, ev := range existing {
		if !isBlocking(ev.Status) {
			continue
		}
		if sameDay(ev.Start, candidate.Start) {
			day++
		}
		if sameISOWeek(ev.Start, candidate.Start) {
			week++
		}
	}
	if p.MaxMeetingsPerDay > 0 && day >= p.MaxMeetingsPerDay {
		return false
	}
	if p.MaxMeetingsPerWeek > 0 && week >= p.MaxMeetingsPerWeek {
		return false
	}

	if p.AllowBackToBack {
		return true
	}
	for _, ev := range existing {
		if !isBlocking(ev.Status) {
			continue
		}
		if !bufferRespected(candidate, ev, p.BufferBetweenMeetings) {
			return false
		}
	}
	return true
}

// isBlocking mirrors calendar.Status.blocking without exporting it there;
// only accepted/confirmed/booked events count toward admission caps.
func isBlocking(s calendar.Status) bool {
	switch s {
	case calendar.StatusAccepted, calendar.StatusConfirmed, calendar.StatusBooked:
		return true
	default:
		return false
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameISOWeek(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}

// bufferRespected reports whether candidate keeps at least buffer between
// itself and existing in both directions.
func bufferRespected(candidate, existing calendar.Event, buffer time.Duration) bool {
	gapAfterExisting := candidate.Start.Sub(existing.End())
	gapBeforeExisting := existing.Start.Sub(candidate.End())
	if gapAfterExisting >= 0 {
		return gapAfterExisting >= buffer
	}
	if gapBeforeExisting >= 0 {
		return gapBeforeExisting >= buffer
	}
	return false // overlapping: never respects a buffer
}
