// Package preferences implements the admission policy a calendar owner
// applies to incoming and outgoing meeting proposals: preferred hours/days,
// duration envelope, scheduling caps, and partner allow/block lists
// (SPEC_FULL.md §3, §4.2).
package preferences

import (
	"time"

	"github.com/a2cal/calendar-agent/calendar"
	"github.com/a2cal/calendar-agent/duration"
)

// Preferences is the admission policy value. All fields are pure data; every
// exported method is a pure function over this value plus its arguments.
type Preferences struct {
	PreferredStartHour int // inclusive
	PreferredEndHour   int // exclusive
	PreferredDays      map[time.Weekday]bool

	PreferredDuration string
	MinDuration       string
	MaxDuration       string

	BufferBetweenMeetings time.Duration
	MaxMeetingsPerDay     int
	MaxMeetingsPerWeek    int
	AllowBackToBack       bool

	PreferredPartners []string
	BlockedPartners   []string
	AllowNewPartners  bool

	MinTrustScore float64

	Instructions string
}

// Default returns the canonical defaults carried over from the original
// Python BookingPreferences model (original_source/a2cal/src/services/
// calendar-service/calendar_api.py), which the distilled spec names but does
// not state numerically.
func Default() Preferences {
	return Preferences{
		PreferredStartHour: 9,
		PreferredEndHour:   17,
		PreferredDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		PreferredDuration:     "30m",
		MinDuration:           "15m",
		MaxDuration:           "2h",
		BufferBetweenMeetings: 15 * time.Minute,
		MaxMeetingsPerDay:     8,
		MaxMeetingsPerWeek:    30,
		AllowBackToBack:       false,
		AllowNewPartners:      true,
		MinTrustScore:         0.5,
	}
}

// Validate checks the invariants named in SPEC_FULL.md §3.
func (p Preferences) Validate() error {
	if p.PreferredStartHour < 0 || p.PreferredStartHour >= p.PreferredEndHour || p.PreferredEndHour > 24 {
		return &InvalidPreferencesError{Reason: "preferred hour window must satisfy 0 <= start < end <= 24"}
	}
	if p.MinTrustScore < 0 || p.MinTrustScore > 1 {
		return &InvalidPreferencesError{Reason: "min_trust_score must be in [0.0, 1.0]"}
	}
	for _, d := range []string{p.PreferredDuration, p.MinDuration, p.MaxDuration} {
		if d == "" {
			continue
		}
		if _, err := duration.Parse(d); err != nil {
			return &InvalidPreferencesError{Reason: "duration strings must be parseable: " + err.Error()}
		}
	}
	return nil
}

// InvalidPreferencesError reports that a Preferences value violates one of
// the invariants in SPEC_FULL.md §3.
type InvalidPreferencesError struct {
	Reason string
}

func (e *InvalidPreferencesError) Error() string {
	return "preferences: " + e.Reason
}

// IsPreferredTime reports whether instant falls within the preferred hour
// window and (if any days are configured) on a preferred weekday. The hour
// window is half-open: PreferredEndHour itself is NOT preferred.
func (p Preferences) IsPreferredTime(instant time.Time) bool {
	hour := instant.Hour()
	if hour < p.PreferredStartHour || hour >= p.PreferredEndHour {
		return false
	}
	if len(p.PreferredDays) == 0 {
		return true
	}
	return p.PreferredDays[instant.Weekday()]
}
