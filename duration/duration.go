// Package duration centralizes parsing of the short duration strings used
// throughout wire payloads, user input, and persistence: "30m", "1.5h", or a
// bare number of minutes.
package duration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration is returned when a duration string does not match any
// recognized form.
var ErrInvalidDuration = errors.New("duration: invalid format")

// Parse converts a duration string to a time.Duration.
//
// Recognized forms:
//   - "<N>m" — N minutes, N may be fractional (e.g. "90m")
//   - "<N>h" — N hours, N may be fractional (e.g. "1.5h")
//   - bare digits — minutes (e.g. "30")
//
// The result must be a strictly positive, whole number of minutes; anything
// else returns ErrInvalidDuration.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}

	var minutes float64
	switch {
	case strings.HasSuffix(s, "h"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(s, "h"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		minutes = n * 60
	case strings.HasSuffix(s, "m"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(s, "m"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		minutes = n
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		minutes = n
	}

	whole := int64(minutes)
	if float64(whole) != minutes {
		return 0, fmt.Errorf("%w: %q does not resolve to a whole number of minutes", ErrInvalidDuration, s)
	}
	if whole <= 0 {
		return 0, fmt.Errorf("%w: %q must be strictly positive", ErrInvalidDuration, s)
	}

	return time.Duration(whole) * time.Minute, nil
}

// MustParse is like Parse but panics on error. Reserved for constants known
// at compile time (e.g. canonical preference defaults).
func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders a time.Duration back to the canonical short form, preferring
// hours when the value is an exact multiple of 30 minutes and at least an
// hour, minutes otherwise.
func Format(d time.Duration) string {
	minutes := d.Minutes()
	if minutes >= 60 && int64(minutes)%30 == 0 {
		hours := minutes / 60
		if hours == float64(int64(hours)) {
			return fmt.Sprintf("%dh", int64(hours))
		}
		return fmt.Sprintf("%gh", hours)
	}
	return fmt.Sprintf("%dm", int64(minutes))
}
