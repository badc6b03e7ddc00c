package duration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/a2cal/calendar-agent/duration"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"minutes", "30m", 30 * time.Minute, false},
		{"hours", "1h", 60 * time.Minute, false},
		{"fractional hours", "1.5h", 90 * time.Minute, false},
		{"bare digits", "45", 45 * time.Minute, false},
		{"three hours", "3h", 180 * time.Minute, false},
		{"fractional minutes not whole", "0.5m", 0, true},
		{"zero", "0m", 0, true},
		{"negative", "-15m", 0, true},
		{"garbage", "soon", 0, true},
		{"empty", "", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := duration.Parse(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, duration.ErrInvalidDuration)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "30m", duration.Format(30*time.Minute))
	assert.Equal(t, "1h", duration.Format(60*time.Minute))
	assert.Equal(t, "2h", duration.Format(120*time.Minute))
	assert.Equal(t, "15m", duration.Format(15*time.Minute))
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() {
		duration.MustParse("not-a-duration")
	})
}
