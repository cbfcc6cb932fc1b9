package database

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestDurationToPgInterval(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected pgtype.Interval
	}{
		{
			name:     "zero duration",
			duration: 0,
			expected: pgtype.Interval{Microseconds: 0, Days: 0, Valid: true},
		},
		{
			name:     "450 milliseconds",
			duration: 450 * time.Millisecond,
			expected: pgtype.Interval{Microseconds: 450000, Days: 0, Valid: true},
		},
		{
			name:     "90 seconds",
			duration: 90 * time.Second,
			expected: pgtype.Interval{Microseconds: 90000000, Days: 0, Valid: true},
		},
		{
			name:     "1 day",
			duration: 24 * time.Hour,
			expected: pgtype.Interval{Microseconds: 0, Days: 1, Valid: true},
		},
		{
			name:     "1 day and 1 hour",
			duration: 25 * time.Hour,
			expected: pgtype.Interval{Microseconds: 3600000000, Days: 1, Valid: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := durationToPgInterval(tt.duration)
			if got != tt.expected {
				t.Errorf("durationToPgInterval(%v) = %+v, want %+v", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestPgIntervalRoundTrip(t *testing.T) {
	durations := []time.Duration{
		0,
		3 * time.Second,
		17 * time.Minute,
		26*time.Hour + 30*time.Minute,
		72 * time.Hour,
	}
	for _, d := range durations {
		if got := pgIntervalToDuration(durationToPgInterval(d)); got != d {
			t.Errorf("round trip of %v produced %v", d, got)
		}
	}
}
