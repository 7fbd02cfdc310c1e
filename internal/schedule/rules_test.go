package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())
	assert.Equal(t, 30, got.Minute())

	got, err = ParseTimeOfDay("14:05:00")
	require.NoError(t, err)
	assert.Equal(t, "14:05:00", got.String())

	got, err = ParseTimeOfDay("9:05")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())

	for _, bad := range []string{
		"not a time",
		"09:30xyz", // trailing garbage
		"09:3o",
		"24:00",
		"10:60",
		"10:15:60",
		"10:15:00:00",
		"10",
		":30",
		"-1:30",
	} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestWithinBusinessWindow(t *testing.T) {
	rules := DefaultRules()

	cases := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"inside", "09:00", "11:00", true},
		{"full day", "08:00", "18:00", true},
		{"start at open", "08:00", "09:00", true},
		{"end at close", "17:00", "18:00", true},
		{"start before open", "07:59", "09:00", false},
		{"end after close", "17:00", "18:01", false},
		{"start at close", "18:00", "19:00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := MustTimeOfDay(tc.start)
			end := MustTimeOfDay(tc.end)
			assert.Equal(t, tc.want, rules.WithinBusinessWindow(start, end))
		})
	}
}

func TestAllowedWeekday(t *testing.T) {
	rules := DefaultRules()

	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.True(t, rules.AllowedWeekday(monday))
	assert.True(t, rules.AllowedWeekday(friday))
	assert.False(t, rules.AllowedWeekday(saturday))
	assert.False(t, rules.AllowedWeekday(sunday))

	// A custom calendar can open Saturdays.
	rules.Weekdays[time.Saturday] = true
	assert.True(t, rules.AllowedWeekday(saturday))
}

func TestOverlap(t *testing.T) {
	at := MustTimeOfDay

	// Touching intervals do not overlap: a booking ending at 10:00 leaves
	// the room free for one starting at 10:00.
	assert.False(t, Overlap(at("09:00"), at("10:00"), at("10:00"), at("11:00")))
	assert.False(t, Overlap(at("10:00"), at("11:00"), at("09:00"), at("10:00")))

	assert.True(t, Overlap(at("09:00"), at("11:00"), at("10:00"), at("12:00")))
	assert.True(t, Overlap(at("09:00"), at("12:00"), at("10:00"), at("11:00")))
	assert.True(t, Overlap(at("10:00"), at("11:00"), at("09:00"), at("12:00")))
}

func TestOn(t *testing.T) {
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	got := MustTimeOfDay("13:45").On(date)
	assert.Equal(t, time.Date(2025, 6, 10, 13, 45, 0, 0, time.UTC), got)
}
