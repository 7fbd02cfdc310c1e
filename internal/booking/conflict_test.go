package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/salones-cra/booking-api/internal/schedule"
)

// monday is a weekday inside the default calendar.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func detectorForTest() *ConflictDetector {
	// Pure checks only; the repository-backed checks are exercised through
	// the service tests with a mocked database.
	return &ConflictDetector{Rules: schedule.DefaultRules()}
}

func TestCheckValidSlot(t *testing.T) {
	d := detectorForTest()
	err := d.Check(Candidate{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("09:00"),
		End:    schedule.MustTimeOfDay("10:00"),
	})
	assert.NoError(t, err)
}

func TestCheckOrder(t *testing.T) {
	d := detectorForTest()
	saturday := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	// An inverted interval wins over every other violation, even on a
	// forbidden weekday outside business hours.
	err := d.Check(Candidate{
		RoomID: 1,
		Date:   saturday,
		Start:  schedule.MustTimeOfDay("20:00"),
		End:    schedule.MustTimeOfDay("06:00"),
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	// With a sane interval the weekday check comes next.
	err = d.Check(Candidate{
		RoomID: 1,
		Date:   saturday,
		Start:  schedule.MustTimeOfDay("06:00"),
		End:    schedule.MustTimeOfDay("20:00"),
	})
	assert.ErrorIs(t, err, ErrWeekdayNotAllowed)

	// And only then business hours.
	err = d.Check(Candidate{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("06:00"),
		End:    schedule.MustTimeOfDay("20:00"),
	})
	assert.ErrorIs(t, err, ErrOutsideBusinessHours)
}

func TestCheckZeroLengthSlot(t *testing.T) {
	d := detectorForTest()
	err := d.Check(Candidate{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("09:00"),
		End:    schedule.MustTimeOfDay("09:00"),
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
