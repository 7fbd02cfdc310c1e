package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salones-cra/booking-api/internal/model"
)

func TestNormalizeLines(t *testing.T) {
	got := normalizeLines([]ItemLine{
		{MaterialID: 1, Quantity: 2},
		{MaterialID: 1, Quantity: 1},
		{MaterialID: 2, Quantity: 0},
		{MaterialID: 3, Quantity: 5},
	})
	assert.Equal(t, map[uint64]uint32{1: 3, 3: 5}, got)

	assert.Empty(t, normalizeLines(nil))
}

func TestStockDeltas(t *testing.T) {
	old := []model.ReservationItem{
		{MaterialID: 1, Quantity: 2}, // unchanged
		{MaterialID: 2, Quantity: 3}, // reduced to 1
		{MaterialID: 3, Quantity: 4}, // removed entirely
	}
	requested := map[uint64]uint32{
		1: 2,
		2: 1,
		4: 5, // new material
	}
	got := stockDeltas(old, requested)
	assert.Equal(t, map[uint64]int64{
		1: 0,
		2: -2,
		3: -4,
		4: 5,
	}, got)
}

func TestStockDeltasEmptySides(t *testing.T) {
	// Fresh reservation: everything is consumption.
	got := stockDeltas(nil, map[uint64]uint32{7: 2})
	assert.Equal(t, map[uint64]int64{7: 2}, got)

	// Clearing all items: everything returns.
	got = stockDeltas([]model.ReservationItem{{MaterialID: 7, Quantity: 2}}, nil)
	assert.Equal(t, map[uint64]int64{7: -2}, got)
}
