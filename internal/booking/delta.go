package booking

import "github.com/salones-cra/booking-api/internal/model"

// ItemLine is one requested material line on a create or update request.
type ItemLine struct {
    MaterialID uint64
    Quantity   uint32
}

// normalizeLines aggregates duplicate material lines and drops
// zero-quantity entries, so "2 projectors + 1 projector" becomes a single
// line of 3 and an empty line is simply not requested.
func normalizeLines(lines []ItemLine) map[uint64]uint32 {
    out := make(map[uint64]uint32, len(lines))
    for _, l := range lines {
        if l.Quantity == 0 {
            continue
        }
        out[l.MaterialID] += l.Quantity
    }
    return out
}

// stockDeltas computes the per-material quantity change between a
// reservation's current items and the newly requested set.  A material
// absent from one side counts as zero there, so removed materials produce
// negative deltas (stock returned) and new ones positive deltas (stock
// consumed).  Updates apply these deltas instead of restoring everything
// and re-consuming: quantities shuffled between materials net out without
// a transient over- or under-subscription being visible to concurrent
// readers, while a genuinely infeasible net change still fails.
func stockDeltas(old []model.ReservationItem, requested map[uint64]uint32) map[uint64]int64 {
    oldMap := make(map[uint64]uint32, len(old))
    for _, it := range old {
        oldMap[it.MaterialID] += it.Quantity
    }
    deltas := make(map[uint64]int64, len(oldMap)+len(requested))
    for mid, q := range requested {
        deltas[mid] = int64(q) - int64(oldMap[mid])
    }
    for mid, q := range oldMap {
        if _, ok := requested[mid]; !ok {
            deltas[mid] = -int64(q)
        }
    }
    return deltas
}
