package model

import "time"

// Blackout blocks a span of time during which no reservation may exist.
// Two flavors share the table:
//
//   - Administrative blackouts (holidays, staff meetings) are created
//     directly by an admin.  ReservationID is nil.  Creating or editing one
//     cascades: every reservation overlapping the span is cancelled and its
//     stock returned.
//   - Shadow blackouts are generated automatically when a reservation is
//     created through the web flow, mirroring its exact span so the booking
//     also reads as a blocked slot.  ReservationID points back at the
//     owning reservation; the reason is tagged "Reserva de <username>" for
//     display.  Shadows are never edited directly and are removed together
//     with their reservation.
//
// A nil RoomID means the blackout applies to every room.
type Blackout struct {
    ID            uint64    // blackouts.id
    RoomID        *uint64   // blackouts.room_id (nullable: global)
    ReservationID *uint64   // blackouts.reservation_id (nullable: set on shadows only)
    StartDatetime time.Time // blackouts.start_datetime
    EndDatetime   time.Time // blackouts.end_datetime
    Reason        string    // blackouts.reason
    CreatedBy     *uint64   // blackouts.created_by (nullable)
    CreatedAt     time.Time // blackouts.created_at
}

// IsShadow reports whether the blackout was auto-generated for a
// reservation rather than authored by an administrator.
func (b Blackout) IsShadow() bool { return b.ReservationID != nil }
