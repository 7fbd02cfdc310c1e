package model

import (
    "time"

    "github.com/salones-cra/booking-api/internal/schedule"
)

// Reservation records a teacher's booking of a room for a time slot on a
// single date.  Start and end are clock times within that date and must
// satisfy start < end.  The reservation owns its items: they are created
// and deleted together with it and never outlive it.
//
// Fields:
//  ID        – primary key identifier.
//  RoomID    – room being booked.
//  UserID    – owning user (nil when the account was later removed).
//  Date      – calendar date of the slot.
//  StartTime – slot start, inclusive.
//  EndTime   – slot end, exclusive.
//  CreatedAt – creation timestamp.
type Reservation struct {
    ID        uint64             // reservations.id
    RoomID    uint64             // reservations.room_id
    UserID    *uint64            // reservations.user_id (nullable)
    Date      time.Time          // reservations.date (DATE column)
    StartTime schedule.TimeOfDay // reservations.start_time (TIME column)
    EndTime   schedule.TimeOfDay // reservations.end_time (TIME column)
    CreatedAt time.Time          // reservations.created_at
    Items     []ReservationItem  // loaded on demand
}

// Span returns the reservation's full datetime interval, used when
// comparing against blackout spans.
func (r Reservation) Span() (time.Time, time.Time) {
    return r.StartTime.On(r.Date), r.EndTime.On(r.Date)
}

// ReservationItem is one material line on a reservation: the material and
// how many units the booking withdrew from the room's ledger.  Quantity is
// at least 1.  The withdrawn amount must be returned to the ledger when the
// reservation is edited down or deleted.
type ReservationItem struct {
    ID            uint64 // reservation_items.id
    ReservationID uint64 // reservation_items.reservation_id
    MaterialID    uint64 // reservation_items.material_id
    Quantity      uint32 // reservation_items.quantity
}
