package model

import "time"

// Room represents a bookable CRA room.  Rooms are identified by a single
// uppercase letter code ('A', 'B', 'C', ...), unique across the school.
// Once created a room is immutable except for admin deletion, which
// cascades to its inventory, reservations and blackouts.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – one-letter room code, unique.
//  CreatedAt – timestamp when the room was created.
type Room struct {
    ID        uint64    // rooms.id
    Code      string    // rooms.code
    CreatedAt time.Time // rooms.created_at
}
