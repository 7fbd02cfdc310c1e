package model

import "time"

// Material is a consumable item the library lends alongside a room
// (projectors, cables, lab kits).  Names are unique.  A material cannot be
// deleted while any reservation item still references it; the repository
// enforces protect-on-delete and surfaces a conflict instead of cascading.
type Material struct {
    ID        uint64    // materials.id
    Name      string    // materials.name
    CreatedAt time.Time // materials.created_at
}
