// Package repository implements raw-SQL data access for the booking
// service.  This file defines the error values shared across repositories.
// Sentinel errors let the service and handler layers distinguish failure
// scenarios with errors.Is without depending on driver-specific codes.
package repository

import (
    "errors"
    "fmt"
)

// ErrNotFound is returned when a referenced room, material, reservation,
// blackout or inventory row does not exist.  Handlers translate it into an
// HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot proceed because of dependent
// state, such as deleting a material that reservation items still
// reference, or creating a duplicate inventory row.  Handlers translate it
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate it into an HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientStock is the sentinel matched by errors.Is for any stock
// failure.  The ledger wraps it in a StockError carrying the room and
// material so the presentation layer can render a precise message.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockError reports which room/material pair could not satisfy a consume
// or delta operation.  RoomCode and MaterialName are best-effort lookups;
// they may be empty if the describing query failed, in which case the IDs
// still identify the pair.
type StockError struct {
    RoomID       uint64
    MaterialID   uint64
    RoomCode     string
    MaterialName string
}

func (e *StockError) Error() string {
    if e.MaterialName != "" && e.RoomCode != "" {
        return fmt.Sprintf("insufficient stock of %s in room %s", e.MaterialName, e.RoomCode)
    }
    return fmt.Sprintf("insufficient stock for material %d in room %d", e.MaterialID, e.RoomID)
}

// Unwrap lets errors.Is(err, ErrInsufficientStock) match a StockError.
func (e *StockError) Unwrap() error { return ErrInsufficientStock }
