// Package booking implements the reservation engine: the conflict
// detector, the transactional create/update/delete of reservations against
// the stock ledger, and the blackout cascade.  This file defines the
// validation sentinels the engine returns; stock and not-found errors come
// from the repository package.  All of these are recoverable and surfaced
// to the caller, never fatal.
package booking

import "errors"

// ErrInvalidInterval is returned when start >= end.
var ErrInvalidInterval = errors.New("start time must be before end time")

// ErrWeekdayNotAllowed is returned when the date falls on a day outside
// the configured booking days.
var ErrWeekdayNotAllowed = errors.New("reservations are not allowed on that weekday")

// ErrOutsideBusinessHours is returned when the slot violates the
// configured opening hours.
var ErrOutsideBusinessHours = errors.New("slot is outside business hours")

// ErrRoomDoubleBooked is returned when an overlapping reservation already
// exists for the same room and date.
var ErrRoomDoubleBooked = errors.New("room is already booked for that slot")

// ErrBlackoutConflict is returned when a blackout (global or for the
// candidate room) overlaps the requested span.
var ErrBlackoutConflict = errors.New("a blackout overlaps that slot")
