// Package schedule holds the pure calendar predicates the booking engine is
// built on: the business-hours window, the allowed weekdays and the interval
// overlap test.  Everything here is configuration-driven and side-effect
// free; the conflict detector composes these predicates with repository
// queries.
package schedule

import "time"

// Rules captures the calendar policy for a site.  The values are plain
// configuration (loaded from the environment) rather than hardcoded
// constants so that a school with different opening hours, or one that
// allows Saturday bookings, only needs to change its deployment settings.
type Rules struct {
    Open     TimeOfDay            // earliest allowed start (inclusive)
    Close    TimeOfDay            // latest allowed end (inclusive for end only)
    Weekdays map[time.Weekday]bool // days on which reservations may be placed
}

// DefaultRules returns the CRA policy: Monday through Friday, 08:00-18:00.
func DefaultRules() Rules {
    return Rules{
        Open:  MustTimeOfDay("08:00"),
        Close: MustTimeOfDay("18:00"),
        Weekdays: map[time.Weekday]bool{
            time.Monday:    true,
            time.Tuesday:   true,
            time.Wednesday: true,
            time.Thursday:  true,
            time.Friday:    true,
        },
    }
}

// WithinBusinessWindow reports whether both endpoints fall inside the
// opening hours.  The bounds are asymmetric on purpose: a reservation may
// start exactly at opening and end exactly at closing, but may not start at
// closing nor end at opening.
func (r Rules) WithinBusinessWindow(start, end TimeOfDay) bool {
    return r.Open <= start && start < r.Close && r.Open < end && end <= r.Close
}

// AllowedWeekday reports whether the date falls on a bookable day.
func (r Rules) AllowedWeekday(date time.Time) bool {
    return r.Weekdays[date.Weekday()]
}

// Overlap is the half-open interval test used for both double-booking and
// blackout checks: two spans conflict iff each starts before the other
// ends.  Touching endpoints (one ends exactly when the other starts) do not
// overlap.
func Overlap(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
    return aStart < bEnd && bStart < aEnd
}

// OverlapTimes is Overlap for full timestamps, used when comparing a
// reservation's datetime span against a blackout's span.
func OverlapTimes(aStart, aEnd, bStart, bEnd time.Time) bool {
    return aStart.Before(bEnd) && bStart.Before(aEnd)
}
