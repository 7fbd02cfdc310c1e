package schedule

import (
    "fmt"
    "strings"
    "time"
)

// TimeOfDay is a clock time without a date, stored as minutes since
// midnight.  Reservations keep their date and their start/end clock times
// separately (mirroring the DATE and TIME columns in MySQL), so the rules
// engine compares plain minute counts instead of juggling time.Time values
// anchored to an arbitrary day.
type TimeOfDay int

// clockField parses one colon-separated component: one or two digits,
// nothing else.
func clockField(p string) (int, bool) {
    if len(p) == 0 || len(p) > 2 {
        return 0, false
    }
    n := 0
    for i := 0; i < len(p); i++ {
        if p[i] < '0' || p[i] > '9' {
            return 0, false
        }
        n = n*10 + int(p[i]-'0')
    }
    return n, true
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" and returns the clock time.
// Each field must be purely numeric; trailing garbage is rejected.
// Seconds are validated but discarded, the schema stores whole minutes.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
    parts := strings.Split(s, ":")
    if len(parts) != 2 && len(parts) != 3 {
        return 0, fmt.Errorf("invalid clock time %q", s)
    }
    h, ok := clockField(parts[0])
    if !ok || h > 23 {
        return 0, fmt.Errorf("invalid clock time %q", s)
    }
    m, ok := clockField(parts[1])
    if !ok || m > 59 {
        return 0, fmt.Errorf("invalid clock time %q", s)
    }
    if len(parts) == 3 {
        if sec, ok := clockField(parts[2]); !ok || sec > 59 {
            return 0, fmt.Errorf("invalid clock time %q", s)
        }
    }
    return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay parses s and panics on error.  Intended for configuration
// defaults and tests where the literal is known to be valid.
func MustTimeOfDay(s string) TimeOfDay {
    t, err := ParseTimeOfDay(s)
    if err != nil {
        panic(err)
    }
    return t
}

// Hour returns the hour component (0-23).
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component (0-59).
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the time as "HH:MM:SS" so the value can be bound directly
// to a MySQL TIME column.
func (t TimeOfDay) String() string {
    return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute())
}

// On combines the clock time with a calendar date, producing the full
// timestamp used when comparing a reservation against blackout spans.
// The date's own clock component is discarded.
func (t TimeOfDay) On(date time.Time) time.Time {
    return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}
