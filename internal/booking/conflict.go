package booking

import (
    "context"
    "database/sql"
    "time"

    "github.com/salones-cra/booking-api/internal/repository"
    "github.com/salones-cra/booking-api/internal/schedule"
)

// Candidate is a requested reservation slot to be checked for conflicts.
type Candidate struct {
    RoomID uint64
    Date   time.Time
    Start  schedule.TimeOfDay
    End    schedule.TimeOfDay
}

// Span returns the candidate's full datetime interval.
func (c Candidate) Span() (time.Time, time.Time) {
    return c.Start.On(c.Date), c.End.On(c.Date)
}

// ConflictDetector decides whether a candidate slot is legal.  Checks run
// in a fixed order and the first violation wins: interval sanity, weekday,
// business hours, double booking, blackout overlap.  The pure checks need
// no database; the stored checks run on the caller's transaction so the
// verdict and the eventual write share one isolation scope.
type ConflictDetector struct {
    Rules        schedule.Rules
    Reservations *repository.ReservationRepo
    Blackouts    *repository.BlackoutRepo
}

// Check runs the pure calendar checks (steps 1-3).  Callers run it before
// opening a transaction so an obviously bad request never touches the
// database.
func (d *ConflictDetector) Check(cand Candidate) error {
    if cand.Start >= cand.End {
        return ErrInvalidInterval
    }
    if !d.Rules.AllowedWeekday(cand.Date) {
        return ErrWeekdayNotAllowed
    }
    if !d.Rules.WithinBusinessWindow(cand.Start, cand.End) {
        return ErrOutsideBusinessHours
    }
    return nil
}

// CheckTx runs the full ordered check inside the given transaction.
// excludeID skips the reservation being updated when testing for double
// bookings (0 for creates).  The caller must already hold the room lock;
// that lock is what closes the check-then-insert race between concurrent
// requests for the same room.
func (d *ConflictDetector) CheckTx(ctx context.Context, tx *sql.Tx, cand Candidate, excludeID uint64) error {
    if err := d.Check(cand); err != nil {
        return err
    }
    booked, err := d.Reservations.OverlapExistsTx(ctx, tx, cand.RoomID, cand.Date, cand.Start, cand.End, excludeID)
    if err != nil {
        return err
    }
    if booked {
        return ErrRoomDoubleBooked
    }
    start, end := cand.Span()
    blocked, err := d.Blackouts.OverlapExistsTx(ctx, tx, cand.RoomID, start, end, excludeID)
    if err != nil {
        return err
    }
    if blocked {
        return ErrBlackoutConflict
    }
    return nil
}
