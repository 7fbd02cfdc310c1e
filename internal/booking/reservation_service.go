package booking

import (
    "context"
    "database/sql"
    "fmt"
    "sort"
    "time"

    "github.com/salones-cra/booking-api/internal/model"
    "github.com/salones-cra/booking-api/internal/repository"
    "github.com/salones-cra/booking-api/internal/schedule"
)

// ReservationService orchestrates create, update and delete of a
// reservation together with its line items and the stock ledger inside one
// atomic transaction, enforcing the conflict detector's verdict first.
// Every multi-step mutation commits all of its writes or none of them.
type ReservationService struct {
    db           *sql.DB
    detector     *ConflictDetector
    rooms        *repository.RoomRepo
    users        *repository.UserRepo
    inventory    *repository.InventoryRepo
    reservations *repository.ReservationRepo
    blackouts    *repository.BlackoutRepo
}

// NewReservationService wires the service; all dependencies must be
// non-nil.
func NewReservationService(db *sql.DB, rules schedule.Rules, rooms *repository.RoomRepo, users *repository.UserRepo, inventory *repository.InventoryRepo, reservations *repository.ReservationRepo, blackouts *repository.BlackoutRepo) *ReservationService {
    if db == nil || rooms == nil || users == nil || inventory == nil || reservations == nil || blackouts == nil {
        panic("nil dependency passed to NewReservationService")
    }
    return &ReservationService{
        db:           db,
        detector:     &ConflictDetector{Rules: rules, Reservations: reservations, Blackouts: blackouts},
        rooms:        rooms,
        users:        users,
        inventory:    inventory,
        reservations: reservations,
        blackouts:    blackouts,
    }
}

// CreateInput carries a reservation request.  UserID is the already
// resolved caller identity (nil for anonymous API clients).  When
// WithShadowBlackout is set the web flow's companion blackout is inserted
// in the same transaction, mirroring the slot and tagged with the owner's
// username, so a crash cannot leave a booking without its blocked-slot
// record.
type CreateInput struct {
    RoomID             uint64
    Date               time.Time
    Start              schedule.TimeOfDay
    End                schedule.TimeOfDay
    UserID             *uint64
    Items              []ItemLine
    WithShadowBlackout bool
}

// sortedLines flattens a normalized request map into deterministic order
// so ledger rows are always locked in the same sequence, which keeps two
// concurrent multi-material updates from deadlocking each other.
func sortedLines(m map[uint64]uint32) []ItemLine {
    out := make([]ItemLine, 0, len(m))
    for mid, q := range m {
        out = append(out, ItemLine{MaterialID: mid, Quantity: q})
    }
    sort.Slice(out, func(i, j int) bool { return out[i].MaterialID < out[j].MaterialID })
    return out
}

// Create validates the slot and, in one transaction, inserts the
// reservation, withdraws every line from the ledger and records the line
// items.  Any conflict or stock failure aborts the whole operation with no
// partial writes.
func (s *ReservationService) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
    cand := Candidate{RoomID: in.RoomID, Date: in.Date, Start: in.Start, End: in.End}
    // Pure checks first: a malformed request never opens a transaction.
    if err := s.detector.Check(cand); err != nil {
        return nil, err
    }
    lines := sortedLines(normalizeLines(in.Items))

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // The room lock serializes concurrent bookings for the same room so
    // the overlap check and the insert cannot interleave with another
    // request's.
    if _, err := s.rooms.LockTx(ctx, tx, in.RoomID); err != nil {
        return nil, err
    }
    if err := s.detector.CheckTx(ctx, tx, cand, 0); err != nil {
        return nil, err
    }

    res := &model.Reservation{
        RoomID:    in.RoomID,
        UserID:    in.UserID,
        Date:      in.Date,
        StartTime: in.Start,
        EndTime:   in.End,
    }
    if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
        return nil, err
    }
    items := make([]model.ReservationItem, 0, len(lines))
    for _, l := range lines {
        if err := s.inventory.ConsumeTx(ctx, tx, in.RoomID, l.MaterialID, l.Quantity); err != nil {
            return nil, err
        }
        items = append(items, model.ReservationItem{ReservationID: res.ID, MaterialID: l.MaterialID, Quantity: l.Quantity})
    }
    if err := s.reservations.CreateItemsBulkTx(ctx, tx, res.ID, items); err != nil {
        return nil, err
    }
    res.Items = items

    if in.WithShadowBlackout && in.UserID != nil {
        username, err := s.users.UsernameTx(ctx, tx, *in.UserID)
        if err != nil {
            return nil, err
        }
        start, end := cand.Span()
        shadow := &model.Blackout{
            RoomID:        &in.RoomID,
            ReservationID: &res.ID,
            StartDatetime: start,
            EndDatetime:   end,
            Reason:        fmt.Sprintf("Reserva de %s", username),
            CreatedBy:     in.UserID,
        }
        if err := s.blackouts.CreateTx(ctx, tx, shadow); err != nil {
            return nil, err
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return res, nil
}

// UpdateInput carries the full new state for an existing reservation.
type UpdateInput struct {
    RoomID uint64
    Date   time.Time
    Start  schedule.TimeOfDay
    End    schedule.TimeOfDay
    Items  []ItemLine
}

// Update re-validates the new slot (excluding the reservation itself from
// the double-booking test), applies per-material stock deltas, replaces
// the item set and rewrites the reservation row, all in one transaction.
// When the reservation moves to a different room the old room's stock is
// fully restored and the new room's consumed.
func (s *ReservationService) Update(ctx context.Context, id uint64, in UpdateInput) (*model.Reservation, error) {
    cand := Candidate{RoomID: in.RoomID, Date: in.Date, Start: in.Start, End: in.End}
    if err := s.detector.Check(cand); err != nil {
        return nil, err
    }
    requested := normalizeLines(in.Items)

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := s.reservations.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return nil, err
    }
    if _, err := s.rooms.LockTx(ctx, tx, in.RoomID); err != nil {
        return nil, err
    }
    if err := s.detector.CheckTx(ctx, tx, cand, id); err != nil {
        return nil, err
    }

    oldItems, err := s.reservations.ItemsTx(ctx, tx, id)
    if err != nil {
        return nil, err
    }
    if res.RoomID == in.RoomID {
        // Same room: apply the net change per material so quantities
        // shuffled between materials do not trip a false stock failure.
        deltas := stockDeltas(oldItems, requested)
        mids := make([]uint64, 0, len(deltas))
        for mid := range deltas {
            mids = append(mids, mid)
        }
        sort.Slice(mids, func(i, j int) bool { return mids[i] < mids[j] })
        for _, mid := range mids {
            if err := s.inventory.ApplyDeltaTx(ctx, tx, in.RoomID, mid, deltas[mid]); err != nil {
                return nil, err
            }
        }
    } else {
        // Room changed: the old room gets everything back, the new room
        // must cover the full request.
        for _, it := range oldItems {
            if err := s.inventory.RestoreTx(ctx, tx, res.RoomID, it.MaterialID, it.Quantity); err != nil {
                return nil, err
            }
        }
        for _, l := range sortedLines(requested) {
            if err := s.inventory.ConsumeTx(ctx, tx, in.RoomID, l.MaterialID, l.Quantity); err != nil {
                return nil, err
            }
        }
    }

    if err := s.reservations.DeleteItemsTx(ctx, tx, id); err != nil {
        return nil, err
    }
    newItems := make([]model.ReservationItem, 0, len(requested))
    for _, l := range sortedLines(requested) {
        newItems = append(newItems, model.ReservationItem{ReservationID: id, MaterialID: l.MaterialID, Quantity: l.Quantity})
    }
    if err := s.reservations.CreateItemsBulkTx(ctx, tx, id, newItems); err != nil {
        return nil, err
    }

    res.RoomID = in.RoomID
    res.Date = in.Date
    res.StartTime = in.Start
    res.EndTime = in.End
    res.Items = newItems
    if err := s.reservations.UpdateTx(ctx, tx, &res); err != nil {
        return nil, err
    }
    // Keep the shadow blackout mirroring the reservation's span; a no-op
    // for reservations created without one.
    start, end := cand.Span()
    if err := s.blackouts.UpdateShadowSpanTx(ctx, tx, id, in.RoomID, start, end); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return &res, nil
}

// Delete restores every line item's quantity to the ledger, removes the
// reservation's shadow blackout and deletes the reservation, atomically.
// Deleting an already-deleted reservation fails with ErrNotFound and does
// not touch the ledger.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := s.reservations.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return err
    }
    items, err := s.reservations.ItemsTx(ctx, tx, id)
    if err != nil {
        return err
    }
    for _, it := range items {
        if err := s.inventory.RestoreTx(ctx, tx, res.RoomID, it.MaterialID, it.Quantity); err != nil {
            return err
        }
    }
    if err := s.blackouts.DeleteShadowTx(ctx, tx, id); err != nil {
        return err
    }
    // Items cascade with the reservation row.
    if err := s.reservations.DeleteTx(ctx, tx, id); err != nil {
        return err
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Owner returns the reservation's owning user, for ownership checks in
// the handler layer.  ErrNotFound when the reservation does not exist.
func (s *ReservationService) Owner(ctx context.Context, id uint64) (*uint64, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    defer func() { _ = tx.Rollback() }()
    res, err := s.reservations.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return nil, err
    }
    return res.UserID, nil
}

// ListVisibleTo returns the reservations the caller may see: admins see
// every reservation, teachers only their own, anonymous callers none.
func (s *ReservationService) ListVisibleTo(ctx context.Context, role string, userID *uint64) ([]repository.ReservationDetail, error) {
    switch {
    case role == model.RoleAdmin:
        return s.reservations.ListDetails(ctx, nil)
    case userID != nil:
        return s.reservations.ListDetails(ctx, userID)
    default:
        return []repository.ReservationDetail{}, nil
    }
}
