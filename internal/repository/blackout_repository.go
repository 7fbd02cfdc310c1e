package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/salones-cra/booking-api/internal/model"
)

// BlackoutRepo provides data access for blackout spans.  Administrative
// blackouts and reservation shadows share the table; shadows carry a
// reservation_id back-reference and are excluded from administrative
// listings.  Datetimes are bound in UTC as "2006-01-02 15:04:05".
type BlackoutRepo struct {
    db *sql.DB
}

// NewBlackoutRepo returns a BlackoutRepo bound to the given database.
func NewBlackoutRepo(db *sql.DB) *BlackoutRepo { return &BlackoutRepo{db: db} }

const datetimeLayout = "2006-01-02 15:04:05"

// OverlapExistsTx reports whether any blackout overlaps [start, end) for
// the given room.  Global blackouts (room_id IS NULL) match every room.
// excludeReservationID skips the shadow owned by the reservation being
// updated, so a booking does not conflict with its own shadow (0 excludes
// nothing).  Runs on the caller's transaction as part of the conflict
// check.
func (r *BlackoutRepo) OverlapExistsTx(ctx context.Context, tx *sql.Tx, roomID uint64, start, end time.Time, excludeReservationID uint64) (bool, error) {
    var exists bool
    err := tx.QueryRowContext(ctx,
        `SELECT EXISTS(
            SELECT 1 FROM blackouts
            WHERE (room_id IS NULL OR room_id = ?)
              AND start_datetime < ? AND end_datetime > ?
              AND (reservation_id IS NULL OR reservation_id <> ?)
         )`,
        roomID, end.UTC().Format(datetimeLayout), start.UTC().Format(datetimeLayout),
        excludeReservationID).Scan(&exists)
    return exists, err
}

// CreateTx inserts a blackout row within the transaction and populates the
// generated ID on the record.  Used for both administrative blackouts (at
// the end of the cascade) and reservation shadows.
func (r *BlackoutRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Blackout) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO blackouts (room_id, reservation_id, start_datetime, end_datetime, reason, created_by)
         VALUES (?, ?, ?, ?, ?, ?)`,
        b.RoomID, b.ReservationID,
        b.StartDatetime.UTC().Format(datetimeLayout), b.EndDatetime.UTC().Format(datetimeLayout),
        b.Reason, b.CreatedBy)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// UpdateTx rewrites an existing blackout's scope and span within the
// transaction.  Only administrative blackouts are ever updated directly.
func (r *BlackoutRepo) UpdateTx(ctx context.Context, tx *sql.Tx, b *model.Blackout) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE blackouts SET room_id = ?, start_datetime = ?, end_datetime = ?, reason = ? WHERE id = ?`,
        b.RoomID,
        b.StartDatetime.UTC().Format(datetimeLayout), b.EndDatetime.UTC().Format(datetimeLayout),
        b.Reason, b.ID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// UpdateShadowSpanTx re-points a reservation's shadow blackout at a new
// room and span after the reservation was edited.  A reservation created
// without a shadow (API flow) simply matches zero rows; that is not an
// error.
func (r *BlackoutRepo) UpdateShadowSpanTx(ctx context.Context, tx *sql.Tx, reservationID uint64, roomID uint64, start, end time.Time) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE blackouts SET room_id = ?, start_datetime = ?, end_datetime = ? WHERE reservation_id = ?`,
        roomID, start.UTC().Format(datetimeLayout), end.UTC().Format(datetimeLayout), reservationID)
    return err
}

// DeleteShadowTx removes the shadow blackout owned by a reservation, if
// one exists.  The back-reference lookup replaces the original exact-match
// hunt over (room, reason, span).
func (r *BlackoutRepo) DeleteShadowTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM blackouts WHERE reservation_id = ?`, reservationID)
    return err
}

// GetByID fetches a blackout by primary key.
func (r *BlackoutRepo) GetByID(ctx context.Context, id uint64) (model.Blackout, error) {
    var b model.Blackout
    err := r.db.QueryRowContext(ctx,
        `SELECT id, room_id, reservation_id, start_datetime, end_datetime, reason, created_by, created_at
         FROM blackouts WHERE id = ?`, id).
        Scan(&b.ID, &b.RoomID, &b.ReservationID, &b.StartDatetime, &b.EndDatetime, &b.Reason, &b.CreatedBy, &b.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Blackout{}, ErrNotFound
    }
    return b, err
}

// GetForUpdateTx is GetByID under a row lock, used when editing an
// administrative blackout so the cascade it triggers cannot race another
// edit of the same blackout.
func (r *BlackoutRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Blackout, error) {
    var b model.Blackout
    err := tx.QueryRowContext(ctx,
        `SELECT id, room_id, reservation_id, start_datetime, end_datetime, reason, created_by, created_at
         FROM blackouts WHERE id = ? FOR UPDATE`, id).
        Scan(&b.ID, &b.RoomID, &b.ReservationID, &b.StartDatetime, &b.EndDatetime, &b.Reason, &b.CreatedBy, &b.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Blackout{}, ErrNotFound
    }
    return b, err
}

// BlackoutDetail is the admin listing view of a blackout with the room
// code resolved (empty for global blackouts).
type BlackoutDetail struct {
    ID            uint64  `json:"id"`
    RoomID        *uint64 `json:"room_id,omitempty"`
    RoomCode      *string `json:"room_code,omitempty"`
    StartDatetime string  `json:"start_datetime"`
    EndDatetime   string  `json:"end_datetime"`
    Reason        string  `json:"reason"`
    CreatedBy     *uint64 `json:"created_by,omitempty"`
    CreatedAt     string  `json:"created_at"`
}

// ListAdministrative returns administrative blackouts newest first.
// Shadow blackouts (reservation_id set) never appear here: they exist so
// reservations read as blocked slots, not as admin-authored entries.
func (r *BlackoutRepo) ListAdministrative(ctx context.Context) ([]BlackoutDetail, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT b.id, b.room_id, ro.code, b.start_datetime, b.end_datetime, b.reason, b.created_by, b.created_at
         FROM blackouts b
         LEFT JOIN rooms ro ON ro.id = b.room_id
         WHERE b.reservation_id IS NULL
         ORDER BY b.start_datetime DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]BlackoutDetail, 0)
    for rows.Next() {
        var (
            d          BlackoutDetail
            code       sql.NullString
            start, end time.Time
            createdAt  time.Time
        )
        if err := rows.Scan(&d.ID, &d.RoomID, &code, &start, &end, &d.Reason, &d.CreatedBy, &createdAt); err != nil {
            return nil, err
        }
        if code.Valid {
            c := code.String
            d.RoomCode = &c
        }
        d.StartDatetime = start.UTC().Format(time.RFC3339)
        d.EndDatetime = end.UTC().Format(time.RFC3339)
        d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        out = append(out, d)
    }
    return out, rows.Err()
}

// Delete removes an administrative blackout.  Deleting a blackout does not
// resurrect reservations it cancelled; the cascade is one-way.
func (r *BlackoutRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        `DELETE FROM blackouts WHERE id = ? AND reservation_id IS NULL`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}
