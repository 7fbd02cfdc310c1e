package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/salones-cra/booking-api/internal/model"
    "github.com/salones-cra/booking-api/internal/schedule"
)

// ReservationRepo provides data access for reservations and their line
// items.  A reservation and its items form one aggregate: items are
// inserted and deleted together with the reservation, inside the caller's
// transaction.  All date values are bound as "2006-01-02" strings and all
// clock times as "HH:MM:SS" strings, matching the DATE and TIME columns.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const dateLayout = "2006-01-02"

// scanTimeOfDay converts a raw TIME column value into a TimeOfDay.
func scanTimeOfDay(raw []byte) (schedule.TimeOfDay, error) {
    return schedule.ParseTimeOfDay(string(raw))
}

// CreateTx inserts a reservation row within the given transaction and
// populates the generated ID and creation timestamp on the passed record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    result, err := tx.ExecContext(ctx,
        `INSERT INTO reservations (room_id, user_id, date, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
        res.RoomID, res.UserID, res.Date.Format(dateLayout), res.StartTime.String(), res.EndTime.String())
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return tx.QueryRowContext(ctx,
        `SELECT created_at FROM reservations WHERE id = ?`, res.ID).Scan(&res.CreatedAt)
}

// OverlapExistsTx reports whether any reservation for the same room and
// date overlaps the half-open candidate interval.  excludeID skips the
// reservation being updated (0 means exclude nothing).  Runs on the
// caller's transaction so the verdict and the eventual insert share the
// room lock taken by the service.
func (r *ReservationRepo) OverlapExistsTx(ctx context.Context, tx *sql.Tx, roomID uint64, date time.Time, start, end schedule.TimeOfDay, excludeID uint64) (bool, error) {
    var exists bool
    err := tx.QueryRowContext(ctx,
        `SELECT EXISTS(
            SELECT 1 FROM reservations
            WHERE room_id = ? AND date = ? AND start_time < ? AND end_time > ? AND id <> ?
         )`,
        roomID, date.Format(dateLayout), end.String(), start.String(), excludeID).Scan(&exists)
    return exists, err
}

// CreateItemsBulkTx inserts the reservation's line items in one statement.
// Passing an empty slice has no effect and returns nil.
func (r *ReservationRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, reservationID uint64, items []model.ReservationItem) error {
    if len(items) == 0 {
        return nil
    }
    query := `INSERT INTO reservation_items (reservation_id, material_id, quantity) VALUES `
    args := make([]interface{}, 0, len(items)*3)
    for i, it := range items {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, reservationID, it.MaterialID, it.Quantity)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ItemsTx returns the reservation's line items inside the transaction.
func (r *ReservationRepo) ItemsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]model.ReservationItem, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT id, reservation_id, material_id, quantity FROM reservation_items WHERE reservation_id = ?`,
        reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var items []model.ReservationItem
    for rows.Next() {
        var it model.ReservationItem
        if err := rows.Scan(&it.ID, &it.ReservationID, &it.MaterialID, &it.Quantity); err != nil {
            return nil, err
        }
        items = append(items, it)
    }
    return items, rows.Err()
}

// GetForUpdateTx loads a reservation by ID and locks its row for the rest
// of the transaction.  Update and delete both start here so concurrent
// mutations of the same reservation serialize.  Returns ErrNotFound when
// the reservation does not exist.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
    var (
        res        model.Reservation
        start, end []byte
    )
    err := tx.QueryRowContext(ctx,
        `SELECT id, room_id, user_id, date, start_time, end_time, created_at
         FROM reservations WHERE id = ? FOR UPDATE`, id).
        Scan(&res.ID, &res.RoomID, &res.UserID, &res.Date, &start, &end, &res.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Reservation{}, ErrNotFound
    }
    if err != nil {
        return model.Reservation{}, err
    }
    if res.StartTime, err = scanTimeOfDay(start); err != nil {
        return model.Reservation{}, err
    }
    if res.EndTime, err = scanTimeOfDay(end); err != nil {
        return model.Reservation{}, err
    }
    return res, nil
}

// UpdateTx rewrites the reservation's own fields (room, date, span).
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE reservations SET room_id = ?, date = ?, start_time = ?, end_time = ? WHERE id = ?`,
        res.RoomID, res.Date.Format(dateLayout), res.StartTime.String(), res.EndTime.String(), res.ID)
    return err
}

// DeleteItemsTx removes all line items of a reservation, used by update to
// replace the item set after the ledger deltas have been applied.
func (r *ReservationRepo) DeleteItemsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM reservation_items WHERE reservation_id = ?`, reservationID)
    return err
}

// DeleteTx removes the reservation row; items cascade via the schema's
// foreign key.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListOverlappingSpanTx returns, with their line items, all reservations
// whose full datetime span overlaps [start, end), locked FOR UPDATE so the
// blackout cascade can cancel them without racing concurrent edits.  A nil
// roomID matches every room (global blackout).
func (r *ReservationRepo) ListOverlappingSpanTx(ctx context.Context, tx *sql.Tx, roomID *uint64, start, end time.Time) ([]model.Reservation, error) {
    q := `SELECT id, room_id, user_id, date, start_time, end_time, created_at
          FROM reservations
          WHERE TIMESTAMP(date, start_time) < ? AND TIMESTAMP(date, end_time) > ?`
    args := []interface{}{end.UTC().Format("2006-01-02 15:04:05"), start.UTC().Format("2006-01-02 15:04:05")}
    if roomID != nil {
        q += ` AND room_id = ?`
        args = append(args, *roomID)
    }
    q += ` ORDER BY id FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Reservation
    for rows.Next() {
        var (
            res    model.Reservation
            st, en []byte
        )
        if err := rows.Scan(&res.ID, &res.RoomID, &res.UserID, &res.Date, &st, &en, &res.CreatedAt); err != nil {
            return nil, err
        }
        if res.StartTime, err = scanTimeOfDay(st); err != nil {
            return nil, err
        }
        if res.EndTime, err = scanTimeOfDay(en); err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for i := range out {
        items, err := r.ItemsTx(ctx, tx, out[i].ID)
        if err != nil {
            return nil, err
        }
        out[i].Items = items
    }
    return out, nil
}

// ReservationDetail is the listing view of a reservation with its room
// code, owner and item lines resolved for display.
type ReservationDetail struct {
    ID        uint64  `json:"id"`
    RoomID    uint64  `json:"room_id"`
    RoomCode  string  `json:"room_code"`
    UserID    *uint64 `json:"user_id,omitempty"`
    Username  *string `json:"username,omitempty"`
    Date      string  `json:"date"`
    StartTime string  `json:"start_time"`
    EndTime   string  `json:"end_time"`
    CreatedAt string  `json:"created_at"`
    Items     []struct {
        MaterialID   uint64 `json:"material_id"`
        MaterialName string `json:"material_name"`
        Quantity     uint32 `json:"quantity"`
    } `json:"items"`
}

// ListDetails returns reservations newest-slot-first.  When userID is
// non-nil only that user's reservations are returned; admins pass nil to
// see everything.  Items are resolved in a second query keyed by the
// collected IDs, mirroring how listings avoid per-row item queries.
func (r *ReservationRepo) ListDetails(ctx context.Context, userID *uint64) ([]ReservationDetail, error) {
    q := `SELECT res.id, res.room_id, ro.code, res.user_id, u.username,
                 res.date, res.start_time, res.end_time, res.created_at
          FROM reservations res
          JOIN rooms ro ON ro.id = res.room_id
          LEFT JOIN users u ON u.id = res.user_id`
    args := []interface{}{}
    if userID != nil {
        q += ` WHERE res.user_id = ?`
        args = append(args, *userID)
    }
    q += ` ORDER BY res.date DESC, res.start_time DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ReservationDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var (
            d         ReservationDetail
            username  sql.NullString
            date      time.Time
            st, en    []byte
            createdAt time.Time
        )
        if err := rows.Scan(&d.ID, &d.RoomID, &d.RoomCode, &d.UserID, &username, &date, &st, &en, &createdAt); err != nil {
            return nil, err
        }
        if username.Valid {
            name := username.String
            d.Username = &name
        }
        d.Date = date.Format(dateLayout)
        d.StartTime = string(st)
        d.EndTime = string(en)
        d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        d.Items = []struct {
            MaterialID   uint64 `json:"material_id"`
            MaterialName string `json:"material_name"`
            Quantity     uint32 `json:"quantity"`
        }{}
        index[d.ID] = len(details)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    ids := make([]interface{}, 0, len(details))
    placeholders := make([]string, 0, len(details))
    for _, d := range details {
        ids = append(ids, d.ID)
        placeholders = append(placeholders, "?")
    }
    itemQ := `SELECT it.reservation_id, it.material_id, m.name, it.quantity
              FROM reservation_items it
              JOIN materials m ON m.id = it.material_id
              WHERE it.reservation_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY it.reservation_id, m.name`
    irows, err := r.db.QueryContext(ctx, itemQ, ids...)
    if err != nil {
        return nil, err
    }
    defer irows.Close()
    for irows.Next() {
        var (
            rid, mid uint64
            name     string
            qty      uint32
        )
        if err := irows.Scan(&rid, &mid, &name, &qty); err != nil {
            return nil, err
        }
        idx, ok := index[rid]
        if !ok {
            continue
        }
        details[idx].Items = append(details[idx].Items, struct {
            MaterialID   uint64 `json:"material_id"`
            MaterialName string `json:"material_name"`
            Quantity     uint32 `json:"quantity"`
        }{MaterialID: mid, MaterialName: name, Quantity: qty})
    }
    return details, irows.Err()
}

// RoomUsage is one row of the per-room reservation count report.
type RoomUsage struct {
    RoomCode string `json:"room_code"`
    Count    uint64 `json:"reservation_count"`
}

// MaterialUsage is one row of the requested-material totals report.
type MaterialUsage struct {
    MaterialName string `json:"material_name"`
    Total        uint64 `json:"total_quantity"`
}

// CountByRoom aggregates reservation counts per room over the inclusive
// date range, optionally filtered to one room.  Pure read used by the
// reporting endpoints.
func (r *ReservationRepo) CountByRoom(ctx context.Context, from, to time.Time, roomID *uint64) ([]RoomUsage, error) {
    q := `SELECT ro.code, COUNT(res.id)
          FROM reservations res
          JOIN rooms ro ON ro.id = res.room_id
          WHERE res.date >= ? AND res.date <= ?`
    args := []interface{}{from.Format(dateLayout), to.Format(dateLayout)}
    if roomID != nil {
        q += ` AND res.room_id = ?`
        args = append(args, *roomID)
    }
    q += ` GROUP BY ro.code ORDER BY ro.code`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]RoomUsage, 0)
    for rows.Next() {
        var u RoomUsage
        if err := rows.Scan(&u.RoomCode, &u.Count); err != nil {
            return nil, err
        }
        out = append(out, u)
    }
    return out, rows.Err()
}

// MaterialTotals sums requested quantities per material over the inclusive
// date range, optionally filtered to one room.
func (r *ReservationRepo) MaterialTotals(ctx context.Context, from, to time.Time, roomID *uint64) ([]MaterialUsage, error) {
    q := `SELECT m.name, COALESCE(SUM(it.quantity), 0)
          FROM reservation_items it
          JOIN materials m ON m.id = it.material_id
          JOIN reservations res ON res.id = it.reservation_id
          WHERE res.date >= ? AND res.date <= ?`
    args := []interface{}{from.Format(dateLayout), to.Format(dateLayout)}
    if roomID != nil {
        q += ` AND res.room_id = ?`
        args = append(args, *roomID)
    }
    q += ` GROUP BY m.name ORDER BY m.name`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]MaterialUsage, 0)
    for rows.Next() {
        var u MaterialUsage
        if err := rows.Scan(&u.MaterialName, &u.Total); err != nil {
            return nil, err
        }
        out = append(out, u)
    }
    return out, rows.Err()
}
