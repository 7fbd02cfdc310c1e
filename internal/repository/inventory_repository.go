package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
)

// InventoryRepo is the stock ledger: one quantity per (room, material)
// pair.  The transactional operations (ConsumeTx, RestoreTx, ApplyDeltaTx)
// lock the ledger row with SELECT ... FOR UPDATE for the whole
// check-then-write, so two concurrent reservations for the same room and
// material cannot both observe sufficient stock and over-commit it.  A
// missing ledger row is a data-integrity error and reported as an
// insufficient-stock failure, never created on the fly.
type InventoryRepo struct {
    db *sql.DB
}

// NewInventoryRepo returns an InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// lockQuantityTx reads the ledger quantity for the pair under a row lock
// held until the transaction ends.  found is false when no ledger row
// exists for the pair.
func (r *InventoryRepo) lockQuantityTx(ctx context.Context, tx *sql.Tx, roomID, materialID uint64) (qty int64, found bool, err error) {
    err = tx.QueryRowContext(ctx,
        `SELECT quantity FROM room_inventory WHERE room_id = ? AND material_id = ? FOR UPDATE`,
        roomID, materialID).Scan(&qty)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, false, nil
    }
    if err != nil {
        return 0, false, err
    }
    return qty, true, nil
}

// stockErrTx builds a StockError for the pair, resolving the room code and
// material name inside the same transaction so the caller's eventual
// rollback does not affect the lookup.  Lookup failures are ignored; the
// IDs alone still identify the pair.
func (r *InventoryRepo) stockErrTx(ctx context.Context, tx *sql.Tx, roomID, materialID uint64) error {
    se := &StockError{RoomID: roomID, MaterialID: materialID}
    _ = tx.QueryRowContext(ctx, `SELECT code FROM rooms WHERE id = ?`, roomID).Scan(&se.RoomCode)
    _ = tx.QueryRowContext(ctx, `SELECT name FROM materials WHERE id = ?`, materialID).Scan(&se.MaterialName)
    return se
}

// ConsumeTx withdraws qty units from the pair's ledger row.  It fails with
// a StockError (matching ErrInsufficientStock) when the row is missing or
// holds fewer than qty units; the caller must roll back the transaction.
func (r *InventoryRepo) ConsumeTx(ctx context.Context, tx *sql.Tx, roomID, materialID uint64, qty uint32) error {
    current, found, err := r.lockQuantityTx(ctx, tx, roomID, materialID)
    if err != nil {
        return err
    }
    if !found || current < int64(qty) {
        return r.stockErrTx(ctx, tx, roomID, materialID)
    }
    _, err = tx.ExecContext(ctx,
        `UPDATE room_inventory SET quantity = quantity - ? WHERE room_id = ? AND material_id = ?`,
        qty, roomID, materialID)
    return err
}

// RestoreTx returns qty units to the pair's ledger row.  Used when a
// reservation is edited down, deleted, or cascade-cancelled by a blackout.
// A missing row is still an integrity error: stock that was withdrawn must
// have somewhere to go back to.
func (r *InventoryRepo) RestoreTx(ctx context.Context, tx *sql.Tx, roomID, materialID uint64, qty uint32) error {
    _, found, err := r.lockQuantityTx(ctx, tx, roomID, materialID)
    if err != nil {
        return err
    }
    if !found {
        return r.stockErrTx(ctx, tx, roomID, materialID)
    }
    _, err = tx.ExecContext(ctx,
        `UPDATE room_inventory SET quantity = quantity + ? WHERE room_id = ? AND material_id = ?`,
        qty, roomID, materialID)
    return err
}

// ApplyDeltaTx is the generalized form used by reservation updates.  A
// positive delta consumes more stock, a negative one returns some.  The new
// quantity is current - delta; when that would go negative the operation
// fails with a StockError and the caller must roll back.
func (r *InventoryRepo) ApplyDeltaTx(ctx context.Context, tx *sql.Tx, roomID, materialID uint64, delta int64) error {
    if delta == 0 {
        return nil
    }
    current, found, err := r.lockQuantityTx(ctx, tx, roomID, materialID)
    if err != nil {
        return err
    }
    if !found {
        return r.stockErrTx(ctx, tx, roomID, materialID)
    }
    newQty := current - delta
    if newQty < 0 {
        return r.stockErrTx(ctx, tx, roomID, materialID)
    }
    _, err = tx.ExecContext(ctx,
        `UPDATE room_inventory SET quantity = ? WHERE room_id = ? AND material_id = ?`,
        newQty, roomID, materialID)
    return err
}

// InventoryRow is the admin-facing view of a ledger row, joined with the
// room code and material name for display.
type InventoryRow struct {
    ID           uint64 `json:"id"`
    RoomID       uint64 `json:"room_id"`
    RoomCode     string `json:"room_code"`
    MaterialID   uint64 `json:"material_id"`
    MaterialName string `json:"material_name"`
    Quantity     uint32 `json:"quantity"`
}

// Create inserts a new ledger row.  The (room, material) pair is unique;
// attempting to create a second row for the same pair yields ErrConflict.
// A nonexistent room or material surfaces as ErrNotFound via the foreign
// key check.
func (r *InventoryRepo) Create(ctx context.Context, roomID, materialID uint64, quantity uint32) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO room_inventory (room_id, material_id, quantity) VALUES (?, ?, ?)`,
        roomID, materialID, quantity)
    if err != nil {
        msg := err.Error()
        if strings.Contains(msg, "1062") {
            return 0, ErrConflict
        }
        // 1452 = MySQL foreign key constraint fails
        if strings.Contains(msg, "1452") {
            return 0, ErrNotFound
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByID fetches a single ledger row with its joined names.
func (r *InventoryRepo) GetByID(ctx context.Context, id uint64) (InventoryRow, error) {
    var row InventoryRow
    err := r.db.QueryRowContext(ctx,
        `SELECT i.id, i.room_id, ro.code, i.material_id, m.name, i.quantity
         FROM room_inventory i
         JOIN rooms ro ON ro.id = i.room_id
         JOIN materials m ON m.id = i.material_id
         WHERE i.id = ?`, id).
        Scan(&row.ID, &row.RoomID, &row.RoomCode, &row.MaterialID, &row.MaterialName, &row.Quantity)
    if errors.Is(err, sql.ErrNoRows) {
        return InventoryRow{}, ErrNotFound
    }
    return row, err
}

// List returns all ledger rows ordered by room code then material name,
// optionally filtered to one room.
func (r *InventoryRepo) List(ctx context.Context, roomID *uint64) ([]InventoryRow, error) {
    q := `SELECT i.id, i.room_id, ro.code, i.material_id, m.name, i.quantity
          FROM room_inventory i
          JOIN rooms ro ON ro.id = i.room_id
          JOIN materials m ON m.id = i.material_id`
    args := []interface{}{}
    if roomID != nil {
        q += ` WHERE i.room_id = ?`
        args = append(args, *roomID)
    }
    q += ` ORDER BY ro.code, m.name`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]InventoryRow, 0)
    for rows.Next() {
        var row InventoryRow
        if err := rows.Scan(&row.ID, &row.RoomID, &row.RoomCode, &row.MaterialID, &row.MaterialName, &row.Quantity); err != nil {
            return nil, err
        }
        out = append(out, row)
    }
    return out, rows.Err()
}

// Adjust applies an administrative stock correction to a ledger row by
// primary key.  Action is "add", "remove" or "set"; "remove" refuses to
// drive the quantity negative and returns a StockError instead.  The
// read-then-write runs under the same row lock as the booking operations
// so corrections cannot race with reservations.
func (r *InventoryRepo) Adjust(ctx context.Context, id uint64, action string, quantity uint32) (uint32, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    var roomID, materialID uint64
    var current int64
    err = tx.QueryRowContext(ctx,
        `SELECT room_id, material_id, quantity FROM room_inventory WHERE id = ? FOR UPDATE`, id).
        Scan(&roomID, &materialID, &current)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrNotFound
    }
    if err != nil {
        return 0, err
    }
    var newQty int64
    switch action {
    case "add":
        newQty = current + int64(quantity)
    case "remove":
        newQty = current - int64(quantity)
        if newQty < 0 {
            return 0, r.stockErrTx(ctx, tx, roomID, materialID)
        }
    case "set":
        newQty = int64(quantity)
    default:
        return 0, errors.New("unknown inventory action: " + action)
    }
    if _, err := tx.ExecContext(ctx, `UPDATE room_inventory SET quantity = ? WHERE id = ?`, newQty, id); err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return uint32(newQty), nil
}

// Delete removes a ledger row entirely.
func (r *InventoryRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM room_inventory WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// Quantity returns the current quantity for a pair without locking, for
// read-only displays.
func (r *InventoryRepo) Quantity(ctx context.Context, roomID, materialID uint64) (uint32, error) {
    var qty uint32
    err := r.db.QueryRowContext(ctx,
        `SELECT quantity FROM room_inventory WHERE room_id = ? AND material_id = ?`,
        roomID, materialID).Scan(&qty)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrNotFound
    }
    return qty, err
}
