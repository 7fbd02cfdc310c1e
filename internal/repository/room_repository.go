package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/salones-cra/booking-api/internal/model"
)

// RoomRepo provides CRUD operations for rooms.  Rooms are tiny records (a
// one-letter code) but their rows double as the serialization point for
// concurrent bookings: every reservation transaction locks the room row
// before running its overlap checks, so two creates for the same room
// cannot both pass the check and commit.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// Create inserts a room with the given one-letter code and returns its ID.
// Codes are normalized to upper case.  A duplicate code yields ErrConflict.
func (r *RoomRepo) Create(ctx context.Context, code string) (uint64, error) {
    code = strings.ToUpper(strings.TrimSpace(code))
    res, err := r.db.ExecContext(ctx, `INSERT INTO rooms (code) VALUES (?)`, code)
    if err != nil {
        // 1062 = MySQL duplicate entry
        if strings.Contains(err.Error(), "1062") {
            return 0, ErrConflict
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByID fetches a room by primary key.  Returns ErrNotFound when absent.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
    var room model.Room
    err := r.db.QueryRowContext(ctx,
        `SELECT id, code, created_at FROM rooms WHERE id = ?`, id).
        Scan(&room.ID, &room.Code, &room.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Room{}, ErrNotFound
    }
    return room, err
}

// List returns all rooms ordered by code.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT id, code, created_at FROM rooms ORDER BY code`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Room, 0)
    for rows.Next() {
        var room model.Room
        if err := rows.Scan(&room.ID, &room.Code, &room.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, room)
    }
    return out, rows.Err()
}

// Delete removes a room.  Inventory, reservations and blackouts referencing
// it are removed by the schema's ON DELETE CASCADE.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// LockTx takes a row lock on the room inside the given transaction and
// returns its code.  All reservation writes for a room funnel through this
// lock before their overlap checks run, closing the check-then-insert race
// between concurrent requests.  Returns ErrNotFound when the room does not
// exist.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (string, error) {
    var code string
    err := tx.QueryRowContext(ctx, `SELECT code FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&code)
    if errors.Is(err, sql.ErrNoRows) {
        return "", ErrNotFound
    }
    return code, err
}
