package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/salones-cra/booking-api/internal/model"
)

// MaterialRepo provides CRUD operations for materials.  Deletion is
// protected: a material referenced by any reservation item cannot be
// removed, matching the ledger's expectation that every live line item can
// always be restored to an existing material.
type MaterialRepo struct {
    db *sql.DB
}

// NewMaterialRepo returns a MaterialRepo bound to the given database.
func NewMaterialRepo(db *sql.DB) *MaterialRepo { return &MaterialRepo{db: db} }

// Create inserts a material and returns its ID.  Duplicate names yield
// ErrConflict.
func (r *MaterialRepo) Create(ctx context.Context, name string) (uint64, error) {
    name = strings.TrimSpace(name)
    res, err := r.db.ExecContext(ctx, `INSERT INTO materials (name) VALUES (?)`, name)
    if err != nil {
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

// GetByID fetches a material by primary key.
func (r *MaterialRepo) GetByID(ctx context.Context, id uint64) (model.Material, error) {
    var m model.Material
    err := r.db.QueryRowContext(ctx,
        `SELECT id, name, created_at FROM materials WHERE id = ?`, id).
        Scan(&m.ID, &m.Name, &m.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Material{}, ErrNotFound
    }
    return m, err
}

// List returns all materials ordered by name.
func (r *MaterialRepo) List(ctx context.Context) ([]model.Material, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM materials ORDER BY name`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Material, 0)
    for rows.Next() {
        var m model.Material
        if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// Rename updates a material's name.
func (r *MaterialRepo) Rename(ctx context.Context, id uint64, name string) error {
    res, err := r.db.ExecContext(ctx, `UPDATE materials SET name = ? WHERE id = ?`, strings.TrimSpace(name), id)
    if err != nil {
        if strings.Contains(err.Error(), "1062") {
            return ErrConflict
        }
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// Delete removes a material unless a reservation item still references it,
// in which case ErrConflict is returned and nothing changes.  The check and
// the delete run in one transaction so a reservation created in between
// cannot orphan its line item.
func (r *MaterialRepo) Delete(ctx context.Context, id uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    var refs int
    if err := tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM reservation_items WHERE material_id = ?`, id).Scan(&refs); err != nil {
        return err
    }
    if refs > 0 {
        return ErrConflict
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
