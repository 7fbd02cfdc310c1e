package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/salones-cra/booking-api/internal/model"
    "github.com/salones-cra/booking-api/internal/utils"
)

// UserRepo persists application accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrUserExists is returned when the username or email is already taken.
var ErrUserExists = errors.New("username or email already exists")

// Create inserts a user with a bcrypt-hashed password and returns its ID.
// Email is normalized to lower case.  Role must be model.RoleAdmin or
// model.RoleTeacher.
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
    username = strings.TrimSpace(username)
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        `INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)`,
        username, email, hash, role)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrUserExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    var u model.User
    err := r.DB.QueryRowContext(ctx,
        `SELECT id, username, email, password_hash, role, is_active, created_at, updated_at
         FROM users WHERE email = ? LIMIT 1`, email).
        Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    var u model.User
    err := r.DB.QueryRowContext(ctx,
        `SELECT id, username, email, password_hash, role, is_active, created_at, updated_at
         FROM users WHERE id = ? LIMIT 1`, id).
        Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// UsernameTx resolves a user's display name inside a transaction; used
// when tagging shadow blackouts.  Returns ErrNotFound for unknown IDs.
func (r *UserRepo) UsernameTx(ctx context.Context, tx *sql.Tx, id uint64) (string, error) {
    var name string
    err := tx.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, id).Scan(&name)
    if errors.Is(err, sql.ErrNoRows) {
        return "", ErrNotFound
    }
    return name, err
}
