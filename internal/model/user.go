package model

import "time"

// Role values stored in users.role and carried in the JWT "role" claim.
// The auth layer resolves a caller to exactly one of these once per
// request; the booking core never re-derives permissions, it only asks
// whether the resolved role may see all reservations.
const (
    RoleAdmin   = "ADMIN"   // library administrators (AdminBiblioteca)
    RoleTeacher = "TEACHER" // teaching staff (Docente)
)

// User represents an application account as stored in the `users` table.
// Teachers register themselves with an institutional email; admins are
// provisioned manually.  The bcrypt hash is never serialized to clients.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – display name, unique; used to tag shadow blackouts.
//  Email        – unique institutional email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – RoleAdmin or RoleTeacher.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
