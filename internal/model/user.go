package model

import (
    "strings"
    "time"
)

// Role is the closed set of account roles.  The value is stored as-is in
// the users table and carried in the "role" claim of session tokens.
type Role string

const (
    RoleCitizen Role = "citizen" // default role for self-registered users
    RoleAdmin   Role = "admin"   // may list every complaint and change status
)

// ParseRole converts untrusted input into a Role.  Matching is
// case-insensitive; any surrounding whitespace makes the value invalid.
func ParseRole(s string) (Role, bool) {
    switch Role(strings.ToLower(s)) {
    case RoleCitizen:
        return RoleCitizen, true
    case RoleAdmin:
        return RoleAdmin, true
    }
    return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    return r == RoleCitizen || r == RoleAdmin
}

// User represents an account as stored by the credential store.
//
// Fields:
//  ID           – store generated identifier (decimal, ObjectID hex or UUID).
//  Name         – display name, trimmed.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash; the raw secret is never kept.
//  Role         – citizen or admin.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string
    Name         string
    Email        string
    PasswordHash string
    Role         Role
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// PublicUser is the projection of a User that may leave the service.
type PublicUser struct {
    ID    string `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email"`
    Role  Role   `json:"role"`
}

// Public strips the password hash and timestamps.
func (u User) Public() PublicUser {
    return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// NormalizeEmail returns the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
    return strings.ToLower(strings.TrimSpace(email))
}
