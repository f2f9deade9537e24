package model

import (
    "strings"
    "time"
)

// Role is the closed set of principals recognised by the service. It is
// resolved once at the authentication boundary and carried explicitly.
type Role string

const (
    RoleClient   Role = "client"
    RoleOperator Role = "operator"
    RoleAdmin    Role = "admin"
)

// ParseRole maps a stored or claimed role name to a Role.
func ParseRole(s string) (Role, bool) {
    switch Role(strings.ToLower(strings.TrimSpace(s))) {
    case RoleClient:
        return RoleClient, true
    case RoleOperator:
        return RoleOperator, true
    case RoleAdmin:
        return RoleAdmin, true
    }
    return "", false
}

// IsStaff reports whether the role manages the restaurant. Staff are not
// subject to the client modification cutoff.
func (r Role) IsStaff() bool {
    return r == RoleOperator || r == RoleAdmin
}

// User is an account that can authenticate against the API.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased login.
//  PasswordHash – bcrypt hash.
//  Role         – client, operator or admin.
//  IsActive     – inactive users cannot log in.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
}
