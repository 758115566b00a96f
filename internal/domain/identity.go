// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Role is the authorization level of an identity. Role checks are exact
// matches; admin does not implicitly satisfy a user requirement.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the enumerated roles. No other value
// is ever persisted or trusted.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity represents one account.
type Identity struct {
	ID           string
	Name         string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	// RecoveryCode and RecoveryExpiry are set only while a recovery cycle
	// is open. An absent or past expiry makes the code invalid regardless
	// of its value.
	RecoveryCode   string
	RecoveryExpiry *time.Time
	CreatedAt      time.Time
}

// RecoveryOpen reports whether the identity holds a live recovery code at t.
func (i *Identity) RecoveryOpen(t time.Time) bool {
	return i.RecoveryCode != "" && i.RecoveryExpiry != nil && t.Before(*i.RecoveryExpiry)
}

// Principal is the claim set reconstructed from a verified session token.
// It never carries the credential hash.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// IdentityRepository defines the port for identity persistence.
//
// Lookup methods return (nil, nil) when no identity matches; errors are
// reserved for store failures, which carry KindDependency so callers can
// tell an unreachable store from a missing row.
type IdentityRepository interface {
	FindByLogin(ctx context.Context, usernameOrEmail string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	Create(ctx context.Context, identity *Identity) error
	List(ctx context.Context) ([]Identity, error)
	Count(ctx context.Context) (int, error)
	UpdateCredential(ctx context.Context, username, passwordHash string) error
	SetRecovery(ctx context.Context, username, code string, expiry time.Time) error

	// ConsumeRecovery atomically replaces the credential and clears the
	// recovery fields, but only while a recovery cycle is still open at
	// now. The check-then-write is a single unit; a closed or already
	// consumed cycle surfaces KindConflict.
	ConsumeRecovery(ctx context.Context, username, passwordHash string, now time.Time) error

	UpdateRole(ctx context.Context, username string, role Role) error
	Delete(ctx context.Context, id string) error
}

// Notifier delivers a recovery code out of band. A delivery failure must
// abort the recovery request rather than leave a code nobody received.
type Notifier interface {
	Send(ctx context.Context, email, code string) error
}
