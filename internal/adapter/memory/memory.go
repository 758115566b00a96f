// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"accounts/internal/domain"
)

// DB implements an in-memory identity store.
type DB struct {
	mu         sync.Mutex
	identities []*domain.Identity
}

// New creates a new in-memory store.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.IdentityRepository = (*DB)(nil)

// clone returns a copy so callers never share memory with the store.
func clone(i *domain.Identity) *domain.Identity {
	c := *i
	if i.RecoveryExpiry != nil {
		t := *i.RecoveryExpiry
		c.RecoveryExpiry = &t
	}
	return &c
}

func (db *DB) findLocked(usernameOrEmail string) *domain.Identity {
	for _, i := range db.identities {
		if i.Username == usernameOrEmail || i.Email == usernameOrEmail {
			return i
		}
	}
	return nil
}

// FindByLogin retrieves an identity by username or email.
func (db *DB) FindByLogin(ctx context.Context, usernameOrEmail string) (*domain.Identity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i := db.findLocked(usernameOrEmail); i != nil {
		return clone(i), nil
	}
	return nil, nil
}

// FindByID retrieves an identity by id.
func (db *DB) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, i := range db.identities {
		if i.ID == id {
			return clone(i), nil
		}
	}
	return nil, nil
}

// Create adds a new identity. A username or email collision surfaces
// KindConflict.
func (db *DB) Create(ctx context.Context, identity *domain.Identity) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, i := range db.identities {
		if i.Username == identity.Username || i.Email == identity.Email {
			return domain.E(domain.KindConflict, "username or email already in use")
		}
	}
	db.identities = append(db.identities, clone(identity))
	return nil
}

// List returns every identity ordered by creation time.
func (db *DB) List(ctx context.Context) ([]domain.Identity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Identity, 0, len(db.identities))
	for _, i := range db.identities {
		out = append(out, *clone(i))
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

// Count returns the total number of identities.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.identities), nil
}

// UpdateCredential replaces the credential hash for username.
func (db *DB) UpdateCredential(ctx context.Context, username, passwordHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.findLocked(username)
	if i == nil {
		return domain.E(domain.KindNotFound, "no matching identity")
	}
	i.PasswordHash = passwordHash
	return nil
}

// SetRecovery stores a fresh recovery code and its expiry, replacing any
// open cycle for the identity.
func (db *DB) SetRecovery(ctx context.Context, username, code string, expiry time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.findLocked(username)
	if i == nil {
		return domain.E(domain.KindNotFound, "no matching identity")
	}
	i.RecoveryCode = code
	t := expiry
	i.RecoveryExpiry = &t
	return nil
}

// ConsumeRecovery replaces the credential and clears the recovery fields
// as one unit, but only while the cycle is still open at now.
func (db *DB) ConsumeRecovery(ctx context.Context, username, passwordHash string, now time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.findLocked(username)
	if i == nil {
		return domain.E(domain.KindNotFound, "no matching identity")
	}
	if !i.RecoveryOpen(now) {
		return domain.E(domain.KindConflict, "recovery cycle is no longer open")
	}
	i.PasswordHash = passwordHash
	i.RecoveryCode = ""
	i.RecoveryExpiry = nil
	return nil
}

// UpdateRole changes the role for username.
func (db *DB) UpdateRole(ctx context.Context, username string, role domain.Role) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.findLocked(username)
	if i == nil {
		return domain.E(domain.KindNotFound, "no matching identity")
	}
	i.Role = role
	return nil
}

// Delete removes the identity with id.
func (db *DB) Delete(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for idx, i := range db.identities {
		if i.ID == id {
			db.identities = append(db.identities[:idx], db.identities[idx+1:]...)
			return nil
		}
	}
	return domain.E(domain.KindNotFound, "no matching identity")
}
