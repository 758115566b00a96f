// Package app holds the application services and business logic.
package app

import (
	"golang.org/x/crypto/bcrypt"

	"accounts/internal/domain"
)

// DefaultHashCost is the bcrypt work factor the credential store was
// built with.
const DefaultHashCost = 10

// Hasher performs one-way password hashing and verification.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to the
// algorithm's bounds. Zero selects DefaultHashCost.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = DefaultHashCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Hash produces a salted one-way digest of secret. Input shape is
// validated upstream; an error here means the transform itself failed.
func (h *Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", domain.Wrap(domain.KindDependency, "credential hashing failed", err)
	}
	return string(b), nil
}

// Verify reports whether secret matches digest. bcrypt compares the
// derived key in constant time.
func (h *Hasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
