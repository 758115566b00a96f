// Package postgres implements the identity repository using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"accounts/internal/domain"
)

var _ domain.IdentityRepository = (*DB)(nil)

const identityColumns = "id, name, username, email, password_hash, role, recovery_code, recovery_expiry, created_at"

func scanIdentity(row *sql.Row) (*domain.Identity, error) {
	var (
		i      domain.Identity
		code   sql.NullString
		expiry sql.NullTime
	)
	err := row.Scan(&i.ID, &i.Name, &i.Username, &i.Email, &i.PasswordHash, &i.Role, &code, &expiry, &i.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Wrap(domain.KindDependency, "querying identity", err)
	}
	i.RecoveryCode = code.String
	if expiry.Valid {
		t := expiry.Time
		i.RecoveryExpiry = &t
	}
	return &i, nil
}

// FindByLogin retrieves an identity by username or email.
func (d *DB) FindByLogin(ctx context.Context, usernameOrEmail string) (*domain.Identity, error) {
	return scanIdentity(d.sql.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE username = $1 OR email = $1",
		usernameOrEmail,
	))
}

// FindByID retrieves an identity by id.
func (d *DB) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return scanIdentity(d.sql.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE id = $1",
		id,
	))
}

// Create inserts a new identity. A username or email collision surfaces
// KindConflict.
func (d *DB) Create(ctx context.Context, identity *domain.Identity) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO identities (id, name, username, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		identity.ID, identity.Name, identity.Username, identity.Email, identity.PasswordHash, identity.Role, identity.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.E(domain.KindConflict, "username or email already in use")
		}
		return domain.Wrap(domain.KindDependency, "creating identity", err)
	}
	return nil
}

// List returns every identity ordered by creation time.
func (d *DB) List(ctx context.Context) ([]domain.Identity, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+identityColumns+" FROM identities ORDER BY created_at",
	)
	if err != nil {
		return nil, domain.Wrap(domain.KindDependency, "listing identities", err)
	}
	defer rows.Close()

	var out []domain.Identity
	for rows.Next() {
		var (
			i      domain.Identity
			code   sql.NullString
			expiry sql.NullTime
		)
		if err := rows.Scan(&i.ID, &i.Name, &i.Username, &i.Email, &i.PasswordHash, &i.Role, &code, &expiry, &i.CreatedAt); err != nil {
			return nil, domain.Wrap(domain.KindDependency, "scanning identity", err)
		}
		i.RecoveryCode = code.String
		if expiry.Valid {
			t := expiry.Time
			i.RecoveryExpiry = &t
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindDependency, "listing identities", err)
	}
	return out, nil
}

// Count returns the total number of identities.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, domain.Wrap(domain.KindDependency, "counting identities", err)
	}
	return count, nil
}

// UpdateCredential replaces the credential hash for username.
func (d *DB) UpdateCredential(ctx context.Context, username, passwordHash string) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE identities SET password_hash = $2 WHERE username = $1",
		username, passwordHash,
	)
	if err != nil {
		return domain.Wrap(domain.KindDependency, "updating credential", err)
	}
	return requireRow(res, "no matching identity")
}

// SetRecovery stores a fresh recovery code and its expiry, replacing any
// open cycle for the identity.
func (d *DB) SetRecovery(ctx context.Context, username, code string, expiry time.Time) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE identities SET recovery_code = $2, recovery_expiry = $3 WHERE username = $1",
		username, code, expiry,
	)
	if err != nil {
		return domain.Wrap(domain.KindDependency, "storing recovery code", err)
	}
	return requireRow(res, "no matching identity")
}

// ConsumeRecovery replaces the credential and clears the recovery fields
// in one statement, guarded by the cycle still being open at now. Zero
// rows means the cycle expired or a concurrent completion won.
func (d *DB) ConsumeRecovery(ctx context.Context, username, passwordHash string, now time.Time) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE identities SET password_hash = $2, recovery_code = NULL, recovery_expiry = NULL WHERE username = $1 AND recovery_code IS NOT NULL AND recovery_expiry > $3",
		username, passwordHash, now,
	)
	if err != nil {
		return domain.Wrap(domain.KindDependency, "completing recovery", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Wrap(domain.KindDependency, "completing recovery", err)
	}
	if n == 0 {
		return domain.E(domain.KindConflict, "recovery cycle is no longer open")
	}
	return nil
}

// UpdateRole changes the role for username.
func (d *DB) UpdateRole(ctx context.Context, username string, role domain.Role) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE identities SET role = $2 WHERE username = $1",
		username, role,
	)
	if err != nil {
		return domain.Wrap(domain.KindDependency, "updating role", err)
	}
	return requireRow(res, "no matching identity")
}

// Delete removes the identity with id.
func (d *DB) Delete(ctx context.Context, id string) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM identities WHERE id = $1", id)
	if err != nil {
		return domain.Wrap(domain.KindDependency, "deleting identity", err)
	}
	return requireRow(res, "no matching identity")
}

func requireRow(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Wrap(domain.KindDependency, "checking affected rows", err)
	}
	if n == 0 {
		return domain.E(domain.KindNotFound, msg)
	}
	return nil
}
