package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"accounts/internal/domain"
)

// Session lifetimes. Admin principals get the shorter elevated window.
const (
	DefaultSessionTTL      = 2 * time.Hour
	DefaultAdminSessionTTL = time.Hour
)

// Session is an issued bearer session: the signed token and the lifetime
// the transport credential should carry.
type Session struct {
	Token     string
	TTL       time.Duration
	Principal domain.Principal
}

// AuthService handles registration, login, and account administration.
type AuthService struct {
	identities domain.IdentityRepository
	hasher     *Hasher
	tokens     *TokenService
	userTTL    time.Duration
	adminTTL   time.Duration
}

// NewAuthService creates an AuthService. Non-positive TTLs select the
// defaults.
func NewAuthService(identities domain.IdentityRepository, hasher *Hasher, tokens *TokenService, userTTL, adminTTL time.Duration) *AuthService {
	if userTTL <= 0 {
		userTTL = DefaultSessionTTL
	}
	if adminTTL <= 0 {
		adminTTL = DefaultAdminSessionTTL
	}
	return &AuthService{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		userTTL:    userTTL,
		adminTTL:   adminTTL,
	}
}

// RegisterInput carries the fields for a new identity.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     domain.Role
}

func (in *RegisterInput) validate() error {
	if n := len(in.Name); n < 5 || n > 100 {
		return domain.E(domain.KindValidation, "name must be 5-100 characters")
	}
	if n := len(in.Username); n < 5 || n > 20 {
		return domain.E(domain.KindValidation, "username must be 5-20 characters")
	}
	if at := strings.IndexByte(in.Email, '@'); at < 1 || at == len(in.Email)-1 {
		return domain.E(domain.KindValidation, "email must be a valid address")
	}
	if n := len(in.Password); n < 8 || n > 100 {
		return domain.E(domain.KindValidation, "password must be 8-100 characters")
	}
	if !in.Role.Valid() {
		return domain.E(domain.KindValidation, "role must be user or admin")
	}
	return nil
}

// Register creates a new identity with a freshly hashed credential.
// Usernames are case-sensitive; emails are lowercased on the way in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Identity, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// RegisterInitialAdmin creates the first account, as an admin, only while
// the store is empty. Later registrations go through Register behind the
// admin gate.
func (s *AuthService) RegisterInitialAdmin(ctx context.Context, in RegisterInput) (*domain.Identity, error) {
	count, err := s.identities.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, domain.E(domain.KindConflict, "identities already exist")
	}
	in.Role = domain.RoleAdmin
	return s.Register(ctx, in)
}

// Login verifies credentials for the identity matching identifier
// (username or email) and issues a session. A missing identity and a
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identity, err := s.identities.FindByLogin(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, err
	}
	if identity == nil || !s.hasher.Verify(password, identity.PasswordHash) {
		return nil, domain.E(domain.KindInvalidCredential, "invalid username or password")
	}

	ttl := s.userTTL
	if identity.Role == domain.RoleAdmin {
		ttl = s.adminTTL
	}

	principal := domain.Principal{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		Role:     identity.Role,
	}
	token, err := s.tokens.Issue(principal, ttl)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, TTL: ttl, Principal: principal}, nil
}

// List returns every identity. Credential hashes stay inside the service
// boundary; the HTTP adapter never echoes them.
func (s *AuthService) List(ctx context.Context) ([]domain.Identity, error) {
	return s.identities.List(ctx)
}

// UpdateRole changes an identity's role. Only the enumerated roles are
// ever persisted.
func (s *AuthService) UpdateRole(ctx context.Context, username string, role domain.Role) error {
	if !role.Valid() {
		return domain.E(domain.KindValidation, "role must be user or admin")
	}
	return s.identities.UpdateRole(ctx, username, role)
}

// Delete removes an identity entirely.
func (s *AuthService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.E(domain.KindValidation, "id is required")
	}
	return s.identities.Delete(ctx, id)
}
