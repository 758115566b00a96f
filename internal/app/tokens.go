package app

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"accounts/internal/domain"
)

// Token purposes. A session token must never authorize a recovery step
// and a recovery token must never pass as a session.
const (
	purposeSession  = "session"
	purposeRecovery = "recovery"
)

// SessionClaims is the claim set carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	Purpose  string      `json:"purpose"`
}

// RecoveryClaims is the claim set carried by a recovery-session token.
// Subject is the username the recovery attempt is bound to; Verified is
// set once the holder has presented the correct code.
type RecoveryClaims struct {
	jwt.RegisteredClaims
	Purpose  string `json:"purpose"`
	Verified bool   `json:"verified"`
}

// TokenService signs and verifies the service's bearer tokens with a
// server-held symmetric secret, read-only after startup.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret}
}

// Issue signs a session token for p with the given lifetime. Callers
// choose the TTL; ordinary and elevated sessions use different values.
func (t *TokenService) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: p.Username,
		Email:    p.Email,
		Role:     p.Role,
		Purpose:  purposeSession,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", domain.Wrap(domain.KindDependency, "signing session token", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and reconstructs the principal.
// Claims are never trusted before the signature check passes. An invalid
// or expired token always means fresh authentication; it is not refreshed.
func (t *TokenService) Verify(token string) (domain.Principal, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, t.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return domain.Principal{}, domain.Wrap(domain.KindUnauthenticated, "invalid session token", err)
	}
	if claims.Purpose != purposeSession || !claims.Role.Valid() {
		return domain.Principal{}, domain.E(domain.KindUnauthenticated, "invalid session token")
	}
	return domain.Principal{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}

// IssueRecovery signs a recovery-session token bound to username.
func (t *TokenService) IssueRecovery(username string, ttl time.Duration, verified bool) (string, error) {
	now := time.Now()
	claims := RecoveryClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose:  purposeRecovery,
		Verified: verified,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", domain.Wrap(domain.KindDependency, "signing recovery token", err)
	}
	return signed, nil
}

// VerifyRecovery checks a recovery-session token and returns the bound
// username and whether the code was already presented.
func (t *TokenService) VerifyRecovery(token string) (username string, verified bool, err error) {
	claims := &RecoveryClaims{}
	parsed, parseErr := jwt.ParseWithClaims(token, claims, t.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if parseErr != nil || !parsed.Valid {
		return "", false, domain.Wrap(domain.KindUnauthenticated, "invalid recovery session", parseErr)
	}
	if claims.Purpose != purposeRecovery || claims.Subject == "" {
		return "", false, domain.E(domain.KindUnauthenticated, "invalid recovery session")
	}
	return claims.Subject, claims.Verified, nil
}

func (t *TokenService) key(*jwt.Token) (any, error) {
	return t.secret, nil
}
