package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
	"time"

	"accounts/internal/domain"
)

// DefaultRecoveryWindow is how long an issued recovery code stays valid.
const DefaultRecoveryWindow = 10 * time.Minute

// Recovery codes are uniform six-digit values.
const (
	recoveryCodeMin  = 100000
	recoveryCodeSpan = 900000
)

// RecoverySession is the client-held credential binding one recovery
// attempt to one username between the forgot and update steps.
type RecoverySession struct {
	Token string
	TTL   time.Duration
}

// RecoveryService drives the password-recovery state machine: a code is
// issued and delivered out of band, the client proves receipt, and only
// then may it replace the credential. Expiry is enforced lazily at
// verification time; nothing sweeps codes in the background.
type RecoveryService struct {
	identities domain.IdentityRepository
	notifier   domain.Notifier
	hasher     *Hasher
	tokens     *TokenService
	window     time.Duration
	now        func() time.Time
}

// NewRecoveryService creates a RecoveryService. A non-positive window
// selects DefaultRecoveryWindow.
func NewRecoveryService(identities domain.IdentityRepository, notifier domain.Notifier, hasher *Hasher, tokens *TokenService, window time.Duration) *RecoveryService {
	if window <= 0 {
		window = DefaultRecoveryWindow
	}
	return &RecoveryService{
		identities: identities,
		notifier:   notifier,
		hasher:     hasher,
		tokens:     tokens,
		window:     window,
		now:        time.Now,
	}
}

// RequestRecovery opens a recovery cycle for the identity matching
// identifier: draws a fresh code, persists it with its expiry, hands it
// to the notifier, and returns the recovery session to set on the
// client. A delivery failure aborts the request. The session lifetime
// equals the recovery window, so the client can still present it when
// submitting the code.
func (s *RecoveryService) RequestRecovery(ctx context.Context, identifier string) (*RecoverySession, error) {
	identity, err := s.identities.FindByLogin(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, domain.E(domain.KindNotFound, "no matching identity")
	}

	code, err := generateRecoveryCode()
	if err != nil {
		return nil, domain.Wrap(domain.KindDependency, "generating recovery code", err)
	}

	expiry := s.now().Add(s.window)
	if err := s.identities.SetRecovery(ctx, identity.Username, code, expiry); err != nil {
		return nil, err
	}

	if err := s.notifier.Send(ctx, identity.Email, code); err != nil {
		return nil, domain.Wrap(domain.KindDependency, "delivering recovery code", err)
	}

	token, err := s.tokens.IssueRecovery(identity.Username, s.window, false)
	if err != nil {
		return nil, err
	}
	return &RecoverySession{Token: token, TTL: s.window}, nil
}

// VerifyCode checks submittedCode against the stored code for the
// identity bound to the recovery session. Expiry is checked before the
// comparison, so an expired-but-guessed code is still rejected. A
// successful verify does not consume the code; it returns an upgraded
// session marked verified, whose lifetime covers the rest of the window.
func (s *RecoveryService) VerifyCode(ctx context.Context, recoveryToken, submittedCode string) (*RecoverySession, error) {
	username, _, err := s.tokens.VerifyRecovery(recoveryToken)
	if err != nil {
		return nil, err
	}

	identity, err := s.identities.FindByLogin(ctx, username)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, domain.E(domain.KindNotFound, "no matching identity")
	}

	now := s.now()
	if identity.RecoveryCode == "" || identity.RecoveryExpiry == nil || now.After(*identity.RecoveryExpiry) {
		return nil, domain.E(domain.KindExpiredCode, "recovery code expired, request a new one")
	}
	if subtle.ConstantTimeCompare([]byte(identity.RecoveryCode), []byte(submittedCode)) != 1 {
		return nil, domain.E(domain.KindInvalidCode, "incorrect recovery code")
	}

	remaining := identity.RecoveryExpiry.Sub(now)
	token, err := s.tokens.IssueRecovery(username, remaining, true)
	if err != nil {
		return nil, err
	}
	return &RecoverySession{Token: token, TTL: remaining}, nil
}

// CompleteRecovery replaces the credential for the identity bound to a
// verified recovery session and closes the cycle. The credential write
// and the recovery-field clear are one atomic unit in the store; a cycle
// that expired or was consumed by a concurrent completion surfaces
// KindConflict.
func (s *RecoveryService) CompleteRecovery(ctx context.Context, recoveryToken, newSecret string) error {
	username, verified, err := s.tokens.VerifyRecovery(recoveryToken)
	if err != nil {
		return err
	}
	if !verified {
		return domain.E(domain.KindUnauthenticated, "recovery code not verified")
	}
	if n := len(newSecret); n < 8 || n > 100 {
		return domain.E(domain.KindValidation, "password must be 8-100 characters")
	}

	hash, err := s.hasher.Hash(newSecret)
	if err != nil {
		return err
	}
	return s.identities.ConsumeRecovery(ctx, username, hash, s.now())
}

// ChangeOwnPassword replaces the caller's credential after proof of the
// current one. This path never touches recovery state.
func (s *RecoveryService) ChangeOwnPassword(ctx context.Context, principal domain.Principal, currentSecret, newSecret string) error {
	if n := len(newSecret); n < 8 || n > 100 {
		return domain.E(domain.KindValidation, "password must be 8-100 characters")
	}

	identity, err := s.identities.FindByID(ctx, principal.ID)
	if err != nil {
		return err
	}
	if identity == nil {
		return domain.E(domain.KindNotFound, "no matching identity")
	}
	if !s.hasher.Verify(currentSecret, identity.PasswordHash) {
		return domain.E(domain.KindInvalidCredential, "current password is incorrect")
	}

	hash, err := s.hasher.Hash(newSecret)
	if err != nil {
		return err
	}
	return s.identities.UpdateCredential(ctx, identity.Username, hash)
}

// generateRecoveryCode draws a uniform random six-digit code in
// [100000, 999999].
func generateRecoveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(recoveryCodeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(recoveryCodeMin+n.Int64(), 10), nil
}
