package adapthttp

import (
	"net/http"
	"time"
)

// Cookie names: the session credential and the recovery-session
// credential travel in separately named fields.
const (
	sessionCookieName  = "access_token"
	recoveryCookieName = "recovery_session"
)

// CookieManager maps tokens to and from the transport credential. One
// fixed attribute set per deployment: HttpOnly, SameSite Strict, and
// Secure when the deployment runs behind TLS.
type CookieManager struct {
	secure bool
}

// NewCookieManager creates a CookieManager. secure marks cookies
// Secure-only for TLS deployments.
func NewCookieManager(secure bool) *CookieManager {
	return &CookieManager{secure: secure}
}

// Attach sets the session credential with a lifetime matching the token
// TTL.
func (c *CookieManager) Attach(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.cookie(sessionCookieName, token, int(ttl.Seconds())))
}

// Detach clears the session credential. Clearing an absent credential is
// a no-op on the client, so Detach is idempotent.
func (c *CookieManager) Detach(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(sessionCookieName, "", -1))
}

// Read extracts the raw token string, or "" when no credential is
// present. It performs no verification; that is the token service's job.
func (c *CookieManager) Read(r *http.Request) string {
	ck, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

// AttachRecovery sets the recovery-session credential.
func (c *CookieManager) AttachRecovery(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.cookie(recoveryCookieName, token, int(ttl.Seconds())))
}

// DetachRecovery clears the recovery-session credential, idempotently.
func (c *CookieManager) DetachRecovery(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(recoveryCookieName, "", -1))
}

// ReadRecovery extracts the raw recovery token, or "" when absent.
func (c *CookieManager) ReadRecovery(r *http.Request) string {
	ck, err := r.Cookie(recoveryCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c *CookieManager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	}
}
