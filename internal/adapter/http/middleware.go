package adapthttp

import (
	"context"
	"net/http"
	"time"

	"accounts/internal/domain"
)

type contextKey string

const principalContextKey contextKey = "principal"

// principalFrom returns the authenticated principal attached to ctx by
// the authenticate middleware.
func principalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(domain.Principal)
	return p, ok
}

// authenticate reads the session credential, verifies it, and attaches
// the principal to the request context. Failure is terminal for the
// request; the guarded handler never runs partially.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.cookies.Read(r)
		if token == "" {
			writeDomainError(w, domain.E(domain.KindUnauthenticated, "not authenticated"))
			return
		}

		principal, err := s.tokens.Verify(token)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a handler behind an exact role match.
func (s *Server) requireRole(role domain.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r.Context())
		if !ok {
			writeDomainError(w, domain.E(domain.KindUnauthenticated, "not authenticated"))
			return
		}
		if principal.Role != role {
			writeDomainError(w, domain.E(domain.KindForbidden, "insufficient role"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs method, path, status, and duration for every
// request. Bodies are never logged; they can carry secrets.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
