// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"

	"accounts/internal/app"
	"accounts/internal/domain"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	recovery *app.RecoveryService
	tokens   *app.TokenService
	cookies  *CookieManager
	log      *slog.Logger
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, recovery *app.RecoveryService, tokens *app.TokenService, cookies *CookieManager, log *slog.Logger) *Server {
	return &Server{auth: auth, recovery: recovery, tokens: tokens, cookies: cookies, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	// Unauthenticated surface.
	api.HandleFunc("/setup", s.handleSetup)
	api.HandleFunc("/login", s.handleLogin)
	api.HandleFunc("/logout", s.handleLogout)

	// Recovery flow; guarded by the recovery session, not the session token.
	api.HandleFunc("/forgot", s.handleForgot)
	api.HandleFunc("/recover", s.handleRecover)
	api.HandleFunc("/update", s.handleRecoveryUpdate)

	// Authenticated surface.
	api.Handle("/protected", s.authenticate(http.HandlerFunc(s.handleProtected)))
	api.Handle("/update-password", s.authenticate(http.HandlerFunc(s.handleChangePassword)))

	// Admin surface.
	admin := func(h http.HandlerFunc) http.Handler {
		return s.authenticate(s.requireRole(domain.RoleAdmin, h))
	}
	api.Handle("/register", admin(s.handleRegister))
	api.Handle("/users", admin(s.handleListUsers))
	api.Handle("/users/", admin(s.handleDeleteUser))
	api.Handle("/update-role", admin(s.handleUpdateRole))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(root)
}
