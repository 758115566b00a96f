package adapthttp

import (
	"net/http"
	"time"

	"accounts/internal/app"
	"accounts/internal/domain"
)

// identityResponse is the caller-facing view of an identity. The
// credential hash and recovery fields never leave the service boundary.
type identityResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toIdentityResponse(i *domain.Identity) identityResponse {
	return identityResponse{
		ID:        i.ID,
		Name:      i.Name,
		Username:  i.Username,
		Email:     i.Email,
		Role:      i.Role,
		CreatedAt: i.CreatedAt,
	}
}

// handleSetup creates the first account as an admin. It only works while
// the store is empty; after that, registration requires an admin session.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}

	identity, err := s.auth.RegisterInitialAdmin(r.Context(), app.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": toIdentityResponse(identity)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}

	session, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.cookies.Attach(w, session.Token, session.TTL)
	writeJSON(w, http.StatusOK, map[string]any{"user": session.Principal})
}

// handleLogout clears the session credential. It succeeds whether or not
// a session was present, so repeated logouts are harmless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.cookies.Detach(w)
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

// handleProtected echoes the authenticated principal. It doubles as a
// session probe for clients.
func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeDomainError(w, domain.E(domain.KindUnauthenticated, "not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": principal})
}
