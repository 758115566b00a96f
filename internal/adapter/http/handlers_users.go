package adapthttp

import (
	"net/http"
	"strings"

	"accounts/internal/app"
	"accounts/internal/domain"
)

// handleRegister creates an identity with an explicit role. The route is
// gated behind an admin session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}

	identity, err := s.auth.Register(r.Context(), app.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": toIdentityResponse(identity)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identities, err := s.auth.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	users := make([]identityResponse, 0, len(identities))
	for i := range identities {
		users = append(users, toIdentityResponse(&identities[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// handleDeleteUser removes the identity whose id trails the path.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/users/")
	if id == "" || strings.Contains(id, "/") {
		writeDomainError(w, domain.E(domain.KindValidation, "user id is required"))
		return
	}

	if err := s.auth.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "user deleted"})
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}

	if err := s.auth.UpdateRole(r.Context(), req.Username, domain.Role(req.Role)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "role updated"})
}
