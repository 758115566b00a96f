package adapthttp

import (
	"net/http"

	"accounts/internal/domain"
)

// handleForgot opens a recovery cycle: a code goes out to the account's
// email and the recovery session lands on the client as a cookie. The
// response body never carries the code.
func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}

	session, err := s.recovery.RequestRecovery(r.Context(), req.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.cookies.AttachRecovery(w, session.Token, session.TTL)
	writeJSON(w, http.StatusOK, map[string]any{"message": "recovery code sent"})
}

// handleRecover checks the submitted code against the open cycle bound
// to the recovery session and, on success, upgrades the session to a
// verified one covering the rest of the window.
func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := s.cookies.ReadRecovery(r)
	if token == "" {
		writeDomainError(w, domain.E(domain.KindUnauthenticated, "no recovery session"))
		return
	}

	var req struct {
		Code string `json:"recoverCode"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}

	session, err := s.recovery.VerifyCode(r.Context(), token, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.cookies.AttachRecovery(w, session.Token, session.TTL)
	writeJSON(w, http.StatusOK, map[string]any{"message": "code verified"})
}

// handleRecoveryUpdate closes a verified recovery cycle by replacing the
// credential, then drops the recovery session.
func (s *Server) handleRecoveryUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := s.cookies.ReadRecovery(r)
	if token == "" {
		writeDomainError(w, domain.E(domain.KindUnauthenticated, "no recovery session"))
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}

	if err := s.recovery.CompleteRecovery(r.Context(), token, req.Password); err != nil {
		writeDomainError(w, err)
		return
	}

	s.cookies.DetachRecovery(w)
	writeJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}

// handleChangePassword replaces the caller's own credential after proof
// of the current one. Requires an authenticated session.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := principalFrom(r.Context())
	if !ok {
		writeDomainError(w, domain.E(domain.KindUnauthenticated, "not authenticated"))
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}

	if err := s.recovery.ChangeOwnPassword(r.Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}
