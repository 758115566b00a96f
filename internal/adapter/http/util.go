package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"accounts/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func statusFromKind(k domain.Kind) int {
	switch k {
	case domain.KindValidation, domain.KindInvalidCode:
		return http.StatusBadRequest
	case domain.KindUnauthenticated, domain.KindInvalidCredential:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindExpiredCode:
		return http.StatusGone
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError maps a tagged error to a status code and a caller-safe
// message. Internal causes and anything outside the taxonomy stay out of
// the response body.
func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	msg := "internal error"
	switch kind {
	case domain.KindUnknown:
		// leave the generic message
	case domain.KindDependency:
		msg = "service unavailable"
	default:
		var de *domain.Error
		if errors.As(err, &de) {
			msg = de.Msg
		}
	}
	writeJSON(w, statusFromKind(kind), map[string]any{"error": msg})
}
