package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"policy-advisor/pkg/analyzer"
	"policy-advisor/pkg/auth"
	"policy-advisor/pkg/store"
)

// apiError is the envelope body for failed requests.
type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"error": apiError{Code: code, Message: message, Details: details},
	})
}

// writeGenerateError maps pipeline failures onto the error envelope. The
// handler owns the NOT_FOUND wording because it knows which lookup missed.
func writeGenerateError(w http.ResponseWriter, err error) {
	var (
		vErr       *store.ValidationError
		timeoutErr *analyzer.TimeoutError
		exitErr    *analyzer.ExitError
		spawnErr   *analyzer.SpawnError
	)
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Missing or invalid flow_ids array", nil)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No flows found with provided IDs", nil)
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusConflict, "DUPLICATE_NAME", "A policy with this name already exists", nil)
	case errors.As(err, &timeoutErr):
		writeError(w, http.StatusInternalServerError, "ANALYZER_TIMEOUT", timeoutErr.Error(), nil)
	case errors.As(err, &exitErr):
		writeError(w, http.StatusInternalServerError, "ANALYZER_FAILED", "Analyzer execution failed", exitErr.Detail)
	case errors.As(err, &spawnErr):
		writeError(w, http.StatusInternalServerError, "SPAWN_ERROR", "Failed to spawn analyzer process", spawnErr.Err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

// AuthFunc admits every request when token is empty; otherwise it accepts
// the shared bootstrap token or a valid JWT as a bearer credential.
func AuthFunc(token string) func(r *http.Request) bool {
	if token == "" {
		return func(_ *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		h := r.Header.Get("X-Auth-Token")
		if h == "" {
			authz := r.Header.Get("Authorization")
			if strings.HasPrefix(authz, "Bearer ") {
				h = strings.TrimPrefix(authz, "Bearer ")
			}
		}
		if h == token {
			return true
		}
		_, err := auth.Parse(h)
		return err == nil
	}
}
