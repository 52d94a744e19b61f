package api

import (
	"net/http"
	"strings"

	"policy-advisor/pkg/store"
)

// RegisterVersionRoutes wires version retrieval by id. Version listing for
// a policy lives under /api/policies/{id}/versions.
func RegisterVersionRoutes(mux *http.ServeMux, policies store.PolicyStore, auth func(r *http.Request) bool) {
	mux.HandleFunc("/api/versions/", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/versions/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found", nil)
			return
		}
		v, ok, err := policies.GetVersion(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Version not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"version": v})
	})
}
