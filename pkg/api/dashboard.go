package api

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"policy-advisor/pkg/model"
)

// RegisterDashboardRoutes wires the aggregate-counters endpoint. Pure
// read-through queries with no invariants of their own.
func RegisterDashboardRoutes(mux *http.ServeMux, db *gorm.DB, auth func(r *http.Request) bool) {
	mux.HandleFunc("/api/dashboard/metrics", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var totalFlows, totalPolicies, flowsLast24h, policiesLast24h int64
		cutoff := time.Now().Add(-24 * time.Hour)
		for _, c := range []struct {
			dst   *int64
			model interface{}
			since bool
		}{
			{&totalFlows, &model.Flow{}, false},
			{&totalPolicies, &model.Policy{}, false},
			{&flowsLast24h, &model.Flow{}, true},
			{&policiesLast24h, &model.Policy{}, true},
		} {
			q := db.Model(c.model)
			if c.since {
				q = q.Where("created_at >= ?", cutoff)
			}
			if err := q.Count(c.dst).Error; err != nil {
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"metrics": map[string]interface{}{
				"totalFlows":    totalFlows,
				"totalPolicies": totalPolicies,
				"recentActivity": map[string]interface{}{
					"flowsLast24h":    flowsLast24h,
					"policiesLast24h": policiesLast24h,
				},
			},
		})
	})
}
