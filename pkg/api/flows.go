package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"policy-advisor/pkg/model"
	"policy-advisor/pkg/store"
)

// RegisterFlowRoutes wires flow ingestion, query, and deletion handlers.
func RegisterFlowRoutes(mux *http.ServeMux, flows store.FlowStore, auth func(r *http.Request) bool, hub *EventHub) {
	mux.HandleFunc("/api/flows", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPost:
			handleCreateFlow(w, r, flows, hub)
		case http.MethodGet:
			handleListFlows(w, r, flows)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/flows/", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/flows/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found", nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			f, ok, err := flows.GetByID(id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
				return
			}
			if !ok {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "Flow not found", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"flow": f})
		case http.MethodDelete:
			existed, err := flows.Delete(id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
				return
			}
			if !existed {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "Flow not found", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": "Flow deleted successfully"})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func handleCreateFlow(w http.ResponseWriter, r *http.Request, flows store.FlowStore, hub *EventHub) {
	var req model.Flow
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	created, err := flows.Insert(req)
	if err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT",
				"Missing required fields: timestamp, source_namespace, destination_namespace", vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
		return
	}
	hub.Broadcast(Event{Type: "flow_created", Payload: created})
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Flow created successfully",
		"flow":    created,
	})
}

func handleListFlows(w http.ResponseWriter, r *http.Request, flows store.FlowStore) {
	q := r.URL.Query()
	filter := store.FlowFilter{Namespace: q.Get("namespace")}
	if v := q.Get("port"); v != "" {
		filter.Port, _ = strconv.Atoi(v)
	}
	page := store.Page{}
	if v := q.Get("page"); v != "" {
		page.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		page.Limit, _ = strconv.Atoi(v)
	}
	result, err := flows.Query(filter, page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
