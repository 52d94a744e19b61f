package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"policy-advisor/pkg/analyzer"
	"policy-advisor/pkg/journal"
	"policy-advisor/pkg/store"
	"policy-advisor/pkg/yamlcheck"
)

// GenerateRequest selects the flows a new policy is derived from.
type GenerateRequest struct {
	FlowIDs    []string `json:"flow_ids"`
	PolicyName string   `json:"policy_name,omitempty"`
}

// AmendRequest carries a proposed new document for an existing policy.
type AmendRequest struct {
	YAMLContent   string `json:"yaml_content"`
	ChangeSummary string `json:"change_summary,omitempty"`
}

// RegisterPolicyRoutes wires policy generation, CRUD, amendment, and
// validation handlers.
func RegisterPolicyRoutes(mux *http.ServeMux, policies store.PolicyStore, gen *analyzer.Generator, auth func(r *http.Request) bool, hub *EventHub, jrnl *journal.Journal) {
	mux.HandleFunc("/api/policies/generate", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.FlowIDs) == 0 {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Missing or invalid flow_ids array", nil)
			return
		}
		policy, err := gen.Generate(r.Context(), req.FlowIDs, req.PolicyName)
		if err != nil {
			log.Printf("policy generation failed: %v", err)
			writeGenerateError(w, err)
			return
		}
		jrnl.Record(policy.PolicyID, "generate", "generated from "+strconv.Itoa(len(req.FlowIDs))+" selected flows")
		hub.Broadcast(Event{Type: "policy_generated", Payload: policy})
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "Policy generated successfully",
			"policy":  policy,
		})
	})

	mux.HandleFunc("/api/policies/validate", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req AmendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.YAMLContent == "" {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Missing required field: yaml_content", nil)
			return
		}
		if err := yamlcheck.Validate(req.YAMLContent); err != nil {
			var sErr *yamlcheck.SyntaxError
			errors.As(err, &sErr)
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"valid": false,
				"error": apiError{Code: "INVALID_YAML", Message: "Invalid YAML syntax", Details: sErr.Detail},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"valid":   true,
			"message": "YAML is valid",
		})
	})

	mux.HandleFunc("/api/policies", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list, err := policies.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"policies": list})
	})

	mux.HandleFunc("/api/policies/", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/api/policies/")
		parts := strings.Split(rest, "/")
		switch {
		case len(parts) == 1 && parts[0] != "":
			handlePolicyByID(w, r, parts[0], policies, hub, jrnl)
		case len(parts) == 2 && parts[1] == "versions" && r.Method == http.MethodGet:
			handleListVersions(w, parts[0], policies)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found", nil)
		}
	})
}

func handlePolicyByID(w http.ResponseWriter, r *http.Request, id string, policies store.PolicyStore, hub *EventHub, jrnl *journal.Journal) {
	switch r.Method {
	case http.MethodGet:
		p, ok, err := policies.Get(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Policy not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"policy": p})
	case http.MethodPut:
		handleAmendPolicy(w, r, id, policies, hub, jrnl)
	case http.MethodDelete:
		existed, err := policies.Delete(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		if !existed {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Policy not found", nil)
			return
		}
		jrnl.Record(id, "delete", "policy and version chain removed")
		hub.Broadcast(Event{Type: "policy_deleted", Payload: map[string]string{"policy_id": id}})
		writeJSON(w, http.StatusOK, map[string]string{"message": "Policy deleted successfully"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAmendPolicy gates the document on YAML syntax before anything is
// persisted; a rejected document leaves the policy and its chain untouched.
func handleAmendPolicy(w http.ResponseWriter, r *http.Request, id string, policies store.PolicyStore, hub *EventHub, jrnl *journal.Journal) {
	var req AmendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.YAMLContent == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Missing required field: yaml_content", nil)
		return
	}
	if err := yamlcheck.Validate(req.YAMLContent); err != nil {
		var sErr *yamlcheck.SyntaxError
		errors.As(err, &sErr)
		writeError(w, http.StatusBadRequest, "INVALID_YAML", "Invalid YAML syntax", sErr.Detail)
		return
	}
	updated, version, err := policies.Amend(id, req.YAMLContent, req.ChangeSummary)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Policy not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
		return
	}
	jrnl.Record(id, "amend", "version "+strconv.Itoa(version)+" appended")
	hub.Broadcast(Event{Type: "policy_updated", Payload: updated})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Policy updated successfully",
		"policy":  updated,
		"version": version,
	})
}

func handleListVersions(w http.ResponseWriter, policyID string, policies store.PolicyStore) {
	versions, err := policies.ListVersions(policyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policy_id": policyID,
		"versions":  versions,
		"total":     len(versions),
	})
}
