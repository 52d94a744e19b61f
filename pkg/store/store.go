package store

import (
	"errors"

	"policy-advisor/pkg/model"
)

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateName means a policy with the same name already exists.
	ErrDuplicateName = errors.New("policy name already exists")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}

// FlowFilter narrows a flow query. Namespace matches either side of the
// flow; Port matches the destination port when > 0.
type FlowFilter struct {
	Namespace string
	Port      int
}

// Page selects one page of results. Non-positive fields fall back to
// page 1 / limit 50.
type Page struct {
	Page  int
	Limit int
}

// FlowPage is one page of flows plus the overall match count.
type FlowPage struct {
	Flows      []model.Flow `json:"flows"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"totalPages"`
}

// FlowStore persists immutable flow records.
type FlowStore interface {
	Insert(model.Flow) (model.Flow, error)
	Query(FlowFilter, Page) (FlowPage, error)
	GetByID(id string) (model.Flow, bool, error)
	GetByIDs(ids []string) ([]model.Flow, error)
	Delete(id string) (bool, error)
}

// PolicyStore persists policies and their append-only version chains.
type PolicyStore interface {
	CreateFromDocument(name, namespace, document string) (model.Policy, error)
	Amend(policyID, document, summary string) (model.Policy, int, error)
	LatestVersionNumber(policyID string) (int, error)
	Get(policyID string) (model.Policy, bool, error)
	List() ([]model.Policy, error)
	Delete(policyID string) (bool, error)
	ListVersions(policyID string) ([]model.Version, error)
	GetVersion(versionID string) (model.Version, bool, error)
}
