package http

import (
	"talentboard/internal/model"
	"talentboard/internal/services"
	"talentboard/internal/stage"
)

// ErrorResponse is the error envelope shared by all endpoints.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// LoadResponse reports the result of loading a job's candidate set.
type LoadResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	JobID   string `json:"jobId,omitempty"`
	Count   int    `json:"count"`

	// Stale is set on failed loads when the store still holds a
	// previous (valid) candidate set the dashboard can keep showing.
	Stale bool `json:"stale,omitempty"`
}

// ListApplicationsResponse carries the filtered view plus the stage
// counts the Kanban column headers need.
type ListApplicationsResponse struct {
	Success      bool                `json:"success"`
	Code         string              `json:"code,omitempty"`
	Error        string              `json:"error,omitempty"`
	JobID        string              `json:"jobId,omitempty"`
	Applications []model.Application `json:"applications"`
	Total        int                 `json:"total"`
	StageCounts  map[stage.Stage]int `json:"stageCounts,omitempty"`
}

// ApplicationResponse wraps a single record.
type ApplicationResponse struct {
	Success     bool               `json:"success"`
	Code        string             `json:"code,omitempty"`
	Error       string             `json:"error,omitempty"`
	Application *model.Application `json:"application,omitempty"`
}

// TransitionRequest asks to move one application to a target stage.
// Button clicks and drag-drop both land here.
type TransitionRequest struct {
	Stage string `json:"stage"`
}

// BulkOperationRequest applies one action to many applications. When
// IDs is empty the server-held selection is used.
type BulkOperationRequest struct {
	Action  string   `json:"action"`
	IDs     []string `json:"ids,omitempty"`
	Stage   string   `json:"stage,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Body    string   `json:"body,omitempty"`
}

// BulkOperationResponse returns the complete per-item summary. A
// mixed outcome is still success=true: partial failure is data, not
// an error.
type BulkOperationResponse struct {
	Success bool                  `json:"success"`
	Code    string                `json:"code,omitempty"`
	Error   string                `json:"error,omitempty"`
	Summary *services.BulkSummary `json:"summary,omitempty"`
}

// SelectionResponse reports the current selection.
type SelectionResponse struct {
	Success  bool     `json:"success"`
	Code     string   `json:"code,omitempty"`
	Error    string   `json:"error,omitempty"`
	IDs      []string `json:"ids"`
	Count    int      `json:"count"`
	Selected *bool    `json:"selected,omitempty"`
}

// ToggleSelectionRequest flips one ID in the selection.
type ToggleSelectionRequest struct {
	ID string `json:"id"`
}
