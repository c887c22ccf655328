package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Analysis struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Filename     string          `json:"filename" db:"filename"`
	AnalysisType string          `json:"analysis_type" db:"analysis_type"`
	Priority     string          `json:"priority,omitempty" db:"priority"`
	SubjectEmail *string         `json:"subject_email,omitempty" db:"subject_email"`
	Model        string          `json:"model,omitempty" db:"model"`
	Status       string          `json:"status" db:"status"`
	Result       json.RawMessage `json:"result,omitempty" db:"result"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Analysis lifecycle. Terminal states are final: a caller re-submits to
// re-analyze, there is no retry loop.
const (
	AnalysisQueued     = "queued"
	AnalysisProcessing = "processing"
	AnalysisCompleted  = "completed"
	AnalysisError      = "error"
)
