package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Agency is a tenant: a staffing agency whose staff and patient records
// live in shared tables scoped by tenant_id.
type Agency struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Slug      string          `json:"slug" db:"slug"`
	Settings  json.RawMessage `json:"settings" db:"settings"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
