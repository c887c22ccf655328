package models

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind distinguishes staff records from patient records within the
// shared person_records table.
type RecordKind string

const (
	KindStaff   RecordKind = "staff"
	KindPatient RecordKind = "patient"
)

// PresenceStatus is the stored status of a person record. The stored value
// is an assertion by the last writer; the displayed status is derived from
// it together with the login/logout timestamps (see internal/presence).
type PresenceStatus string

const (
	StatusOnline   PresenceStatus = "online"
	StatusOffline  PresenceStatus = "offline"
	StatusOnLeave  PresenceStatus = "on-leave"
	StatusInactive PresenceStatus = "inactive"
)

type PersonRecord struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	TenantID   uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Kind       RecordKind     `json:"kind" db:"kind"`
	Email      string         `json:"email" db:"email"`
	FullName   string         `json:"full_name,omitempty" db:"full_name"`
	Status     PresenceStatus `json:"status" db:"status"`
	LastLogin  *time.Time     `json:"last_login,omitempty" db:"last_login"`
	LastLogout *time.Time     `json:"last_logout,omitempty" db:"last_logout"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}
