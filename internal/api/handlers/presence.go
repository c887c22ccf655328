package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nurseport/staffing-backend/internal/models"
	"github.com/nurseport/staffing-backend/internal/presence"
	"github.com/nurseport/staffing-backend/internal/tenant"
)

type PresenceHandler struct {
	svc            *presence.Service
	defaultTimeout int
}

func NewPresenceHandler(svc *presence.Service, defaultTimeoutMinutes int) *PresenceHandler {
	return &PresenceHandler{svc: svc, defaultTimeout: defaultTimeoutMinutes}
}

type presenceRequest struct {
	AgencyID string `json:"agency_id,omitempty"`
	Kind     string `json:"kind"`
	Email    string `json:"email"`
}

func (h *PresenceHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.SignIn)
}

func (h *PresenceHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.SignOut)
}

func (h *PresenceHandler) lifecycle(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string) error) {
	var req presenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenantID := tenant.IDFromContext(r.Context())
	if tenantID == uuid.Nil && req.AgencyID != "" {
		parsed, err := uuid.Parse(req.AgencyID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid agency_id")
			return
		}
		tenantID = parsed
	}
	if tenantID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "agency context required")
		return
	}

	kind, ok := parseKind(w, req.Kind)
	if !ok {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}

	if err := op(r.Context(), tenantID, kind, req.Email); err != nil {
		if errors.Is(err, presence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "person record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *PresenceHandler) Status(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := resolveTenant(w, r)
	if !ok {
		return
	}

	kind, ok := parseKind(w, r.URL.Query().Get("kind"))
	if !ok {
		return
	}
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}

	timeout := h.defaultTimeout
	if v := r.URL.Query().Get("timeoutMinutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid timeoutMinutes")
			return
		}
		timeout = n
	}

	result, err := h.svc.Status(r.Context(), tenantID, kind, email, timeout)
	if err != nil {
		if errors.Is(err, presence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "person record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PresenceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	timeout := h.defaultTimeout
	if v := r.URL.Query().Get("timeoutMinutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid timeoutMinutes")
			return
		}
		timeout = n
	}

	if err := h.svc.SweepOnce(r.Context(), time.Duration(timeout)*time.Minute); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "swept",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func parseKind(w http.ResponseWriter, raw string) (models.RecordKind, bool) {
	switch models.RecordKind(raw) {
	case models.KindStaff, models.KindPatient:
		return models.RecordKind(raw), true
	default:
		writeError(w, http.StatusBadRequest, "kind must be staff or patient")
		return "", false
	}
}

// resolveTenant prefers the authenticated agency; an explicit agency_id
// query parameter covers unauthenticated deployments.
func resolveTenant(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if id := tenant.IDFromContext(r.Context()); id != uuid.Nil {
		return id, true
	}
	if raw := r.URL.Query().Get("agency_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid agency_id")
			return uuid.Nil, false
		}
		return id, true
	}
	writeError(w, http.StatusBadRequest, "agency context required")
	return uuid.Nil, false
}

func decodeJSON(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}
