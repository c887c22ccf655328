package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nurseport/staffing-backend/internal/tenant"
)

type AgencyHandler struct {
	svc *tenant.Service
}

func NewAgencyHandler(svc *tenant.Service) *AgencyHandler {
	return &AgencyHandler{svc: svc}
}

type createAgencyRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *AgencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgencyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug required")
		return
	}

	agency, err := h.svc.Create(r.Context(), req.Name, req.Slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, agency)
}

func (h *AgencyHandler) List(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"agencies": agencies, "count": len(agencies)})
}

func (h *AgencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agency ID")
		return
	}

	agency, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			writeError(w, http.StatusNotFound, "agency not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, agency)
}
