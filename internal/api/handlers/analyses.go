package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nurseport/staffing-backend/internal/analysis"
	"github.com/nurseport/staffing-backend/internal/models"
	"github.com/nurseport/staffing-backend/pkg/textextract"
)

type AnalysisHandler struct {
	svc *analysis.Service
}

func NewAnalysisHandler(svc *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := resolveTenant(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read upload: "+err.Error())
		return
	}

	var subjectEmail *string
	if v := r.FormValue("subject_email"); v != "" {
		subjectEmail = &v
	}

	a, err := h.svc.Submit(r.Context(), analysis.SubmitRequest{
		TenantID:     tenantID,
		Filename:     header.Filename,
		FileType:     header.Header.Get("Content-Type"),
		AnalysisType: r.FormValue("analysis_type"),
		Priority:     r.FormValue("priority"),
		SubjectEmail: subjectEmail,
		Model:        r.FormValue("model"),
		Async:        r.FormValue("async") == "true",
		Data:         data,
	})
	if err != nil {
		if errors.Is(err, textextract.ErrUnsupportedFormat) {
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := resolveTenant(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	analyses, err := h.svc.List(r.Context(), tenantID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": analyses, "count": len(analyses)})
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnalysisHandler) Status(w http.ResponseWriter, r *http.Request) {
	a, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": a.ID.String(), "status": a.Status})
}

func (h *AnalysisHandler) load(w http.ResponseWriter, r *http.Request) (*models.Analysis, bool) {
	tenantID, ok := resolveTenant(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid analysis ID")
		return nil, false
	}

	row, err := h.svc.Get(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return row, true
}
