package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nurseport/staffing-backend/internal/analysis"
	"github.com/nurseport/staffing-backend/internal/presence"
	"github.com/nurseport/staffing-backend/internal/tenant"
)

// LegacyHandler keeps the wire contract of the endpoints the previous
// dashboard frontend calls: /api/update-user-status and
// /api/qa-analysis-chatgpt.
type LegacyHandler struct {
	presence       *presence.Service
	analyses       *analysis.Service
	tenants        *tenant.Service
	defaultTimeout int
}

func NewLegacyHandler(ps *presence.Service, as *analysis.Service, ts *tenant.Service, defaultTimeoutMinutes int) *LegacyHandler {
	return &LegacyHandler{
		presence:       ps,
		analyses:       as,
		tenants:        ts,
		defaultTimeout: defaultTimeoutMinutes,
	}
}

// defaultAgencySlug is the seeded directory entry used when a legacy call
// carries no agency field.
const defaultAgencySlug = "default"

// UpdateUserStatus triggers one sweep pass. Both GET and POST are
// accepted; the timeout comes from the timeoutMinutes query parameter or
// JSON body, defaulting to the configured sweep timeout.
func (h *LegacyHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	timeout := h.defaultTimeout

	if v := r.URL.Query().Get("timeoutMinutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.fail(w, "invalid timeoutMinutes", fmt.Sprintf("timeoutMinutes %q is not a positive integer", v))
			return
		}
		timeout = n
	} else if r.Method == http.MethodPost && r.Body != nil {
		var body struct {
			TimeoutMinutes int `json:"timeoutMinutes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.TimeoutMinutes > 0 {
			timeout = body.TimeoutMinutes
		}
	}

	if err := h.presence.SweepOnce(r.Context(), time.Duration(timeout)*time.Minute); err != nil {
		h.fail(w, "failed to update user statuses", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("marked users inactive after %d minute(s) offline", timeout),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// QAAnalysisChatGPT accepts a multipart upload and runs the LLM analysis
// path synchronously, returning the report in the response body.
func (h *LegacyHandler) QAAnalysisChatGPT(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "invalid multipart form",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "file required",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, "failed to read upload", err.Error())
		return
	}

	model := r.FormValue("model")
	if model == "" {
		model = "default"
	}

	agencySlug := r.FormValue("agency")
	if agencySlug == "" {
		agencySlug = defaultAgencySlug
	}
	agency, err := h.tenants.GetBySlug(r.Context(), agencySlug)
	if err != nil {
		h.fail(w, "failed to resolve agency", err.Error())
		return
	}

	a, err := h.analyses.Submit(r.Context(), analysis.SubmitRequest{
		TenantID:     agency.ID,
		Filename:     header.Filename,
		FileType:     header.Header.Get("Content-Type"),
		AnalysisType: r.FormValue("analysis_type"),
		Priority:     r.FormValue("priority"),
		Model:        model,
		Data:         data,
	})
	if err != nil {
		h.fail(w, "document analysis failed", err.Error())
		return
	}

	var result analysis.Report
	if err := json.Unmarshal(a.Result, &result); err != nil {
		h.fail(w, "failed to decode analysis result", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"result":    result,
		"model":     "chatgpt",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *LegacyHandler) fail(w http.ResponseWriter, msg, details string) {
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"success": false,
		"error":   msg,
		"details": details,
	})
}
