package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nurseport/staffing-backend/internal/llm"
	"github.com/nurseport/staffing-backend/internal/models"
	"github.com/nurseport/staffing-backend/internal/queue"
	"github.com/nurseport/staffing-backend/internal/storage"
	"github.com/nurseport/staffing-backend/pkg/textextract"
)

// Enqueuer hands queued analyses to the background worker.
type Enqueuer interface {
	EnqueueAnalysisRun(payload queue.AnalysisRunPayload) error
}

type Service struct {
	repo         Repository
	gateway      llm.Gateway
	store        storage.ObjectStore // nil when archival is not configured
	enqueuer     Enqueuer            // nil when async submission is disabled
	llmTimeout   time.Duration
	defaultModel string
}

func NewService(repo Repository, gw llm.Gateway, store storage.ObjectStore, enq Enqueuer, llmTimeout time.Duration, defaultModel string) *Service {
	return &Service{
		repo:         repo,
		gateway:      gw,
		store:        store,
		enqueuer:     enq,
		llmTimeout:   llmTimeout,
		defaultModel: defaultModel,
	}
}

type SubmitRequest struct {
	TenantID     uuid.UUID
	Filename     string
	FileType     string // extension or MIME type; derived from Filename when empty
	AnalysisType string
	Priority     string
	SubjectEmail *string
	// Model selects the LLM path; empty means the rule engine and the
	// literal "default" resolves to the configured default model.
	Model string
	Async bool
	Data  []byte
}

// Submit persists a new analysis, extracts the document text up front, and
// either runs the analysis inline or hands it to the worker queue.
// Extraction failures (including unsupported formats) move the analysis to
// its error state and are returned to the caller.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Analysis, error) {
	if req.AnalysisType == "" {
		req.AnalysisType = "general"
	}
	if req.Priority == "" {
		req.Priority = "normal"
	}
	if req.Model == "default" {
		req.Model = s.defaultModel
	}
	fileType := req.FileType
	if fileType == "" {
		fileType = filepath.Ext(req.Filename)
	}

	a := &models.Analysis{
		ID:           uuid.New(),
		TenantID:     req.TenantID,
		Filename:     req.Filename,
		AnalysisType: req.AnalysisType,
		Priority:     req.Priority,
		SubjectEmail: req.SubjectEmail,
		Model:        req.Model,
		Status:       models.AnalysisQueued,
	}

	s.archive(ctx, a, req.Data, fileType)

	extracted, extractErr := textextract.Extract(bytes.NewReader(req.Data), int64(len(req.Data)), fileType)

	content := ""
	if extractErr == nil {
		content = extracted.Content
	}
	if err := s.repo.Create(ctx, a, content); err != nil {
		return nil, err
	}

	if extractErr != nil {
		return s.failWith(ctx, a, fmt.Errorf("extract text: %w", extractErr))
	}

	if req.Async && s.enqueuer != nil {
		err := s.enqueuer.EnqueueAnalysisRun(queue.AnalysisRunPayload{
			AnalysisID: a.ID.String(),
			TenantID:   a.TenantID.String(),
		})
		if err != nil {
			return s.failWith(ctx, a, fmt.Errorf("enqueue analysis: %w", err))
		}
		return a, nil
	}

	return s.Run(ctx, a.TenantID, a.ID)
}

// Run executes one queued analysis to a terminal state. Terminal analyses
// are never re-run; callers resubmit instead.
func (s *Service) Run(ctx context.Context, tenantID, id uuid.UUID) (*models.Analysis, error) {
	a, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if a.Status == models.AnalysisCompleted || a.Status == models.AnalysisError {
		return a, ErrTerminalState
	}
	if err := s.repo.ClaimProcessing(ctx, id); err != nil {
		return a, err
	}

	content, err := s.repo.Content(ctx, id)
	if err != nil {
		return s.failWith(ctx, a, err)
	}

	var report Report
	if a.Model == "" {
		report = Scan(content, a.AnalysisType, a.Filename)
	} else {
		report, err = s.runLLM(ctx, a.Model, a.Filename, a.AnalysisType, content)
		if err != nil {
			return s.failWith(ctx, a, err)
		}
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return s.failWith(ctx, a, fmt.Errorf("marshal report: %w", err))
	}
	if err := s.repo.Complete(ctx, id, payload); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Analysis, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.Analysis, error) {
	return s.repo.List(ctx, tenantID, limit, offset)
}

// failWith records the synthesized single-issue error result and
// propagates the original error to the caller.
func (s *Service) failWith(ctx context.Context, a *models.Analysis, cause error) (*models.Analysis, error) {
	report := errorReport(a.Filename, a.AnalysisType, cause.Error())
	payload, _ := json.Marshal(report)
	if err := s.repo.Fail(ctx, a.ID, payload, cause.Error()); err != nil {
		slog.Error("failed to record analysis error", "analysis_id", a.ID, "error", err)
	}
	failed, err := s.repo.Get(ctx, a.TenantID, a.ID)
	if err != nil {
		failed = a
	}
	return failed, cause
}

func errorReport(filename, analysisType, msg string) Report {
	return Report{
		ComplianceScore:  0,
		IssuesFound:      []string{"Analysis failed: " + msg},
		Recommendations:  []string{"Resubmit the document to re-run the analysis"},
		RiskLevel:        RiskHigh,
		Summary:          summary(filename, analysisType, 0, RiskHigh, 1),
		DetailedAnalysis: fmt.Sprintf("Document: %s\nAnalysis type: %s\n\nThe analysis could not be completed: %s\n", filename, analysisType, msg),
	}
}

func (s *Service) archive(ctx context.Context, a *models.Analysis, data []byte, fileType string) {
	if s.store == nil {
		return
	}
	ext := filepath.Ext(a.Filename)
	key := fmt.Sprintf("%s/%s%s", a.TenantID, a.ID, ext)
	if err := s.store.Put(ctx, key, data, contentTypeFor(fileType)); err != nil {
		slog.Warn("document archival failed", "analysis_id", a.ID, "key", key, "error", err)
	}
}

func contentTypeFor(fileType string) string {
	switch fileType {
	case ".pdf", "pdf", "application/pdf":
		return "application/pdf"
	case ".txt", "txt", "text/plain":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
