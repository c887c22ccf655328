package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nurseport/staffing-backend/internal/analysis"
	"github.com/nurseport/staffing-backend/internal/queue"
)

type AnalysisWorker struct {
	svc *analysis.Service
}

func NewAnalysisWorker(svc *analysis.Service) *AnalysisWorker {
	return &AnalysisWorker{svc: svc}
}

func (w *AnalysisWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AnalysisRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal analysis payload: %w", err)
	}

	analysisID, err := uuid.Parse(payload.AnalysisID)
	if err != nil {
		return fmt.Errorf("invalid analysis id %q: %w", payload.AnalysisID, err)
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant id %q: %w", payload.TenantID, err)
	}

	if _, err := w.svc.Run(ctx, tenantID, analysisID); err != nil {
		// Terminal rows stay terminal; the failure is already recorded on
		// the analysis, so the task itself succeeds.
		if errors.Is(err, analysis.ErrTerminalState) {
			slog.Info("skipping analysis already in terminal state", "analysis_id", analysisID)
			return nil
		}
		slog.Error("analysis run failed", "analysis_id", analysisID, "error", err)
		return nil
	}

	slog.Info("analysis completed", "analysis_id", analysisID, "tenant_id", tenantID)
	return nil
}
