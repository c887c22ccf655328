package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nurseport/staffing-backend/internal/models"
)

var (
	ErrNotFound = errors.New("analysis not found")

	// ErrTerminalState is returned when a run is attempted on an analysis
	// already in a terminal state. Callers resubmit to re-analyze.
	ErrTerminalState = errors.New("analysis already in terminal state")
)

type Repository interface {
	Create(ctx context.Context, a *models.Analysis, content string) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Analysis, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.Analysis, error)
	Content(ctx context.Context, id uuid.UUID) (string, error)
	// ClaimProcessing transitions queued -> processing. Returns
	// ErrTerminalState when the row is not claimable, which also guards
	// against two workers racing for the same analysis.
	ClaimProcessing(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	Fail(ctx context.Context, id uuid.UUID, result json.RawMessage, errMsg string) error
}

type pgRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &pgRepository{db: db}
}

const analysisColumns = `id, tenant_id, filename, analysis_type, priority, subject_email,
	model, status, result, error_message, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, a *models.Analysis, content string) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO analyses (id, tenant_id, filename, analysis_type, priority, subject_email, model, status, content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		a.ID, a.TenantID, a.Filename, a.AnalysisType, a.Priority, a.SubjectEmail, a.Model, a.Status, content,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *pgRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Analysis, error) {
	var a models.Analysis
	err := r.db.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&a.ID, &a.TenantID, &a.Filename, &a.AnalysisType, &a.Priority, &a.SubjectEmail,
		&a.Model, &a.Status, &a.Result, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return &a, nil
}

func (r *pgRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.Analysis, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE tenant_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Filename, &a.AnalysisType, &a.Priority, &a.SubjectEmail,
			&a.Model, &a.Status, &a.Result, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *pgRepository) Content(ctx context.Context, id uuid.UUID) (string, error) {
	var content string
	err := r.db.QueryRow(ctx, "SELECT content FROM analyses WHERE id = $1", id).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get analysis content: %w", err)
	}
	return content, nil
}

func (r *pgRepository) ClaimProcessing(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE analyses SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		models.AnalysisProcessing, id, models.AnalysisQueued)
	if err != nil {
		return fmt.Errorf("claim analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTerminalState
	}
	return nil
}

func (r *pgRepository) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	_, err := r.db.Exec(ctx,
		`UPDATE analyses SET status = $1, result = $2, updated_at = now() WHERE id = $3`,
		models.AnalysisCompleted, result, id)
	if err != nil {
		return fmt.Errorf("complete analysis: %w", err)
	}
	return nil
}

func (r *pgRepository) Fail(ctx context.Context, id uuid.UUID, result json.RawMessage, errMsg string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE analyses SET status = $1, result = $2, error_message = $3, updated_at = now() WHERE id = $4`,
		models.AnalysisError, result, errMsg, id)
	if err != nil {
		return fmt.Errorf("fail analysis: %w", err)
	}
	return nil
}
