package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nurseport/staffing-backend/internal/models"
)

var ErrNotFound = errors.New("person record not found")

// Repository is the persistence surface the presence service needs.
// Backed by pgx in production, by a fake in tests.
type Repository interface {
	ListAgencies(ctx context.Context) ([]models.Agency, error)
	GetRecord(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string) (*models.PersonRecord, error)
	SetSignIn(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string, at time.Time) error
	SetSignOut(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string, at time.Time) error
	MarkStale(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, cutoff time.Time) (int64, error)
}

type pgRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	rows, err := r.db.Query(ctx,
		"SELECT id, name, slug, settings, created_at, updated_at FROM agencies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	defer rows.Close()

	var agencies []models.Agency
	for rows.Next() {
		var a models.Agency
		if err := rows.Scan(&a.ID, &a.Name, &a.Slug, &a.Settings, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agency: %w", err)
		}
		agencies = append(agencies, a)
	}
	return agencies, rows.Err()
}

func (r *pgRepository) GetRecord(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string) (*models.PersonRecord, error) {
	var p models.PersonRecord
	err := r.db.QueryRow(ctx,
		`SELECT id, tenant_id, kind, email, full_name, status, last_login, last_logout, created_at
		 FROM person_records WHERE tenant_id = $1 AND kind = $2 AND email = $3`,
		tenantID, kind, email,
	).Scan(&p.ID, &p.TenantID, &p.Kind, &p.Email, &p.FullName, &p.Status, &p.LastLogin, &p.LastLogout, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get person record: %w", err)
	}
	return &p, nil
}

func (r *pgRepository) SetSignIn(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE person_records SET status = $1, last_login = $2
		 WHERE tenant_id = $3 AND kind = $4 AND email = $5`,
		models.StatusOnline, at, tenantID, kind, email)
	if err != nil {
		return fmt.Errorf("sign in %s: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) SetSignOut(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE person_records SET status = $1, last_logout = $2
		 WHERE tenant_id = $3 AND kind = $4 AND email = $5`,
		models.StatusOffline, at, tenantID, kind, email)
	if err != nil {
		return fmt.Errorf("sign out %s: %w", email, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkStale flips rows still asserting "online" whose last activity
// predates the cutoff. Racing a fresh sign-in is fine: the next sweep pass
// corrects the row again.
func (r *pgRepository) MarkStale(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE person_records SET status = $1
		 WHERE tenant_id = $2 AND kind = $3 AND status = $4
		   AND (last_login < $5 OR last_logout < $5)`,
		models.StatusOffline, tenantID, kind, models.StatusOnline, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark stale %s records: %w", kind, err)
	}
	return tag.RowsAffected(), nil
}
