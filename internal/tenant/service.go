// Package tenant is the agency directory: which staffing agencies exist
// and which tenant the current request belongs to.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nurseport/staffing-backend/internal/models"
)

var ErrNotFound = errors.New("agency not found")

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	var a models.Agency
	err := s.db.QueryRow(ctx,
		"SELECT id, name, slug, settings, created_at, updated_at FROM agencies WHERE id = $1", id,
	).Scan(&a.ID, &a.Name, &a.Slug, &a.Settings, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agency: %w", err)
	}
	return &a, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Agency, error) {
	var a models.Agency
	err := s.db.QueryRow(ctx,
		"SELECT id, name, slug, settings, created_at, updated_at FROM agencies WHERE slug = $1", slug,
	).Scan(&a.ID, &a.Name, &a.Slug, &a.Settings, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agency by slug: %w", err)
	}
	return &a, nil
}

func (s *Service) List(ctx context.Context) ([]models.Agency, error) {
	rows, err := s.db.Query(ctx,
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

func (s *Service) Create(ctx context.Context, name, slug string) (*models.Agency, error) {
	var a models.Agency
	err := s.db.QueryRow(ctx,
		`INSERT INTO agencies (name, slug) VALUES ($1, $2)
		 RETURNING id, name, slug, settings, created_at, updated_at`,
		name, slug,
	).Scan(&a.ID, &a.Name, &a.Slug, &a.Settings, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create agency: %w", err)
	}
	return &a, nil
}
