package presence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nurseport/staffing-backend/internal/cache"
	"github.com/nurseport/staffing-backend/internal/models"
)

type Service struct {
	repo     Repository
	cache    *cache.Cache
	cacheTTL time.Duration

	// now is swappable in tests.
	now func() time.Time
}

func NewService(repo Repository, c *cache.Cache, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *Service) SignIn(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string) error {
	if err := s.repo.SetSignIn(ctx, tenantID, kind, email, s.now().UTC()); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID, kind, email)
	return nil
}

func (s *Service) SignOut(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string) error {
	if err := s.repo.SetSignOut(ctx, tenantID, kind, email, s.now().UTC()); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID, kind, email)
	return nil
}

// Status returns the computed presence state for one record, cached for a
// short TTL so dashboard polling does not hammer the database.
func (s *Service) Status(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string, timeoutMinutes int) (*StatusResult, error) {
	key := statusKey(tenantID, kind, email, timeoutMinutes)
	if s.cache != nil {
		var cached StatusResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	rec, err := s.repo.GetRecord(ctx, tenantID, kind, email)
	if err != nil {
		return nil, err
	}

	result := ComputeStatus(rec.Status, rec.LastLogin, rec.LastLogout,
		time.Duration(timeoutMinutes)*time.Minute, s.now().UTC())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			slog.Debug("presence cache set failed", "key", key, "error", err)
		}
	}
	return &result, nil
}

// SweepOnce flips stale online rows to offline for every agency. A failure
// listing agencies aborts the pass; a failure updating one agency is
// logged and does not block the rest.
func (s *Service) SweepOnce(ctx context.Context, timeout time.Duration) error {
	agencies, err := s.repo.ListAgencies(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	cutoff := s.now().UTC().Add(-timeout)
	for _, agency := range agencies {
		var flipped int64
		failed := false
		for _, kind := range []models.RecordKind{models.KindStaff, models.KindPatient} {
			n, err := s.repo.MarkStale(ctx, agency.ID, kind, cutoff)
			if err != nil {
				slog.Error("presence sweep failed for agency",
					"agency", agency.Slug, "kind", kind, "error", err)
				failed = true
				continue
			}
			flipped += n
		}
		if !failed && flipped > 0 {
			slog.Info("presence sweep flipped stale records",
				"agency", agency.Slug, "count", flipped)
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string) {
	if s.cache == nil {
		return
	}
	// Timeout is part of the key; delete the common default variants.
	for _, timeout := range []int{1, 5, 10, 15} {
		_ = s.cache.Delete(ctx, statusKey(tenantID, kind, email, timeout))
	}
}

func statusKey(tenantID uuid.UUID, kind models.RecordKind, email string, timeoutMinutes int) string {
	return fmt.Sprintf("presence:%s:%s:%s:%d", tenantID, kind, email, timeoutMinutes)
}
