package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurseport/staffing-backend/internal/models"
	"github.com/nurseport/staffing-backend/internal/presence"
)

// stubRepo is the minimal presence.Repository used by handler tests.
type stubRepo struct {
	agencies []models.Agency
	records  map[string]*models.PersonRecord
	listErr  error
}

func newStubRepo() *stubRepo {
	return &stubRepo{records: make(map[string]*models.PersonRecord)}
}

func stubKey(tenantID uuid.UUID, kind models.RecordKind, email string) string {
	return tenantID.String() + "/" + string(kind) + "/" + email
}

func (s *stubRepo) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	return s.agencies, s.listErr
}

func (s *stubRepo) GetRecord(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string) (*models.PersonRecord, error) {
	rec, ok := s.records[stubKey(tenantID, kind, email)]
	if !ok {
		return nil, presence.ErrNotFound
	}
	return rec, nil
}

func (s *stubRepo) SetSignIn(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string, at time.Time) error {
	rec, ok := s.records[stubKey(tenantID, kind, email)]
	if !ok {
		return presence.ErrNotFound
	}
	rec.Status = models.StatusOnline
	rec.LastLogin = &at
	return nil
}

func (s *stubRepo) SetSignOut(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, email string, at time.Time) error {
	rec, ok := s.records[stubKey(tenantID, kind, email)]
	if !ok {
		return presence.ErrNotFound
	}
	rec.Status = models.StatusOffline
	rec.LastLogout = &at
	return nil
}

func (s *stubRepo) MarkStale(ctx context.Context, tenantID uuid.UUID, kind models.RecordKind, cutoff time.Time) (int64, error) {
	return 0, nil
}

func TestPresenceStatusEndpoint(t *testing.T) {
	repo := newStubRepo()
	agencyID := uuid.New()
	logout := time.Now().UTC().Add(-10 * time.Minute)
	repo.records[stubKey(agencyID, models.KindStaff, "nurse@example.com")] = &models.PersonRecord{
		TenantID: agencyID, Kind: models.KindStaff, Email: "nurse@example.com",
		Status: models.StatusOnline, LastLogout: &logout,
	}

	h := NewPresenceHandler(presence.NewService(repo, nil, 0), 1)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/presence/status?kind=staff&email=nurse@example.com&agency_id="+agencyID.String(), nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result presence.StatusResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsOnline)
	assert.Equal(t, "offline", result.Status)
	assert.Equal(t, "10 minutes ago", result.TimeText)
}

func TestPresenceStatusUnknownRecord(t *testing.T) {
	h := NewPresenceHandler(presence.NewService(newStubRepo(), nil, 0), 1)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/presence/status?kind=staff&email=ghost@example.com&agency_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresenceStatusRejectsBadKind(t *testing.T) {
	h := NewPresenceHandler(presence.NewService(newStubRepo(), nil, 0), 1)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/presence/status?kind=robot&email=x@example.com&agency_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresenceSignInEndpoint(t *testing.T) {
	repo := newStubRepo()
	agencyID := uuid.New()
	repo.records[stubKey(agencyID, models.KindStaff, "nurse@example.com")] = &models.PersonRecord{
		TenantID: agencyID, Kind: models.KindStaff, Email: "nurse@example.com",
		Status: models.StatusOffline,
	}

	h := NewPresenceHandler(presence.NewService(repo, nil, 0), 1)

	body := `{"agency_id":"` + agencyID.String() + `","kind":"staff","email":"nurse@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/presence/signin", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SignIn(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	stored := repo.records[stubKey(agencyID, models.KindStaff, "nurse@example.com")]
	assert.Equal(t, models.StatusOnline, stored.Status)
	require.NotNil(t, stored.LastLogin)
}

func TestUpdateUserStatusEnvelope(t *testing.T) {
	repo := newStubRepo()
	repo.agencies = []models.Agency{{ID: uuid.New(), Slug: "sunrise"}}

	h := NewLegacyHandler(presence.NewService(repo, nil, 0), nil, nil, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/update-user-status?timeoutMinutes=5", nil)
	rec := httptest.NewRecorder()
	h.UpdateUserStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope["success"])
	assert.Contains(t, envelope["message"], "5 minute")
	assert.NotEmpty(t, envelope["timestamp"])
}

func TestUpdateUserStatusFailureEnvelope(t *testing.T) {
	repo := newStubRepo()
	repo.listErr = errors.New("connection refused")

	h := NewLegacyHandler(presence.NewService(repo, nil, 0), nil, nil, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/update-user-status", nil)
	rec := httptest.NewRecorder()
	h.UpdateUserStatus(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, false, envelope["success"])
	assert.NotEmpty(t, envelope["error"])
	assert.Contains(t, envelope["details"], "connection refused")
}
