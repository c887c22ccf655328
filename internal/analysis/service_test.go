package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurseport/staffing-backend/internal/llm"
	"github.com/nurseport/staffing-backend/internal/models"
	"github.com/nurseport/staffing-backend/internal/queue"
	"github.com/nurseport/staffing-backend/pkg/textextract"
)

type memRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*models.Analysis
	content map[uuid.UUID]string
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:    make(map[uuid.UUID]*models.Analysis),
		content: make(map[uuid.UUID]string),
	}
}

func (m *memRepo) Create(ctx context.Context, a *models.Analysis, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	m.rows[a.ID] = &cp
	m.content[a.ID] = content
	return nil
}

func (m *memRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Analysis
	for _, row := range m.rows {
		if row.TenantID == tenantID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memRepo) Content(ctx context.Context, id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.content[id]
	if !ok {
		return "", ErrNotFound
	}
	return content, nil
}

func (m *memRepo) ClaimProcessing(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.Status != models.AnalysisQueued {
		return ErrTerminalState
	}
	row.Status = models.AnalysisProcessing
	return nil
}

func (m *memRepo) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.Status = models.AnalysisCompleted
	row.Result = result
	return nil
}

func (m *memRepo) Fail(ctx context.Context, id uuid.UUID, result json.RawMessage, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.Status = models.AnalysisError
	row.Result = result
	row.ErrorMessage = &errMsg
	return nil
}

type fakeGateway struct {
	response string
	err      error
	lastReq  llm.ChatRequest
}

func (g *fakeGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return &llm.ChatResponse{Content: g.response, Model: req.Model, Provider: "openai"}, nil
}

func (g *fakeGateway) Provider(name string) (llm.Provider, error) {
	return nil, errors.New("not implemented")
}

type fakeEnqueuer struct {
	payloads []queue.AnalysisRunPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueAnalysisRun(p queue.AnalysisRunPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func newTestService(repo Repository, gw llm.Gateway, enq Enqueuer) *Service {
	return NewService(repo, gw, nil, enq, 10*time.Second, "gpt-3.5-turbo")
}

func TestSubmitRulePathCompletesSynchronously(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeGateway{}, nil)
	tenantID := uuid.New()

	a, err := svc.Submit(context.Background(), SubmitRequest{
		TenantID: tenantID,
		Filename: "med-note.txt",
		FileType: ".txt",
		Data:     []byte("Medication administered in the morning."),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisCompleted, a.Status)

	var report Report
	require.NoError(t, json.Unmarshal(a.Result, &report))
	assert.Equal(t, 85, report.ComplianceScore)
	assert.Equal(t, RiskMedium, report.RiskLevel)
}

func TestSubmitDefaultsTypeAndPriority(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeGateway{}, nil)

	a, err := svc.Submit(context.Background(), SubmitRequest{
		TenantID: uuid.New(),
		Filename: "note.txt",
		FileType: ".txt",
		Data:     []byte("routine entry"),
	})
	require.NoError(t, err)
	assert.Equal(t, "general", a.AnalysisType)
	assert.Equal(t, "normal", a.Priority)
}

func TestSubmitUnsupportedFormatFailsExplicitly(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeGateway{}, nil)
	tenantID := uuid.New()

	a, err := svc.Submit(context.Background(), SubmitRequest{
		TenantID: tenantID,
		Filename: "handbook.docx",
		Data:     []byte("PK..."),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, textextract.ErrUnsupportedFormat)

	// The failure is recorded on the analysis with the synthesized result.
	require.NotNil(t, a)
	assert.Equal(t, models.AnalysisError, a.Status)

	var report Report
	require.NoError(t, json.Unmarshal(a.Result, &report))
	assert.Equal(t, 0, report.ComplianceScore)
	assert.Equal(t, RiskHigh, report.RiskLevel)
	require.Len(t, report.IssuesFound, 1)
	assert.Contains(t, report.IssuesFound[0], "Analysis failed")
}

func TestSubmitAsyncLeavesAnalysisQueued(t *testing.T) {
	repo := newMemRepo()
	enq := &fakeEnqueuer{}
	svc := newTestService(repo, &fakeGateway{}, enq)
	tenantID := uuid.New()

	a, err := svc.Submit(context.Background(), SubmitRequest{
		TenantID: tenantID,
		Filename: "note.txt",
		FileType: ".txt",
		Async:    true,
		Data:     []byte("routine entry"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisQueued, a.Status)
	require.Len(t, enq.payloads, 1)
	assert.Equal(t, a.ID.String(), enq.payloads[0].AnalysisID)
	assert.Equal(t, tenantID.String(), enq.payloads[0].TenantID)
}

func TestRunTerminalAnalysisIsRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeGateway{}, nil)
	tenantID := uuid.New()

	a, err := svc.Submit(context.Background(), SubmitRequest{
		TenantID: tenantID,
		Filename: "note.txt",
		FileType: ".txt",
		Data:     []byte("routine entry"),
	})
	require.NoError(t, err)
	require.Equal(t, models.AnalysisCompleted, a.Status)

	_, err = svc.Run(context.Background(), tenantID, a.ID)
	assert.ErrorIs(t, err, ErrTerminalState)
}

func TestSubmitLLMPath(t *testing.T) {
	repo := newMemRepo()
	gw := &fakeGateway{response: `Here is the review: {"compliance_score": 88, "issues_found": ["Missing co-signature"], "recommendations": ["Add co-signature"], "risk_level": "medium", "summary": "ok", "detailed_analysis": "ok"}`}
	svc := newTestService(repo, gw, nil)
	tenantID := uuid.New()

	a, err := svc.Submit(context.Background(), SubmitRequest{
		TenantID: tenantID,
		Filename: "note.txt",
		FileType: ".txt",
		Model:    "gpt-4",
		Data:     []byte("patient note"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisCompleted, a.Status)
	assert.Equal(t, "gpt-4", gw.lastReq.Model)

	var report Report
	require.NoError(t, json.Unmarshal(a.Result, &report))
	assert.Equal(t, 88, report.ComplianceScore)
	assert.Equal(t, []string{"Missing co-signature"}, report.IssuesFound)
}

func TestSubmitLLMFailureRecordsError(t *testing.T) {
	repo := newMemRepo()
	gw := &fakeGateway{err: errors.New("rate limited")}
	svc := newTestService(repo, gw, nil)
	tenantID := uuid.New()

	a, err := svc.Submit(context.Background(), SubmitRequest{
		TenantID: tenantID,
		Filename: "note.txt",
		FileType: ".txt",
		Model:    "gpt-4",
		Data:     []byte("patient note"),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "rate limited")
	assert.Equal(t, models.AnalysisError, a.Status)
	require.NotNil(t, a.ErrorMessage)
	assert.Contains(t, *a.ErrorMessage, "rate limited")
}

func TestParseAuditResponse(t *testing.T) {
	t.Run("clamps out-of-range score", func(t *testing.T) {
		report, err := parseAuditResponse(`{"compliance_score": 140, "risk_level": "low"}`)
		require.NoError(t, err)
		assert.Equal(t, 100, report.ComplianceScore)
	})

	t.Run("rederives unknown risk level", func(t *testing.T) {
		report, err := parseAuditResponse(`{"compliance_score": 60, "risk_level": "catastrophic"}`)
		require.NoError(t, err)
		assert.Equal(t, RiskCritical, report.RiskLevel)
	})

	t.Run("ignores prose around the object", func(t *testing.T) {
		report, err := parseAuditResponse("Sure! ```json\n{\"compliance_score\": 90}\n``` Hope this helps.")
		require.NoError(t, err)
		assert.Equal(t, 90, report.ComplianceScore)
	})

	t.Run("rejects responses without JSON", func(t *testing.T) {
		_, err := parseAuditResponse("I cannot review this document.")
		assert.Error(t, err)
	})
}
