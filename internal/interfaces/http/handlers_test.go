package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsuite/claimflow/internal/application/engine"
	"github.com/claimsuite/claimflow/internal/application/port"
	"github.com/claimsuite/claimflow/internal/domain/claim"
	"github.com/claimsuite/claimflow/internal/verify"
)

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// mockEngine returns canned responses per operation
type mockEngine struct {
	submitClaim   *claim.Claim
	submitOutcome *engine.TransitionOutcome
	submitErr     error
	status        *engine.WorkflowStatus
	statusErr     error
	decision      *engine.TransitionOutcome
	decisionErr   error
	queue         []*claim.Claim
	summary       *engine.BatchSummary

	lastReviewer string
	lastReason   string
}

func (m *mockEngine) Submit(ctx context.Context, in engine.SubmitInput) (*claim.Claim, *engine.TransitionOutcome, error) {
	return m.submitClaim, m.submitOutcome, m.submitErr
}

func (m *mockEngine) Verify(ctx context.Context, claimID int64) (*verify.Verdict, error) {
	if m.status == nil {
		return nil, engine.ErrNotFound
	}
	v := m.status.Verdict
	return &v, nil
}

func (m *mockEngine) Advance(ctx context.Context, claimID int64) (*engine.TransitionOutcome, error) {
	return m.decision, m.decisionErr
}

func (m *mockEngine) RecommendByCoordinator(ctx context.Context, claimID int64, reviewerID, notes string) (*engine.TransitionOutcome, error) {
	m.lastReviewer, m.lastReason = reviewerID, notes
	return m.decision, m.decisionErr
}

func (m *mockEngine) RejectByCoordinator(ctx context.Context, claimID int64, reviewerID, reason string) (*engine.TransitionOutcome, error) {
	m.lastReviewer, m.lastReason = reviewerID, reason
	return m.decision, m.decisionErr
}

func (m *mockEngine) FinalApprove(ctx context.Context, claimID int64, reviewerID string) (*engine.TransitionOutcome, error) {
	m.lastReviewer = reviewerID
	return m.decision, m.decisionErr
}

func (m *mockEngine) FinalReject(ctx context.Context, claimID int64, reviewerID, reason string) (*engine.TransitionOutcome, error) {
	m.lastReviewer, m.lastReason = reviewerID, reason
	return m.decision, m.decisionErr
}

func (m *mockEngine) Override(ctx context.Context, claimID int64, reviewerID, reason string) (*engine.TransitionOutcome, error) {
	m.lastReviewer, m.lastReason = reviewerID, reason
	return m.decision, m.decisionErr
}

func (m *mockEngine) GetStatus(ctx context.Context, claimID int64) (*engine.WorkflowStatus, error) {
	return m.status, m.statusErr
}

func (m *mockEngine) RunAutomatedPass(ctx context.Context) (*engine.BatchSummary, error) {
	return m.summary, nil
}

func (m *mockEngine) ListForCoordinatorReview(ctx context.Context) ([]*claim.Claim, error) {
	return m.queue, nil
}

func (m *mockEngine) ListForManagerReview(ctx context.Context) ([]*claim.Claim, error) {
	return m.queue, nil
}

func (m *mockEngine) ListByOwner(ctx context.Context, ownerID string) ([]*claim.Claim, error) {
	return m.queue, nil
}

type memAudit struct {
	records []*port.AuditRecord
}

func (s *memAudit) Record(ctx context.Context, rec *port.AuditRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *memAudit) GetByClaimID(ctx context.Context, claimID int64) ([]*port.AuditRecord, error) {
	return s.records, nil
}

func decMust(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestServer(eng engine.Engine) *Server {
	return NewServer(DefaultServerConfig(), eng, &memAudit{}, noopLogger{})
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&mockEngine{})

	w := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestSubmitClaim(t *testing.T) {
	stored := claim.New("lecturer-1", "2026-01", decMust("100"), decMust("150"), true)
	stored.ID = 1
	eng := &mockEngine{
		submitClaim: stored,
		submitOutcome: &engine.TransitionOutcome{
			Code:   engine.OutcomeAutoApproved,
			Stage:  claim.StageManagerReview,
			Status: claim.StatusPendingManagerReview,
		},
	}
	srv := newTestServer(eng)

	w := doJSON(t, srv, http.MethodPost, "/api/claims", SubmitClaimRequest{
		OwnerID:               "lecturer-1",
		Period:                "2026-01",
		HoursWorked:           "100",
		HourlyRate:            "150",
		HasSupportingDocument: true,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestSubmitClaim_BadDecimal(t *testing.T) {
	srv := newTestServer(&mockEngine{})

	w := doJSON(t, srv, http.MethodPost, "/api/claims", SubmitClaimRequest{
		OwnerID:     "lecturer-1",
		Period:      "2026-01",
		HoursWorked: "a lot",
		HourlyRate:  "150",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Contains(t, resp.Error, "hours_worked")
}

func TestSubmitClaim_MissingFields(t *testing.T) {
	srv := newTestServer(&mockEngine{})

	w := doJSON(t, srv, http.MethodPost, "/api/claims", map[string]string{"owner_id": "x"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatus_NotFound(t *testing.T) {
	eng := &mockEngine{statusErr: fmt.Errorf("lookup: %w", engine.ErrNotFound)}
	srv := newTestServer(eng)

	w := doJSON(t, srv, http.MethodGet, "/api/claims/99/status", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStatus_InvalidID(t *testing.T) {
	srv := newTestServer(&mockEngine{})

	w := doJSON(t, srv, http.MethodGet, "/api/claims/not-a-number/status", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecisionEndpoints(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"coordinator recommend", "/api/claims/1/coordinator/recommend"},
		{"coordinator reject", "/api/claims/1/coordinator/reject"},
		{"manager approve", "/api/claims/1/manager/approve"},
		{"manager reject", "/api/claims/1/manager/reject"},
		{"manager override", "/api/claims/1/manager/override"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &mockEngine{decision: &engine.TransitionOutcome{
				Code:   engine.OutcomeApproved,
				Stage:  claim.StageCompleted,
				Status: claim.StatusApproved,
			}}
			srv := newTestServer(eng)

			w := doJSON(t, srv, http.MethodPost, tt.path, DecisionRequest{
				ReviewerID: "reviewer-1",
				Reason:     "checked",
			})

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "reviewer-1", eng.lastReviewer)
		})
	}
}

func TestDecision_MissingReviewer(t *testing.T) {
	srv := newTestServer(&mockEngine{})

	w := doJSON(t, srv, http.MethodPost, "/api/claims/1/manager/approve", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecision_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthorized", engine.ErrUnauthorized, http.StatusForbidden},
		{"reason required", engine.ErrReasonRequired, http.StatusBadRequest},
		{"version conflict", port.ErrVersionConflict, http.StatusConflict},
		{"unknown", fmt.Errorf("database gone"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &mockEngine{decisionErr: tt.err}
			srv := newTestServer(eng)

			w := doJSON(t, srv, http.MethodPost, "/api/claims/1/manager/reject", DecisionRequest{
				ReviewerID: "manager-1",
				Reason:     "r",
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
		})
	}
}

func TestQueues(t *testing.T) {
	c := claim.New("lecturer-1", "2026-01", decMust("10"), decMust("100"), true)
	c.ID = 5
	srv := newTestServer(&mockEngine{queue: []*claim.Claim{c}})

	for _, path := range []string{"/api/queues/coordinator", "/api/queues/manager", "/api/owners/lecturer-1/claims"} {
		w := doJSON(t, srv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)

		resp := decodeResponse(t, w)
		items, ok := resp.Data.([]interface{})
		require.True(t, ok, path)
		assert.Len(t, items, 1, path)
	}
}

func TestRunBatch(t *testing.T) {
	srv := newTestServer(&mockEngine{summary: &engine.BatchSummary{Processed: 10, Approved: 4, Rejected: 2}})

	w := doJSON(t, srv, http.MethodPost, "/api/batch/run", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(10), data["processed"])
	assert.Equal(t, float64(4), data["approved"])
}
