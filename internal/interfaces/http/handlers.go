package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/claimsuite/claimflow/internal/application/engine"
	"github.com/claimsuite/claimflow/internal/application/port"
	"github.com/claimsuite/claimflow/internal/domain/claim"
	"github.com/claimsuite/claimflow/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine engine.Engine
	audit  port.AuditSink
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(eng engine.Engine, audit port.AuditSink, logger Logger) *Handlers {
	return &Handlers{
		engine: eng,
		audit:  audit,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitClaimRequest carries a new claim submission.
// Hours and rate arrive as decimal strings to avoid float rounding.
type SubmitClaimRequest struct {
	OwnerID               string `json:"owner_id" binding:"required"`
	Period                string `json:"period" binding:"required"`
	HoursWorked           string `json:"hours_worked" binding:"required"`
	HourlyRate            string `json:"hourly_rate" binding:"required"`
	HasSupportingDocument bool   `json:"has_supporting_document"`
}

// DecisionRequest carries a reviewer decision
type DecisionRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
	Reason     string `json:"reason"`
}

// ClaimResponse represents a claim in API responses
type ClaimResponse struct {
	ID                    int64   `json:"id"`
	OwnerID               string  `json:"owner_id"`
	Period                string  `json:"period"`
	HoursWorked           string  `json:"hours_worked"`
	HourlyRate            string  `json:"hourly_rate"`
	TotalAmount           string  `json:"total_amount"`
	HasSupportingDocument bool    `json:"has_supporting_document"`
	Stage                 string  `json:"stage"`
	Status                string  `json:"status"`
	IsCoordinatorApproved bool    `json:"is_coordinator_approved"`
	IsManagerApproved     bool    `json:"is_manager_approved"`
	CoordinatorApprover   string  `json:"coordinator_approver,omitempty"`
	ManagerApprover       string  `json:"manager_approver,omitempty"`
	CoordinatorReviewDate *string `json:"coordinator_review_date,omitempty"`
	ManagerReviewDate     *string `json:"manager_review_date,omitempty"`
	RejectionReason       string  `json:"rejection_reason,omitempty"`
	DecisionReason        string  `json:"decision_reason,omitempty"`
	SubmittedDate         string  `json:"submitted_date"`
}

// SubmitClaimResponse pairs the stored claim with its on-submit outcome
type SubmitClaimResponse struct {
	Claim   ClaimResponse             `json:"claim"`
	Outcome *engine.TransitionOutcome `json:"outcome"`
}

// AuditEntryResponse represents one audit record in API responses
type AuditEntryResponse struct {
	ClaimID    int64  `json:"claim_id"`
	Action     string `json:"action"`
	Reviewer   string `json:"reviewer"`
	Reason     string `json:"reason,omitempty"`
	FromStage  string `json:"from_stage"`
	ToStage    string `json:"to_stage"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Timestamp  string `json:"timestamp"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitClaim handles POST /api/claims
func (h *Handlers) SubmitClaim(c *gin.Context) {
	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	in, err := req.toSubmitInput()
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	stored, outcome, err := h.engine.Submit(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, "submit claim", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: SubmitClaimResponse{
			Claim:   toClaimResponse(stored),
			Outcome: outcome,
		},
	})
}

// GetStatus handles GET /api/claims/:id/status
func (h *Handlers) GetStatus(c *gin.Context) {
	id, ok := h.claimID(c)
	if !ok {
		return
	}

	status, err := h.engine.GetStatus(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "get status", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: status})
}

// GetVerdict handles GET /api/claims/:id/verdict
func (h *Handlers) GetVerdict(c *gin.Context) {
	id, ok := h.claimID(c)
	if !ok {
		return
	}

	verdict, err := h.engine.Verify(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "verify claim", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: verdict})
}

// GetAuditTrail handles GET /api/claims/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	id, ok := h.claimID(c)
	if !ok {
		return
	}

	records, err := h.audit.GetByClaimID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "get audit trail", err)
		return
	}

	entries := make([]AuditEntryResponse, 0, len(records))
	for _, rec := range records {
		entries = append(entries, AuditEntryResponse{
			ClaimID:    rec.ClaimID,
			Action:     rec.Action,
			Reviewer:   rec.Reviewer,
			Reason:     rec.Reason,
			FromStage:  rec.FromStage.String(),
			ToStage:    rec.ToStage.String(),
			FromStatus: rec.FromStatus.String(),
			ToStatus:   rec.ToStatus.String(),
			Timestamp:  rec.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// AdvanceClaim handles POST /api/claims/:id/advance
func (h *Handlers) AdvanceClaim(c *gin.Context) {
	id, ok := h.claimID(c)
	if !ok {
		return
	}

	outcome, err := h.engine.Advance(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "advance claim", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: outcome})
}

// CoordinatorRecommend handles POST /api/claims/:id/coordinator/recommend
func (h *Handlers) CoordinatorRecommend(c *gin.Context) {
	h.decision(c, func(id int64, req DecisionRequest) (*engine.TransitionOutcome, error) {
		return h.engine.RecommendByCoordinator(c.Request.Context(), id, req.ReviewerID, req.Reason)
	})
}

// CoordinatorReject handles POST /api/claims/:id/coordinator/reject
func (h *Handlers) CoordinatorReject(c *gin.Context) {
	h.decision(c, func(id int64, req DecisionRequest) (*engine.TransitionOutcome, error) {
		return h.engine.RejectByCoordinator(c.Request.Context(), id, req.ReviewerID, req.Reason)
	})
}

// ManagerApprove handles POST /api/claims/:id/manager/approve
func (h *Handlers) ManagerApprove(c *gin.Context) {
	h.decision(c, func(id int64, req DecisionRequest) (*engine.TransitionOutcome, error) {
		return h.engine.FinalApprove(c.Request.Context(), id, req.ReviewerID)
	})
}

// ManagerReject handles POST /api/claims/:id/manager/reject
func (h *Handlers) ManagerReject(c *gin.Context) {
	h.decision(c, func(id int64, req DecisionRequest) (*engine.TransitionOutcome, error) {
		return h.engine.FinalReject(c.Request.Context(), id, req.ReviewerID, req.Reason)
	})
}

// ManagerOverride handles POST /api/claims/:id/manager/override
func (h *Handlers) ManagerOverride(c *gin.Context) {
	h.decision(c, func(id int64, req DecisionRequest) (*engine.TransitionOutcome, error) {
		return h.engine.Override(c.Request.Context(), id, req.ReviewerID, req.Reason)
	})
}

// CoordinatorQueue handles GET /api/queues/coordinator
func (h *Handlers) CoordinatorQueue(c *gin.Context) {
	claims, err := h.engine.ListForCoordinatorReview(c.Request.Context())
	if err != nil {
		h.writeError(c, "list coordinator queue", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toClaimResponses(claims)})
}

// ManagerQueue handles GET /api/queues/manager
func (h *Handlers) ManagerQueue(c *gin.Context) {
	claims, err := h.engine.ListForManagerReview(c.Request.Context())
	if err != nil {
		h.writeError(c, "list manager queue", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toClaimResponses(claims)})
}

// OwnerClaims handles GET /api/owners/:id/claims
func (h *Handlers) OwnerClaims(c *gin.Context) {
	ownerID := c.Param("id")
	claims, err := h.engine.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.writeError(c, "list owner claims", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toClaimResponses(claims)})
}

// RunBatch handles POST /api/batch/run
func (h *Handlers) RunBatch(c *gin.Context) {
	summary, err := h.engine.RunAutomatedPass(c.Request.Context())
	if err != nil {
		h.writeError(c, "run automated pass", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// decision binds a reviewer decision body and dispatches it
func (h *Handlers) decision(c *gin.Context, fn func(int64, DecisionRequest) (*engine.TransitionOutcome, error)) {
	id, ok := h.claimID(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := fn(id, req)
	if err != nil {
		h.writeError(c, "apply decision", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: outcome})
}

// claimID parses the :id path parameter, writing a 400 on failure
func (h *Handlers) claimID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid claim ID")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// writeError maps engine errors onto HTTP status codes
func (h *Handlers) writeError(c *gin.Context, op string, err error) {
	h.logger.Error("Request failed", "operation", op, "path", c.Request.URL.Path, "error", err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrReasonRequired):
		status = http.StatusBadRequest
	case errors.Is(err, port.ErrVersionConflict), errors.Is(err, workflow.ErrInvalidTransition):
		status = http.StatusConflict
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func (r *SubmitClaimRequest) toSubmitInput() (engine.SubmitInput, error) {
	hours, err := decimalField("hours_worked", r.HoursWorked)
	if err != nil {
		return engine.SubmitInput{}, err
	}
	rate, err := decimalField("hourly_rate", r.HourlyRate)
	if err != nil {
		return engine.SubmitInput{}, err
	}
	return engine.SubmitInput{
		OwnerID:               r.OwnerID,
		Period:                r.Period,
		HoursWorked:           hours,
		HourlyRate:            rate,
		HasSupportingDocument: r.HasSupportingDocument,
	}, nil
}

// decimalField parses one decimal request field, naming it on failure
func decimalField(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %q is not a decimal number", name, value)
	}
	return d, nil
}

// toClaimResponse converts a domain claim to its API representation
func toClaimResponse(c *claim.Claim) ClaimResponse {
	resp := ClaimResponse{
		ID:                    c.ID,
		OwnerID:               c.OwnerID,
		Period:                c.Period,
		HoursWorked:           c.HoursWorked.String(),
		HourlyRate:            c.HourlyRate.String(),
		TotalAmount:           c.TotalAmount().String(),
		HasSupportingDocument: c.HasSupportingDocument,
		Stage:                 c.Stage.String(),
		Status:                c.Status.String(),
		IsCoordinatorApproved: c.IsCoordinatorApproved,
		IsManagerApproved:     c.IsManagerApproved,
		CoordinatorApprover:   c.CoordinatorApprover,
		ManagerApprover:       c.ManagerApprover,
		RejectionReason:       c.RejectionReason,
		DecisionReason:        c.DecisionReason,
		SubmittedDate:         c.SubmittedDate.UTC().Format(time.RFC3339),
	}

	if c.CoordinatorReviewDate != nil {
		t := c.CoordinatorReviewDate.UTC().Format(time.RFC3339)
		resp.CoordinatorReviewDate = &t
	}
	if c.ManagerReviewDate != nil {
		t := c.ManagerReviewDate.UTC().Format(time.RFC3339)
		resp.ManagerReviewDate = &t
	}

	return resp
}

func toClaimResponses(claims []*claim.Claim) []ClaimResponse {
	responses := make([]ClaimResponse, 0, len(claims))
	for _, c := range claims {
		responses = append(responses, toClaimResponse(c))
	}
	return responses
}
