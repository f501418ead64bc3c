package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claimsuite/claimflow/internal/application/dispatcher"
	"github.com/claimsuite/claimflow/internal/application/port"
	"github.com/claimsuite/claimflow/internal/domain/claim"
	"github.com/claimsuite/claimflow/internal/domain/event"
	"github.com/claimsuite/claimflow/internal/verify"
)

type engineImpl struct {
	claims     port.ClaimRepository
	audit      port.AuditSink
	authority  port.AuthorityChecker
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	thresholds verify.ThresholdConfig
	logger     Logger
}

// Option configures the workflow engine
type Option func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting transition events
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithThresholds overrides the default verification thresholds
func WithThresholds(cfg verify.ThresholdConfig) Option {
	return func(e *engineImpl) {
		e.thresholds = cfg
	}
}

// New creates a new workflow engine
func New(
	claims port.ClaimRepository,
	audit port.AuditSink,
	authority port.AuthorityChecker,
	txManager port.TransactionManager,
	logger Logger,
	opts ...Option,
) Engine {
	e := &engineImpl{
		claims:     claims,
		audit:      audit,
		authority:  authority,
		txManager:  txManager,
		thresholds: verify.DefaultThresholds(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit creates a claim and runs the on-submit advancement
func (e *engineImpl) Submit(ctx context.Context, in SubmitInput) (*claim.Claim, *TransitionOutcome, error) {
	if in.OwnerID == "" {
		return nil, nil, fmt.Errorf("owner id is required")
	}
	if in.Period == "" {
		return nil, nil, fmt.Errorf("claim period is required")
	}

	c := claim.New(in.OwnerID, in.Period, in.HoursWorked, in.HourlyRate, in.HasSupportingDocument)
	if err := e.claims.Create(ctx, c); err != nil {
		e.logger.Error("Failed to create claim", "owner_id", in.OwnerID, "period", in.Period, "error", err)
		return nil, nil, fmt.Errorf("create claim: %w", err)
	}

	e.logger.Info("Claim submitted", "claim_id", c.ID, "owner_id", c.OwnerID, "period", c.Period)
	e.publish(event.NewEvent(event.TypeClaimSubmitted, c.ID, map[string]interface{}{
		"owner_id": c.OwnerID,
		"period":   c.Period,
	}))

	outcome, err := e.Advance(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}

	// Return the post-advance state
	updated, err := e.claims.GetByID(ctx, c.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload claim: %w", err)
	}
	return updated, outcome, nil
}

// Verify runs the rules against a stored claim without mutating it
func (e *engineImpl) Verify(ctx context.Context, claimID int64) (*verify.Verdict, error) {
	c, err := e.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, claimID)
	}

	siblings, err := e.claims.ListSiblings(ctx, c.OwnerID, c.Period, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load sibling claims: %w", err)
	}

	v := verify.Verify(c, siblings, e.thresholds)
	return &v, nil
}

// GetStatus returns the polling view of a claim including a fresh verdict
func (e *engineImpl) GetStatus(ctx context.Context, claimID int64) (*WorkflowStatus, error) {
	c, err := e.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, claimID)
	}

	siblings, err := e.claims.ListSiblings(ctx, c.OwnerID, c.Period, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load sibling claims: %w", err)
	}
	v := verify.Verify(c, siblings, e.thresholds)

	return &WorkflowStatus{
		ClaimID:               c.ID,
		Stage:                 c.Stage,
		Status:                c.Status,
		IsCoordinatorApproved: c.IsCoordinatorApproved,
		IsManagerApproved:     c.IsManagerApproved,
		CoordinatorApprover:   c.CoordinatorApprover,
		ManagerApprover:       c.ManagerApprover,
		LastVerifiedAt:        v.VerifiedAt,
		Verdict:               v,
	}, nil
}

// ListForCoordinatorReview returns the coordinator queue, oldest first
func (e *engineImpl) ListForCoordinatorReview(ctx context.Context) ([]*claim.Claim, error) {
	return e.claims.ListByStage(ctx, claim.StageCoordinatorReview)
}

// ListForManagerReview returns claims awaiting a manager decision: either
// recommended by a coordinator or auto-advanced to the manager stage
func (e *engineImpl) ListForManagerReview(ctx context.Context) ([]*claim.Claim, error) {
	recommended, err := e.claims.ListByStage(ctx, claim.StageCoordinatorReview)
	if err != nil {
		return nil, err
	}
	advanced, err := e.claims.ListByStage(ctx, claim.StageManagerReview)
	if err != nil {
		return nil, err
	}

	var result []*claim.Claim
	for _, c := range recommended {
		if c.Status == claim.StatusCoordinatorRecommended {
			result = append(result, c)
		}
	}
	for _, c := range advanced {
		if c.Status == claim.StatusPendingManagerReview && c.IsCoordinatorApproved {
			result = append(result, c)
		}
	}
	return result, nil
}

// ListByOwner returns one lecturer's claims, newest first
func (e *engineImpl) ListByOwner(ctx context.Context, ownerID string) ([]*claim.Claim, error) {
	return e.claims.ListByOwner(ctx, ownerID)
}

// recordTransition appends one audit record for a committed transition
func (e *engineImpl) recordTransition(ctx context.Context, c *claim.Claim, action, reviewer, reason string, fromStage claim.Stage, fromStatus claim.Status) error {
	rec := &port.AuditRecord{
		ClaimID:    c.ID,
		Action:     action,
		Reviewer:   reviewer,
		Reason:     reason,
		FromStage:  fromStage,
		ToStage:    c.Stage,
		FromStatus: fromStatus,
		ToStatus:   c.Status,
		Timestamp:  time.Now(),
	}
	if err := e.audit.Record(ctx, rec); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// publish dispatches a domain event asynchronously when a dispatcher is wired
func (e *engineImpl) publish(evt *event.Event) {
	if e.dispatcher != nil {
		e.dispatcher.DispatchAsync(context.Background(), evt)
	}
}

// joinErrors flattens verdict errors into one human-readable reason
func joinErrors(errs []string) string {
	return strings.Join(errs, "; ")
}
