// Package engine implements the claim workflow engine: automated advancement,
// manual reviewer decisions, batch processing, and status reporting. Every
// transition is a single atomic read-modify-write against the claim store and
// emits one audit record.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/claimsuite/claimflow/internal/domain/claim"
	"github.com/claimsuite/claimflow/internal/verify"
)

var (
	// ErrNotFound is returned when the claim id is unknown
	ErrNotFound = errors.New("claim not found")

	// ErrUnauthorized is returned when the reviewer lacks the required role
	ErrUnauthorized = errors.New("reviewer lacks required authority")

	// ErrReasonRequired is returned when a terminal or recommending decision
	// arrives without an explanation
	ErrReasonRequired = errors.New("a non-empty reason is required")
)

// OutcomeCode classifies the result of a workflow operation
type OutcomeCode string

const (
	OutcomeAutoApproved     OutcomeCode = "AutoApproved"
	OutcomeAutoRejected     OutcomeCode = "AutoRejected"
	OutcomeUnderReview      OutcomeCode = "UnderReview"
	OutcomeRecommended      OutcomeCode = "Recommended"
	OutcomeRejected         OutcomeCode = "Rejected"
	OutcomeApproved         OutcomeCode = "Approved"
	OutcomeOverridden       OutcomeCode = "Overridden"
	OutcomeAlreadyFinalized OutcomeCode = "AlreadyFinalized"
	OutcomeDuplicateAction  OutcomeCode = "DuplicateAction"
	OutcomeValidationFailed OutcomeCode = "ValidationFailed"
)

// TransitionOutcome is the structured result of one workflow operation.
// AlreadyFinalized and DuplicateAction are no-op results, not errors: they
// report that the requested decision was refused without mutation.
type TransitionOutcome struct {
	Code    OutcomeCode     `json:"code"`
	Message string          `json:"message"`
	Stage   claim.Stage     `json:"stage"`
	Status  claim.Status    `json:"status"`
	Verdict *verify.Verdict `json:"verdict,omitempty"`
}

// Mutated reports whether the operation changed the claim
func (o *TransitionOutcome) Mutated() bool {
	switch o.Code {
	case OutcomeAlreadyFinalized, OutcomeDuplicateAction, OutcomeValidationFailed:
		return false
	}
	return true
}

// BatchSummary aggregates one automated pass over eligible claims
type BatchSummary struct {
	Processed   int       `json:"processed"`
	Approved    int       `json:"approved"`
	Rejected    int       `json:"rejected"`
	CompletedAt time.Time `json:"completed_at"`
}

// WorkflowStatus is the polling view of a single claim
type WorkflowStatus struct {
	ClaimID               int64          `json:"claim_id"`
	Stage                 claim.Stage    `json:"stage"`
	Status                claim.Status   `json:"status"`
	IsCoordinatorApproved bool           `json:"is_coordinator_approved"`
	IsManagerApproved     bool           `json:"is_manager_approved"`
	CoordinatorApprover   string         `json:"coordinator_approver,omitempty"`
	ManagerApprover       string         `json:"manager_approver,omitempty"`
	LastVerifiedAt        time.Time      `json:"last_verified_at"`
	Verdict               verify.Verdict `json:"verdict"`
}

// SubmitInput carries the fields a lecturer provides at submission.
// Document storage is external; only the presence flag is recorded.
type SubmitInput struct {
	OwnerID               string
	Period                string
	HoursWorked           decimal.Decimal
	HourlyRate            decimal.Decimal
	HasSupportingDocument bool
}

// Engine exposes the claim workflow operations to the transport layer
type Engine interface {
	// Submit creates a claim in its initial stage and runs the on-submit
	// advancement, returning the stored claim and the transition outcome
	Submit(ctx context.Context, in SubmitInput) (*claim.Claim, *TransitionOutcome, error)

	// Verify runs the verification rules against a stored claim without
	// mutating it
	Verify(ctx context.Context, claimID int64) (*verify.Verdict, error)

	// Advance drives one claim through automated verification and the
	// resulting stage transition
	Advance(ctx context.Context, claimID int64) (*TransitionOutcome, error)

	// RecommendByCoordinator records a coordinator recommendation; valid only
	// while the claim sits at coordinator review and passes verification
	RecommendByCoordinator(ctx context.Context, claimID int64, reviewerID, notes string) (*TransitionOutcome, error)

	// RejectByCoordinator terminally rejects a claim with a coordinator reason
	RejectByCoordinator(ctx context.Context, claimID int64, reviewerID, reason string) (*TransitionOutcome, error)

	// FinalApprove records the manager's terminal approval
	FinalApprove(ctx context.Context, claimID int64, reviewerID string) (*TransitionOutcome, error)

	// FinalReject terminally rejects a claim with a manager reason
	FinalReject(ctx context.Context, claimID int64, reviewerID, reason string) (*TransitionOutcome, error)

	// Override forces approval past the rule engine; manager authority only,
	// always audited with the supplied reason
	Override(ctx context.Context, claimID int64, reviewerID, reason string) (*TransitionOutcome, error)

	// GetStatus returns the polling view of a claim including a fresh verdict
	GetStatus(ctx context.Context, claimID int64) (*WorkflowStatus, error)

	// RunAutomatedPass advances every claim at coordinator review and
	// aggregates the results; safe to re-run
	RunAutomatedPass(ctx context.Context) (*BatchSummary, error)

	// ListForCoordinatorReview returns the coordinator queue, oldest first
	ListForCoordinatorReview(ctx context.Context) ([]*claim.Claim, error)

	// ListForManagerReview returns claims awaiting a manager decision
	ListForManagerReview(ctx context.Context) ([]*claim.Claim, error)

	// ListByOwner returns one lecturer's claims, newest first
	ListByOwner(ctx context.Context, ownerID string) ([]*claim.Claim, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
