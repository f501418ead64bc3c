package port

import (
	"context"
	"errors"
	"time"

	"github.com/claimsuite/claimflow/internal/domain/claim"
)

// ErrVersionConflict is returned by Update when the persisted claim has
// moved past the version the caller loaded. The caller retries by reloading;
// the engine never re-applies a decision on a stale read.
var ErrVersionConflict = errors.New("claim version conflict")

// ClaimRepository defines persistence operations for Claim
type ClaimRepository interface {
	// Create persists a new claim and assigns its ID
	Create(ctx context.Context, c *claim.Claim) error

	// GetByID retrieves a claim by ID; returns nil, nil when absent
	GetByID(ctx context.Context, id int64) (*claim.Claim, error)

	// Update persists the full mutable state of a claim, guarded by the
	// claim's Version field. Returns ErrVersionConflict on a stale write.
	Update(ctx context.Context, c *claim.Claim) error

	// ListByStage retrieves claims sitting at the given stage, oldest first
	ListByStage(ctx context.Context, stage claim.Stage) ([]*claim.Claim, error)

	// ListByOwner retrieves all claims submitted by one lecturer, newest first
	ListByOwner(ctx context.Context, ownerID string) ([]*claim.Claim, error)

	// ListSiblings retrieves the owner's non-rejected claims for a period,
	// excluding the given claim ID. Feeds the duplicate-period rule.
	ListSiblings(ctx context.Context, ownerID, period string, excludeID int64) ([]*claim.Claim, error)
}

// AuditRecord is one compliance entry per workflow transition
type AuditRecord struct {
	ID         int64
	ClaimID    int64
	Action     string
	Reviewer   string
	Reason     string
	FromStage  claim.Stage
	ToStage    claim.Stage
	FromStatus claim.Status
	ToStatus   claim.Status
	Timestamp  time.Time
}

// AuditSink receives one record per transition, including overrides
type AuditSink interface {
	Record(ctx context.Context, rec *AuditRecord) error
	GetByClaimID(ctx context.Context, claimID int64) ([]*AuditRecord, error)
}

// AuthorityChecker verifies that a reviewer holds the role a manual action
// requires. The production implementation lives in the identity provider.
type AuthorityChecker interface {
	IsAuthority(ctx context.Context, reviewerID string, role claim.Role) (bool, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
