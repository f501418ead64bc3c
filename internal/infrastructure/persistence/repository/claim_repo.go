package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/claimsuite/claimflow/internal/application/port"
	"github.com/claimsuite/claimflow/internal/domain/claim"
	"github.com/claimsuite/claimflow/internal/infrastructure/persistence/sqlite"
)

// ClaimRepository implements port.ClaimRepository on sqlite
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{db: db, logger: logger}
}

const claimColumns = `
	id, owner_id, period, hours_worked, hourly_rate, has_supporting_document,
	stage, status, is_coordinator_approved, is_manager_approved,
	coordinator_approver, manager_approver,
	coordinator_review_date, manager_review_date,
	rejection_reason, decision_reason, submitted_date,
	version, created_at, updated_at`

// Create persists a new claim and assigns its ID
func (r *ClaimRepository) Create(ctx context.Context, c *claim.Claim) error {
	query := `
		INSERT INTO claims (
			owner_id, period, hours_worked, hourly_rate, has_supporting_document,
			stage, status, rejection_reason, decision_reason, submitted_date,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	now := time.Now()
	result, err := r.executor(ctx).ExecContext(ctx, query,
		c.OwnerID,
		c.Period,
		c.HoursWorked.String(),
		c.HourlyRate.String(),
		c.HasSupportingDocument,
		c.Stage.String(),
		c.Status.String(),
		c.RejectionReason,
		c.DecisionReason,
		c.SubmittedDate,
		now,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetByID retrieves a claim by ID; returns nil, nil when absent
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*claim.Claim, error) {
	query := `SELECT` + claimColumns + ` FROM claims WHERE id = ?`

	c, err := r.scanClaim(r.executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

// Update persists the claim's mutable state, guarded by its version.
// The version check is the compare-and-swap that serializes concurrent
// transitions on the same claim id.
func (r *ClaimRepository) Update(ctx context.Context, c *claim.Claim) error {
	query := `
		UPDATE claims SET
			stage = ?, status = ?,
			is_coordinator_approved = ?, is_manager_approved = ?,
			coordinator_approver = ?, manager_approver = ?,
			coordinator_review_date = ?, manager_review_date = ?,
			rejection_reason = ?, decision_reason = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		c.Stage.String(),
		c.Status.String(),
		c.IsCoordinatorApproved,
		c.IsManagerApproved,
		c.CoordinatorApprover,
		c.ManagerApprover,
		nullableTime(c.CoordinatorReviewDate),
		nullableTime(c.ManagerReviewDate),
		c.RejectionReason,
		c.DecisionReason,
		time.Now(),
		c.ID,
		c.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update claim", zap.Int64("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update claim: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claim %d at version %d: %w", c.ID, c.Version, port.ErrVersionConflict)
	}

	c.Version++
	return nil
}

// ListByStage retrieves claims sitting at the given stage, oldest first
func (r *ClaimRepository) ListByStage(ctx context.Context, stage claim.Stage) ([]*claim.Claim, error) {
	query := `SELECT` + claimColumns + ` FROM claims WHERE stage = ? ORDER BY submitted_date ASC`
	return r.queryClaims(ctx, query, stage.String())
}

// ListByOwner retrieves all claims submitted by one lecturer, newest first
func (r *ClaimRepository) ListByOwner(ctx context.Context, ownerID string) ([]*claim.Claim, error) {
	query := `SELECT` + claimColumns + ` FROM claims WHERE owner_id = ? ORDER BY submitted_date DESC`
	return r.queryClaims(ctx, query, ownerID)
}

// ListSiblings retrieves the owner's non-rejected claims for a period,
// excluding the given claim ID
func (r *ClaimRepository) ListSiblings(ctx context.Context, ownerID, period string, excludeID int64) ([]*claim.Claim, error) {
	query := `SELECT` + claimColumns + `
		FROM claims
		WHERE owner_id = ? AND period = ? AND id != ? AND status != ?
		ORDER BY submitted_date ASC`
	return r.queryClaims(ctx, query, ownerID, period, excludeID, claim.StatusRejected.String())
}

func (r *ClaimRepository) queryClaims(ctx context.Context, query string, args ...interface{}) ([]*claim.Claim, error) {
	rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query claims", zap.Error(err))
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var claims []*claim.Claim
	for rows.Next() {
		c, err := r.scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *ClaimRepository) scanClaim(row scanner) (*claim.Claim, error) {
	var c claim.Claim
	var hours, rate, stage, status string
	var coordDate, mgrDate sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Period,
		&hours,
		&rate,
		&c.HasSupportingDocument,
		&stage,
		&status,
		&c.IsCoordinatorApproved,
		&c.IsManagerApproved,
		&c.CoordinatorApprover,
		&c.ManagerApprover,
		&coordDate,
		&mgrDate,
		&c.RejectionReason,
		&c.DecisionReason,
		&c.SubmittedDate,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.HoursWorked, err = decimal.NewFromString(hours); err != nil {
		return nil, fmt.Errorf("invalid hours_worked %q: %w", hours, err)
	}
	if c.HourlyRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("invalid hourly_rate %q: %w", rate, err)
	}
	c.Stage = claim.Stage(stage)
	c.Status = claim.Status(status)
	if coordDate.Valid {
		c.CoordinatorReviewDate = &coordDate.Time
	}
	if mgrDate.Valid {
		c.ManagerReviewDate = &mgrDate.Time
	}
	return &c, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// executor returns the transaction from the context when one is active
func (r *ClaimRepository) executor(ctx context.Context) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
