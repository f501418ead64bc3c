package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/claimsuite/claimflow/internal/application/port"
	"github.com/claimsuite/claimflow/internal/infrastructure/persistence/sqlite"
)

// AuditRepository implements port.AuditSink on sqlite.
// Records are append-only; there is no update or delete path.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditSink {
	return &AuditRepository{db: db, logger: logger}
}

// Record appends one audit record
func (r *AuditRepository) Record(ctx context.Context, rec *port.AuditRecord) error {
	query := `
		INSERT INTO audit_records (
			claim_id, action, reviewer, reason,
			from_stage, to_stage, from_status, to_status, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.executor(ctx).ExecContext(ctx, query,
		rec.ClaimID,
		rec.Action,
		rec.Reviewer,
		rec.Reason,
		rec.FromStage,
		rec.ToStage,
		rec.FromStatus,
		rec.ToStatus,
		rec.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to record audit entry",
			zap.Int64("claim_id", rec.ClaimID),
			zap.String("action", rec.Action),
			zap.Error(err))
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// GetByClaimID retrieves a claim's audit trail in chronological order
func (r *AuditRepository) GetByClaimID(ctx context.Context, claimID int64) ([]*port.AuditRecord, error) {
	query := `
		SELECT claim_id, action, reviewer, reason,
		       from_stage, to_stage, from_status, to_status, timestamp
		FROM audit_records
		WHERE claim_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`

	rows, err := r.executor(ctx).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to query audit trail", zap.Int64("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var records []*port.AuditRecord
	for rows.Next() {
		var rec port.AuditRecord
		if err := rows.Scan(
			&rec.ClaimID,
			&rec.Action,
			&rec.Reviewer,
			&rec.Reason,
			&rec.FromStage,
			&rec.ToStage,
			&rec.FromStatus,
			&rec.ToStatus,
			&rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *AuditRepository) executor(ctx context.Context) executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

var _ port.AuditSink = (*AuditRepository)(nil)
