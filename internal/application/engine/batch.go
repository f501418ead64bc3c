package engine

import (
	"context"
	"time"

	"github.com/claimsuite/claimflow/internal/domain/claim"
	"github.com/claimsuite/claimflow/internal/domain/event"
)

// RunAutomatedPass advances every claim still at coordinator review and
// aggregates the results. Each claim's transition is independently atomic:
// a failure on one claim is logged and the pass continues. The selection
// predicate excludes anything already advanced, so re-running the pass never
// double-counts.
func (e *engineImpl) RunAutomatedPass(ctx context.Context) (*BatchSummary, error) {
	eligible, err := e.claims.ListByStage(ctx, claim.StageCoordinatorReview)
	if err != nil {
		e.logger.Error("Failed to list claims for automated pass", "error", err)
		return nil, err
	}

	summary := &BatchSummary{}
	for _, c := range eligible {
		if ctx.Err() != nil {
			// Cancellation between iterations leaves committed claims intact
			break
		}

		outcome, err := e.Advance(ctx, c.ID)
		if err != nil {
			e.logger.Error("Automated pass skipped claim", "claim_id", c.ID, "error", err)
			continue
		}

		summary.Processed++
		switch outcome.Code {
		case OutcomeAutoApproved:
			summary.Approved++
		case OutcomeAutoRejected:
			summary.Rejected++
		}
	}
	summary.CompletedAt = time.Now()

	e.logger.Info("Automated pass completed",
		"processed", summary.Processed,
		"approved", summary.Approved,
		"rejected", summary.Rejected,
	)
	e.publish(event.NewEvent(event.TypeBatchCompleted, 0, map[string]interface{}{
		"processed": summary.Processed,
		"approved":  summary.Approved,
		"rejected":  summary.Rejected,
	}))

	return summary, nil
}
