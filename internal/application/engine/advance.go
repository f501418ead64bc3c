package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/claimsuite/claimflow/internal/domain/claim"
	"github.com/claimsuite/claimflow/internal/domain/event"
	"github.com/claimsuite/claimflow/internal/domain/workflow"
	"github.com/claimsuite/claimflow/internal/verify"
)

// Advance drives one claim through automated verification and the resulting
// stage transition. The load, verdict application, save, and audit record
// form a single transaction; concurrent callers on the same claim id are
// serialized by the store's version guard.
func (e *engineImpl) Advance(ctx context.Context, claimID int64) (*TransitionOutcome, error) {
	var outcome *TransitionOutcome
	var evt *event.Event

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := e.claims.GetByID(txCtx, claimID)
		if err != nil {
			return fmt.Errorf("load claim: %w", err)
		}
		if c == nil {
			return fmt.Errorf("%w: id %d", ErrNotFound, claimID)
		}

		if c.IsFinalized() {
			outcome = alreadyFinalized(c)
			return nil
		}

		siblings, err := e.claims.ListSiblings(txCtx, c.OwnerID, c.Period, c.ID)
		if err != nil {
			return fmt.Errorf("load sibling claims: %w", err)
		}
		v := verify.Verify(c, siblings, e.thresholds)

		fromStage, fromStatus := c.Stage, c.Status
		machine := workflow.BuildClaimStateMachine(workflow.State(c.Stage))

		switch {
		case !v.IsValid && v.RecommendedAction == verify.ActionReject:
			if err := machine.Fire(txCtx, workflow.TriggerAutoReject); err != nil {
				return err
			}
			c.Stage = claim.Stage(machine.State())
			c.Status = claim.StatusRejected
			c.RejectionReason = "Auto-rejected: " + joinErrors(v.Errors)
			if err := e.saveAndAudit(txCtx, c, "auto_reject", claim.SystemReviewerID, c.RejectionReason, fromStage, fromStatus); err != nil {
				return err
			}
			outcome = &TransitionOutcome{
				Code:    OutcomeAutoRejected,
				Message: "claim rejected by automated verification",
				Stage:   c.Stage,
				Status:  c.Status,
				Verdict: &v,
			}
			evt = event.NewEvent(event.TypeClaimAutoRejected, c.ID, map[string]interface{}{
				"reason": c.RejectionReason,
			})

		// A claim the coordinator already decided keeps that human decision;
		// the automation never restamps it.
		case v.CanAutoApprove && c.Stage == claim.StageCoordinatorReview && !c.HasCoordinatorDecision():
			if err := machine.Fire(txCtx, workflow.TriggerAutoApprove); err != nil {
				return err
			}
			now := time.Now()
			c.Stage = claim.Stage(machine.State())
			c.Status = claim.StatusPendingManagerReview
			c.IsCoordinatorApproved = true
			c.CoordinatorApprover = claim.SystemReviewerID
			c.CoordinatorReviewDate = &now
			c.DecisionReason = v.AutoApprovalReason
			if err := e.saveAndAudit(txCtx, c, "auto_approve", claim.SystemReviewerID, v.AutoApprovalReason, fromStage, fromStatus); err != nil {
				return err
			}
			outcome = &TransitionOutcome{
				Code:    OutcomeAutoApproved,
				Message: "claim auto-approved at coordinator stage, pending manager review",
				Stage:   c.Stage,
				Status:  c.Status,
				Verdict: &v,
			}
			evt = event.NewEvent(event.TypeClaimAutoApproved, c.ID, map[string]interface{}{
				"reason": v.AutoApprovalReason,
			})

		default:
			// First-touch transition only: a claim already under manual
			// recommendation keeps its status.
			if c.Status == claim.StatusSubmitted {
				c.Status = claim.StatusUnderReview
				if err := e.saveAndAudit(txCtx, c, "mark_under_review", claim.SystemReviewerID, "claim requires manual review", fromStage, fromStatus); err != nil {
					return err
				}
				evt = event.NewEvent(event.TypeStatusChanged, c.ID, map[string]interface{}{
					"from_status": fromStatus.String(),
					"to_status":   c.Status.String(),
				})
			}
			outcome = &TransitionOutcome{
				Code:    OutcomeUnderReview,
				Message: "claim requires manual review",
				Stage:   c.Stage,
				Status:  c.Status,
				Verdict: &v,
			}
		}

		return nil
	})

	if err != nil {
		e.logger.Error("Advance failed", "claim_id", claimID, "error", err)
		return nil, err
	}

	if evt != nil {
		e.publish(evt)
	}
	e.logger.Info("Claim advanced", "claim_id", claimID, "outcome", outcome.Code, "stage", outcome.Stage, "status", outcome.Status)
	return outcome, nil
}

// saveAndAudit persists the mutated claim and its audit record inside the
// caller's transaction
func (e *engineImpl) saveAndAudit(ctx context.Context, c *claim.Claim, action, reviewer, reason string, fromStage claim.Stage, fromStatus claim.Status) error {
	if err := e.claims.Update(ctx, c); err != nil {
		return fmt.Errorf("save claim: %w", err)
	}
	return e.recordTransition(ctx, c, action, reviewer, reason, fromStage, fromStatus)
}

// alreadyFinalized builds the fail-closed no-op outcome for terminal claims
func alreadyFinalized(c *claim.Claim) *TransitionOutcome {
	return &TransitionOutcome{
		Code:    OutcomeAlreadyFinalized,
		Message: fmt.Sprintf("claim is already finalized with status %s", c.Status),
		Stage:   c.Stage,
		Status:  c.Status,
	}
}
