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

// RecommendByCoordinator records a coordinator recommendation. The claim must
// sit at coordinator review and pass verification; the stage is left
// unchanged — the manager queue picks the claim up by status.
func (e *engineImpl) RecommendByCoordinator(ctx context.Context, claimID int64, reviewerID, notes string) (*TransitionOutcome, error) {
	if err := e.requireAuthority(ctx, reviewerID, claim.RoleCoordinator); err != nil {
		return nil, err
	}

	var outcome *TransitionOutcome
	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := e.loadForDecision(txCtx, claimID)
		if err != nil {
			return err
		}
		if c.IsFinalized() {
			outcome = alreadyFinalized(c)
			return nil
		}
		if c.Stage != claim.StageCoordinatorReview {
			outcome = &TransitionOutcome{
				Code:    OutcomeValidationFailed,
				Message: "claim is not at coordinator review",
				Stage:   c.Stage,
				Status:  c.Status,
			}
			return nil
		}
		if c.HasCoordinatorDecision() {
			outcome = duplicateAction(c, "coordinator")
			return nil
		}

		siblings, err := e.claims.ListSiblings(txCtx, c.OwnerID, c.Period, c.ID)
		if err != nil {
			return fmt.Errorf("load sibling claims: %w", err)
		}
		v := verify.Verify(c, siblings, e.thresholds)
		if !v.IsValid {
			outcome = &TransitionOutcome{
				Code:    OutcomeValidationFailed,
				Message: "claim failed verification: " + joinErrors(v.Errors),
				Stage:   c.Stage,
				Status:  c.Status,
				Verdict: &v,
			}
			return nil
		}

		fromStage, fromStatus := c.Stage, c.Status
		machine := workflow.BuildClaimStateMachine(workflow.State(c.Stage))
		if err := machine.Fire(txCtx, workflow.TriggerRecommend); err != nil {
			return err
		}
		now := time.Now()
		c.Status = claim.StatusCoordinatorRecommended
		c.IsCoordinatorApproved = true
		c.CoordinatorApprover = reviewerID
		c.CoordinatorReviewDate = &now
		c.DecisionReason = notes
		if err := e.saveAndAudit(txCtx, c, "recommend", reviewerID, notes, fromStage, fromStatus); err != nil {
			return err
		}
		outcome = &TransitionOutcome{
			Code:    OutcomeRecommended,
			Message: "claim recommended for manager approval",
			Stage:   c.Stage,
			Status:  c.Status,
			Verdict: &v,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Mutated() {
		e.publish(event.NewEvent(event.TypeClaimRecommended, claimID, map[string]interface{}{
			"reviewer": reviewerID,
		}))
	}
	e.logger.Info("Coordinator recommendation processed", "claim_id", claimID, "reviewer", reviewerID, "outcome", outcome.Code)
	return outcome, nil
}

// RejectByCoordinator terminally rejects a claim at coordinator review
func (e *engineImpl) RejectByCoordinator(ctx context.Context, claimID int64, reviewerID, reason string) (*TransitionOutcome, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if err := e.requireAuthority(ctx, reviewerID, claim.RoleCoordinator); err != nil {
		return nil, err
	}
	return e.terminalDecision(ctx, claimID, terminalDecisionSpec{
		trigger:  workflow.TriggerCoordinatorReject,
		action:   "coordinator_reject",
		reviewer: reviewerID,
		reason:   "Coordinator: " + reason,
		guard: func(c *claim.Claim) *TransitionOutcome {
			if c.HasCoordinatorDecision() {
				return duplicateAction(c, "coordinator")
			}
			return nil
		},
		apply: func(c *claim.Claim, now time.Time) {
			c.Status = claim.StatusRejected
			c.RejectionReason = "Coordinator: " + reason
			c.CoordinatorApprover = reviewerID
			c.CoordinatorReviewDate = &now
		},
		code:      OutcomeRejected,
		message:   "claim rejected by coordinator",
		eventType: event.TypeClaimRejected,
	})
}

// FinalApprove records the manager's terminal approval
func (e *engineImpl) FinalApprove(ctx context.Context, claimID int64, reviewerID string) (*TransitionOutcome, error) {
	if err := e.requireAuthority(ctx, reviewerID, claim.RoleManager); err != nil {
		return nil, err
	}
	return e.terminalDecision(ctx, claimID, terminalDecisionSpec{
		trigger:  workflow.TriggerFinalApprove,
		action:   "final_approve",
		reviewer: reviewerID,
		reason:   "approved by manager",
		guard: func(c *claim.Claim) *TransitionOutcome {
			if c.HasManagerDecision() {
				return duplicateAction(c, "manager")
			}
			return nil
		},
		apply: func(c *claim.Claim, now time.Time) {
			c.Status = claim.StatusApproved
			c.IsManagerApproved = true
			c.ManagerApprover = reviewerID
			c.ManagerReviewDate = &now
		},
		code:      OutcomeApproved,
		message:   "claim approved by manager",
		eventType: event.TypeClaimApproved,
	})
}

// FinalReject terminally rejects a claim with manager authority
func (e *engineImpl) FinalReject(ctx context.Context, claimID int64, reviewerID, reason string) (*TransitionOutcome, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if err := e.requireAuthority(ctx, reviewerID, claim.RoleManager); err != nil {
		return nil, err
	}
	return e.terminalDecision(ctx, claimID, terminalDecisionSpec{
		trigger:  workflow.TriggerFinalReject,
		action:   "final_reject",
		reviewer: reviewerID,
		reason:   "Manager: " + reason,
		guard: func(c *claim.Claim) *TransitionOutcome {
			if c.HasManagerDecision() {
				return duplicateAction(c, "manager")
			}
			return nil
		},
		apply: func(c *claim.Claim, now time.Time) {
			c.Status = claim.StatusRejected
			c.RejectionReason = "Manager: " + reason
			c.ManagerApprover = reviewerID
			c.ManagerReviewDate = &now
		},
		code:      OutcomeRejected,
		message:   "claim rejected by manager",
		eventType: event.TypeClaimRejected,
	})
}

// Override forces approval past the rule engine. Manager authority only; the
// reason is mandatory and the transition is always audited.
func (e *engineImpl) Override(ctx context.Context, claimID int64, reviewerID, reason string) (*TransitionOutcome, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if err := e.requireAuthority(ctx, reviewerID, claim.RoleManager); err != nil {
		return nil, err
	}
	return e.terminalDecision(ctx, claimID, terminalDecisionSpec{
		trigger:  workflow.TriggerOverride,
		action:   "override",
		reviewer: reviewerID,
		reason:   reason,
		guard: func(c *claim.Claim) *TransitionOutcome {
			if c.HasManagerDecision() {
				return duplicateAction(c, "manager")
			}
			return nil
		},
		apply: func(c *claim.Claim, now time.Time) {
			c.Status = claim.StatusApproved
			c.IsManagerApproved = true
			c.ManagerApprover = reviewerID
			c.ManagerReviewDate = &now
			c.DecisionReason = "Override: " + reason
		},
		code:      OutcomeOverridden,
		message:   "claim approved by manager override",
		eventType: event.TypeClaimOverridden,
	})
}

// terminalDecisionSpec parameterizes the shared shape of the terminal manual
// handlers: authority is checked by the caller, then the decision runs as one
// transaction with idempotency guard, state-machine enforcement, and audit.
type terminalDecisionSpec struct {
	trigger   workflow.Trigger
	action    string
	reviewer  string
	reason    string
	guard     func(c *claim.Claim) *TransitionOutcome
	apply     func(c *claim.Claim, now time.Time)
	code      OutcomeCode
	message   string
	eventType event.Type
}

func (e *engineImpl) terminalDecision(ctx context.Context, claimID int64, spec terminalDecisionSpec) (*TransitionOutcome, error) {
	var outcome *TransitionOutcome
	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := e.loadForDecision(txCtx, claimID)
		if err != nil {
			return err
		}
		if c.IsFinalized() {
			outcome = alreadyFinalized(c)
			return nil
		}
		if dup := spec.guard(c); dup != nil {
			outcome = dup
			return nil
		}

		fromStage, fromStatus := c.Stage, c.Status
		machine := workflow.BuildClaimStateMachine(workflow.State(c.Stage))
		if err := machine.Fire(txCtx, spec.trigger); err != nil {
			return err
		}
		c.Stage = claim.Stage(machine.State())
		spec.apply(c, time.Now())
		if err := e.saveAndAudit(txCtx, c, spec.action, spec.reviewer, spec.reason, fromStage, fromStatus); err != nil {
			return err
		}
		outcome = &TransitionOutcome{
			Code:    spec.code,
			Message: spec.message,
			Stage:   c.Stage,
			Status:  c.Status,
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Manual decision failed", "claim_id", claimID, "action", spec.action, "error", err)
		return nil, err
	}

	if outcome.Mutated() {
		e.publish(event.NewEvent(spec.eventType, claimID, map[string]interface{}{
			"reviewer": spec.reviewer,
			"reason":   spec.reason,
		}))
	}
	e.logger.Info("Manual decision processed", "claim_id", claimID, "action", spec.action, "reviewer", spec.reviewer, "outcome", outcome.Code)
	return outcome, nil
}

// loadForDecision fetches a claim inside the decision transaction
func (e *engineImpl) loadForDecision(ctx context.Context, claimID int64) (*claim.Claim, error) {
	c, err := e.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, claimID)
	}
	return c, nil
}

// requireAuthority rejects the action before any mutation when the reviewer
// lacks the role
func (e *engineImpl) requireAuthority(ctx context.Context, reviewerID string, role claim.Role) error {
	ok, err := e.authority.IsAuthority(ctx, reviewerID, role)
	if err != nil {
		return fmt.Errorf("authority check: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: reviewer %s requires role %s", ErrUnauthorized, reviewerID, role)
	}
	return nil
}

// duplicateAction builds the no-op outcome for an already-recorded decision class
func duplicateAction(c *claim.Claim, class string) *TransitionOutcome {
	return &TransitionOutcome{
		Code:    OutcomeDuplicateAction,
		Message: fmt.Sprintf("a %s decision has already been recorded for this claim", class),
		Stage:   c.Stage,
		Status:  c.Status,
	}
}
