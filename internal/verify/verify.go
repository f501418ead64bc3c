// Package verify implements the automated claim verification rules: a pure
// decision function producing a structured verdict from a claim, its sibling
// claims for the same owner and period, and the threshold configuration.
package verify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/claimsuite/claimflow/internal/domain/claim"
)

// Verify applies the institutional rule set to a claim and returns a verdict.
// siblings must contain the owner's other non-rejected claims for the same
// period, excluding the claim under verification; the caller supplies them so
// the function stays free of hidden state. Rules are applied in order and do
// not short-circuit: every violated rule contributes to the verdict.
func Verify(c *claim.Claim, siblings []*claim.Claim, cfg ThresholdConfig) Verdict {
	v := Verdict{
		Errors:            []string{},
		Warnings:          []string{},
		Info:              []string{},
		RecommendedAction: ActionApprove,
		VerifiedAt:        time.Now(),
	}

	if c.HoursWorked.GreaterThan(cfg.MaxHoursPerClaim) {
		v.addError(fmt.Sprintf("hours worked (%s) exceed maximum allowed (%s)", c.HoursWorked, cfg.MaxHoursPerClaim))
		v.escalate(ActionReject)
	}

	if c.HoursWorked.LessThan(cfg.MinHoursPerClaim) {
		v.addError(fmt.Sprintf("hours worked (%s) are below minimum required (%s)", c.HoursWorked, cfg.MinHoursPerClaim))
		v.escalate(ActionReject)
	}

	if c.HourlyRate.LessThanOrEqual(decimal.Zero) {
		v.addError(fmt.Sprintf("hourly rate (%s) must be greater than 0", c.HourlyRate))
	}

	if c.HourlyRate.GreaterThan(cfg.MaxHourlyRate) {
		v.addError(fmt.Sprintf("hourly rate (%s) exceeds maximum allowed (%s)", c.HourlyRate, cfg.MaxHourlyRate))
		v.escalate(ActionReview)
	}

	if hasActiveSibling(c, siblings) {
		v.addError(fmt.Sprintf("a claim for %s has already been submitted", c.Period))
		v.escalate(ActionReject)
	}

	if c.HoursWorked.GreaterThanOrEqual(cfg.DocumentationHoursFloor) && !c.HasSupportingDocument {
		v.addWarning(fmt.Sprintf("high hours worked (%s) require supporting documentation", c.HoursWorked))
		v.escalate(ActionReview)
	}

	amountExceeded := false
	if c.TotalAmount().GreaterThan(cfg.AutoApproveAmountCeiling) {
		amountExceeded = true
		v.addWarning(fmt.Sprintf("total amount (%s) exceeds auto-approval ceiling (%s)", c.TotalAmount(), cfg.AutoApproveAmountCeiling))
	}

	v.IsValid = len(v.Errors) == 0

	switch c.Stage {
	case claim.StageCoordinatorReview:
		if v.IsValid && !amountExceeded &&
			c.HoursWorked.LessThanOrEqual(cfg.AutoApproveHoursCeiling) &&
			c.HourlyRate.LessThanOrEqual(cfg.AutoApproveRateCeiling) &&
			c.HasSupportingDocument {
			v.CanAutoApprove = true
			v.AutoApprovalReason = fmt.Sprintf(
				"within auto-approval limits: %s hours at rate %s, total %s, documentation attached",
				c.HoursWorked, c.HourlyRate, c.TotalAmount())
		}
	case claim.StageManagerReview:
		v.addInfo("manager-stage claims always require a human decision")
	}

	// Anything not auto-approvable needs at least a human look
	if !v.CanAutoApprove {
		v.escalate(ActionReview)
	}

	return v
}

// hasActiveSibling reports a duplicate-period conflict among the supplied
// claims. Rejected siblings and the claim itself never count as duplicates.
func hasActiveSibling(c *claim.Claim, siblings []*claim.Claim) bool {
	for _, s := range siblings {
		if s == nil || s.ID == c.ID {
			continue
		}
		if s.OwnerID == c.OwnerID && s.Period == c.Period && s.Status != claim.StatusRejected {
			return true
		}
	}
	return false
}
