package verify

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ThresholdConfig holds the decision boundaries for automated claim
// verification. Read-only at run time; loaded once from configuration.
type ThresholdConfig struct {
	MaxHoursPerClaim         decimal.Decimal
	MinHoursPerClaim         decimal.Decimal
	MaxHourlyRate            decimal.Decimal
	DocumentationHoursFloor  decimal.Decimal
	AutoApproveHoursCeiling  decimal.Decimal
	AutoApproveRateCeiling   decimal.Decimal
	AutoApproveAmountCeiling decimal.Decimal
}

// DefaultThresholds returns the canonical institutional rule set
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		MaxHoursPerClaim:         decimal.NewFromInt(180),
		MinHoursPerClaim:         decimal.RequireFromString("0.5"),
		MaxHourlyRate:            decimal.NewFromInt(1000),
		DocumentationHoursFloor:  decimal.NewFromInt(160),
		AutoApproveHoursCeiling:  decimal.NewFromInt(120),
		AutoApproveRateCeiling:   decimal.NewFromInt(500),
		AutoApproveAmountCeiling: decimal.NewFromInt(20000),
	}
}

// Validate ensures the boundaries are positive and mutually consistent
func (c ThresholdConfig) Validate() error {
	if c.MinHoursPerClaim.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("min hours per claim must be positive, got %s", c.MinHoursPerClaim)
	}
	if c.MaxHoursPerClaim.LessThanOrEqual(c.MinHoursPerClaim) {
		return fmt.Errorf("max hours per claim (%s) must exceed min hours (%s)", c.MaxHoursPerClaim, c.MinHoursPerClaim)
	}
	if c.MaxHourlyRate.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("max hourly rate must be positive, got %s", c.MaxHourlyRate)
	}
	if c.AutoApproveHoursCeiling.GreaterThan(c.MaxHoursPerClaim) {
		return fmt.Errorf("auto-approve hours ceiling (%s) must not exceed max hours (%s)", c.AutoApproveHoursCeiling, c.MaxHoursPerClaim)
	}
	if c.AutoApproveRateCeiling.GreaterThan(c.MaxHourlyRate) {
		return fmt.Errorf("auto-approve rate ceiling (%s) must not exceed max hourly rate (%s)", c.AutoApproveRateCeiling, c.MaxHourlyRate)
	}
	if c.AutoApproveAmountCeiling.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("auto-approve amount ceiling must be positive, got %s", c.AutoApproveAmountCeiling)
	}
	return nil
}
