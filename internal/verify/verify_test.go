package verify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsuite/claimflow/internal/domain/claim"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testClaim(hours, rate string, hasDoc bool) *claim.Claim {
	c := claim.New("lecturer-1", "2026-01", dec(hours), dec(rate), hasDoc)
	c.ID = 1
	return c
}

func TestVerify_HoursBoundaries(t *testing.T) {
	cfg := DefaultThresholds()

	tests := []struct {
		name       string
		hours      string
		wantValid  bool
		wantAction Action
	}{
		{"at maximum hours", "180", true, ActionReview},
		{"just above maximum", "180.01", false, ActionReject},
		{"at minimum hours", "0.5", true, ActionReview},
		{"just below minimum", "0.49", false, ActionReject},
		{"well inside range", "100", true, ActionReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No document, so no claim here qualifies for auto-approval
			c := testClaim(tt.hours, "300", false)
			v := Verify(c, nil, cfg)

			assert.Equal(t, tt.wantValid, v.IsValid)
			assert.Equal(t, tt.wantAction, v.RecommendedAction)
		})
	}
}

func TestVerify_RateBoundaries(t *testing.T) {
	cfg := DefaultThresholds()

	tests := []struct {
		name       string
		rate       string
		wantValid  bool
		wantAction Action
	}{
		{"zero rate", "0", false, ActionReview},
		{"negative rate", "-5", false, ActionReview},
		{"at rate ceiling", "1000", true, ActionReview},
		{"above rate ceiling", "1000.01", false, ActionReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClaim("10", tt.rate, true)
			v := Verify(c, nil, cfg)

			assert.Equal(t, tt.wantValid, v.IsValid)
			assert.Equal(t, tt.wantAction, v.RecommendedAction)
		})
	}
}

func TestVerify_RulesDoNotShortCircuit(t *testing.T) {
	cfg := DefaultThresholds()

	// Violates max hours, zero rate, and duplicate period at once
	c := testClaim("200", "0", true)
	sibling := claim.New("lecturer-1", "2026-01", dec("10"), dec("100"), true)
	sibling.ID = 2

	v := Verify(c, []*claim.Claim{sibling}, cfg)

	assert.False(t, v.IsValid)
	assert.Len(t, v.Errors, 3)
	assert.Equal(t, ActionReject, v.RecommendedAction)
}

func TestVerify_DuplicatePeriod(t *testing.T) {
	cfg := DefaultThresholds()

	t.Run("active sibling is a duplicate", func(t *testing.T) {
		c := testClaim("10", "100", true)
		sibling := claim.New("lecturer-1", "2026-01", dec("20"), dec("100"), true)
		sibling.ID = 2
		sibling.Status = claim.StatusUnderReview

		v := Verify(c, []*claim.Claim{sibling}, cfg)

		assert.False(t, v.IsValid)
		assert.Equal(t, ActionReject, v.RecommendedAction)
	})

	t.Run("rejected sibling does not count", func(t *testing.T) {
		c := testClaim("10", "100", true)
		sibling := claim.New("lecturer-1", "2026-01", dec("20"), dec("100"), true)
		sibling.ID = 2
		sibling.Status = claim.StatusRejected

		v := Verify(c, []*claim.Claim{sibling}, cfg)

		assert.True(t, v.IsValid)
	})

	t.Run("approved sibling counts", func(t *testing.T) {
		c := testClaim("10", "100", true)
		sibling := claim.New("lecturer-1", "2026-01", dec("20"), dec("100"), true)
		sibling.ID = 2
		sibling.Status = claim.StatusApproved

		v := Verify(c, []*claim.Claim{sibling}, cfg)

		assert.False(t, v.IsValid)
	})
}

func TestVerify_DocumentationWarning(t *testing.T) {
	cfg := DefaultThresholds()

	t.Run("high hours without document", func(t *testing.T) {
		c := testClaim("160", "100", false)
		v := Verify(c, nil, cfg)

		assert.True(t, v.IsValid)
		assert.Len(t, v.Warnings, 1)
		assert.Equal(t, ActionReview, v.RecommendedAction)
		assert.False(t, v.CanAutoApprove)
	})

	t.Run("high hours with document", func(t *testing.T) {
		c := testClaim("160", "100", true)
		v := Verify(c, nil, cfg)

		assert.True(t, v.IsValid)
		assert.Empty(t, v.Warnings)
	})

	t.Run("just below documentation floor", func(t *testing.T) {
		c := testClaim("159.99", "100", false)
		v := Verify(c, nil, cfg)

		assert.True(t, v.IsValid)
		assert.Empty(t, v.Warnings)
	})
}

func TestVerify_HighValueWarningDisablesAutoApproval(t *testing.T) {
	cfg := DefaultThresholds()

	// 100h at 250 = 25000, over the amount ceiling but inside every
	// per-field auto-approval limit
	c := testClaim("100", "250", true)
	v := Verify(c, nil, cfg)

	assert.True(t, v.IsValid)
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "exceeds auto-approval ceiling")
	assert.False(t, v.CanAutoApprove)
	assert.Equal(t, ActionReview, v.RecommendedAction)
}

func TestVerify_AutoApproval(t *testing.T) {
	cfg := DefaultThresholds()

	tests := []struct {
		name     string
		hours    string
		rate     string
		hasDoc   bool
		wantAuto bool
	}{
		{"inside all limits", "100", "150", true, true},
		{"at hours ceiling", "120", "150", true, true},
		{"above hours ceiling", "120.5", "150", true, false},
		{"at rate ceiling", "40", "500", true, true},
		{"above rate ceiling", "40", "500.01", true, false},
		{"missing document", "100", "150", false, false},
		{"amount at ceiling", "40", "500", true, true}, // 40*500 = 20000
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClaim(tt.hours, tt.rate, tt.hasDoc)
			v := Verify(c, nil, cfg)

			assert.True(t, v.IsValid)
			assert.Equal(t, tt.wantAuto, v.CanAutoApprove)
			if tt.wantAuto {
				assert.NotEmpty(t, v.AutoApprovalReason)
				assert.Equal(t, ActionApprove, v.RecommendedAction)
			} else {
				assert.Equal(t, ActionReview, v.RecommendedAction)
			}
		})
	}
}

func TestVerify_ManagerStageNeverAutoApproves(t *testing.T) {
	cfg := DefaultThresholds()

	c := testClaim("100", "150", true)
	c.Stage = claim.StageManagerReview
	v := Verify(c, nil, cfg)

	assert.True(t, v.IsValid)
	assert.False(t, v.CanAutoApprove)
	assert.NotEmpty(t, v.Info)
	assert.Equal(t, ActionReview, v.RecommendedAction)
}

func TestThresholdConfig_Validate(t *testing.T) {
	t.Run("defaults are consistent", func(t *testing.T) {
		assert.NoError(t, DefaultThresholds().Validate())
	})

	t.Run("auto-approve ceiling above max hours", func(t *testing.T) {
		cfg := DefaultThresholds()
		cfg.AutoApproveHoursCeiling = decimal.NewFromInt(200)
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero min hours", func(t *testing.T) {
		cfg := DefaultThresholds()
		cfg.MinHoursPerClaim = decimal.Zero
		assert.Error(t, cfg.Validate())
	})
}
