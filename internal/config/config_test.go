package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{Path: "data/test.db"},
		Batch:    BatchConfig{Enabled: true, Schedule: "0 * * * *"},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing database path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Path = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("batch enabled without schedule", func(t *testing.T) {
		cfg := validConfig()
		cfg.Batch.Schedule = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("batch disabled ignores schedule", func(t *testing.T) {
		cfg := validConfig()
		cfg.Batch = BatchConfig{Enabled: false}
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_VerificationThresholds(t *testing.T) {
	t.Run("empty fields keep defaults", func(t *testing.T) {
		cfg := validConfig()
		th, err := cfg.VerificationThresholds()
		require.NoError(t, err)
		assert.True(t, th.MaxHoursPerClaim.Equal(decimal.NewFromInt(180)))
		assert.True(t, th.AutoApproveAmountCeiling.Equal(decimal.NewFromInt(20000)))
	})

	t.Run("overrides parse as decimals", func(t *testing.T) {
		cfg := validConfig()
		cfg.Thresholds.MaxHours = "150"
		cfg.Thresholds.MinHours = "1.25"
		th, err := cfg.VerificationThresholds()
		require.NoError(t, err)
		assert.True(t, th.MaxHoursPerClaim.Equal(decimal.NewFromInt(150)))
		assert.True(t, th.MinHoursPerClaim.Equal(decimal.RequireFromString("1.25")))
	})

	t.Run("malformed value is named in the error", func(t *testing.T) {
		cfg := validConfig()
		cfg.Thresholds.MaxRate = "one thousand"
		_, err := cfg.VerificationThresholds()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "thresholds.max_rate")
	})

	t.Run("inconsistent overrides are rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Thresholds.AutoApproveHours = "300"
		_, err := cfg.VerificationThresholds()
		assert.Error(t, err)
	})
}
