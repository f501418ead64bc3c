package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/claimsuite/claimflow/internal/verify"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Authority  AuthorityConfig  `mapstructure:"authority"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// ThresholdsConfig holds the verification rule limits. Values are parsed
// as strings so the decimal arithmetic never goes through float64.
type ThresholdsConfig struct {
	MaxHours         string `mapstructure:"max_hours"`
	MinHours         string `mapstructure:"min_hours"`
	MaxRate          string `mapstructure:"max_rate"`
	DocRequiredHours string `mapstructure:"doc_required_hours"`
	AutoApproveHours string `mapstructure:"auto_approve_hours"`
	AutoApproveRate  string `mapstructure:"auto_approve_rate"`
	HighValueAmount  string `mapstructure:"high_value_amount"`
}

// BatchConfig holds the automated verification pass schedule
type BatchConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// AuthorityConfig holds the reviewer role membership lists
type AuthorityConfig struct {
	Coordinators []string `mapstructure:"coordinators"`
	Managers     []string `mapstructure:"managers"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/claimflow.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Threshold defaults mirror verify.DefaultThresholds
	def := verify.DefaultThresholds()
	viper.SetDefault("thresholds.max_hours", def.MaxHoursPerClaim.String())
	viper.SetDefault("thresholds.min_hours", def.MinHoursPerClaim.String())
	viper.SetDefault("thresholds.max_rate", def.MaxHourlyRate.String())
	viper.SetDefault("thresholds.doc_required_hours", def.DocumentationHoursFloor.String())
	viper.SetDefault("thresholds.auto_approve_hours", def.AutoApproveHoursCeiling.String())
	viper.SetDefault("thresholds.auto_approve_rate", def.AutoApproveRateCeiling.String())
	viper.SetDefault("thresholds.high_value_amount", def.AutoApproveAmountCeiling.String())

	// Batch defaults: hourly automated pass
	viper.SetDefault("batch.enabled", true)
	viper.SetDefault("batch.schedule", "0 * * * *")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("batch.schedule", "BATCH_SCHEDULE")
	viper.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Batch.Enabled && c.Batch.Schedule == "" {
		return fmt.Errorf("batch.schedule is required when batch.enabled is true")
	}
	if _, err := c.VerificationThresholds(); err != nil {
		return err
	}
	return nil
}

// VerificationThresholds parses the configured limits into the form the
// verification rules consume. Empty fields keep their defaults.
func (c *Config) VerificationThresholds() (verify.ThresholdConfig, error) {
	cfg := verify.DefaultThresholds()

	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"max_hours", c.Thresholds.MaxHours, &cfg.MaxHoursPerClaim},
		{"min_hours", c.Thresholds.MinHours, &cfg.MinHoursPerClaim},
		{"max_rate", c.Thresholds.MaxRate, &cfg.MaxHourlyRate},
		{"doc_required_hours", c.Thresholds.DocRequiredHours, &cfg.DocumentationHoursFloor},
		{"auto_approve_hours", c.Thresholds.AutoApproveHours, &cfg.AutoApproveHoursCeiling},
		{"auto_approve_rate", c.Thresholds.AutoApproveRate, &cfg.AutoApproveRateCeiling},
		{"high_value_amount", c.Thresholds.HighValueAmount, &cfg.AutoApproveAmountCeiling},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return cfg, fmt.Errorf("thresholds.%s: %w", f.name, err)
		}
		*f.dst = d
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("thresholds: %w", err)
	}
	return cfg, nil
}
