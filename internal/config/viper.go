// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"fjacquet/bank-recon/internal/logging"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RECON_LOG_LEVEL.
const EnvPrefix = "RECON"

// Reopen policies for completed reconciliations.
const (
	ReopenLocked = "locked"
	ReopenAllow  = "allow"
)

// Storage drivers and lock backends.
const (
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
	LockLocal    = "local"
	LockRedis    = "redis"
)

// LogConfig controls the logrus adapter.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ParsingConfig controls statement parsing and the import skip policy.
type ParsingConfig struct {
	MaxSkipRatio float64 `mapstructure:"max_skip_ratio" yaml:"max_skip_ratio"`
	ConfigsFile  string  `mapstructure:"configs_file" yaml:"configs_file"`
}

// MatchingConfig controls the auto-match candidate window and tie handling.
type MatchingConfig struct {
	DateToleranceDays int  `mapstructure:"date_tolerance_days" yaml:"date_tolerance_days"`
	TieBreakByID      bool `mapstructure:"tie_break_by_id" yaml:"tie_break_by_id"`
}

// ImportConfig controls declared balance checks.
type ImportConfig struct {
	BalanceTolerance string `mapstructure:"balance_tolerance" yaml:"balance_tolerance"`
}

// ReconciliationConfig controls the session lifecycle.
type ReconciliationConfig struct {
	ReopenPolicy string `mapstructure:"reopen_policy" yaml:"reopen_policy"`
}

// DatabaseConfig selects the repository implementation.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"-"`
}

// LockConfig selects how mutations on one reconciliation are serialized.
type LockConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"`
	RedisAddress string `mapstructure:"redis_address" yaml:"redis_address"`
	TTLSeconds   int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

// FilesConfig points at the YAML/CSV collaborators used by the CLI.
type FilesConfig struct {
	Accounts string `mapstructure:"accounts" yaml:"accounts"`
	Ledger   string `mapstructure:"ledger" yaml:"ledger"`
}

// Config represents the complete application configuration
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	Parsing        ParsingConfig        `mapstructure:"parsing" yaml:"parsing"`
	Matching       MatchingConfig       `mapstructure:"matching" yaml:"matching"`
	Import         ImportConfig         `mapstructure:"import" yaml:"import"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation" yaml:"reconciliation"`
	Database       DatabaseConfig       `mapstructure:"database" yaml:"database"`
	Lock           LockConfig           `mapstructure:"lock" yaml:"lock"`
	Files          FilesConfig          `mapstructure:"files" yaml:"files"`
}

// BalanceTolerance returns the declared-balance epsilon. validateConfig
// guarantees the string parses.
func (c *Config) BalanceTolerance() decimal.Decimal {
	d, err := decimal.NewFromString(c.Import.BalanceTolerance)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.bank-recon")
	v.AddConfigPath(".bank-recon")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("parsing.max_skip_ratio", 0.2)
	v.SetDefault("parsing.configs_file", "parser_configs.yaml")

	v.SetDefault("matching.date_tolerance_days", 3)
	v.SetDefault("matching.tie_break_by_id", true)

	v.SetDefault("import.balance_tolerance", "0.01")

	v.SetDefault("reconciliation.reopen_policy", ReopenLocked)

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.dsn", "")

	v.SetDefault("lock.backend", LockLocal)
	v.SetDefault("lock.redis_address", "localhost:6379")
	v.SetDefault("lock.ttl_seconds", 30)

	v.SetDefault("files.accounts", "bank_accounts.yaml")
	v.SetDefault("files.ledger", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Parsing.MaxSkipRatio < 0.0 || config.Parsing.MaxSkipRatio > 1.0 {
		return fmt.Errorf("parsing.max_skip_ratio must be between 0.0 and 1.0, got: %f", config.Parsing.MaxSkipRatio)
	}

	if config.Matching.DateToleranceDays < 0 {
		return fmt.Errorf("matching.date_tolerance_days must not be negative, got: %d", config.Matching.DateToleranceDays)
	}

	tolerance, err := decimal.NewFromString(config.Import.BalanceTolerance)
	if err != nil {
		return fmt.Errorf("import.balance_tolerance is not a decimal: %s", config.Import.BalanceTolerance)
	}
	if tolerance.IsNegative() {
		return fmt.Errorf("import.balance_tolerance must not be negative, got: %s", config.Import.BalanceTolerance)
	}

	switch config.Reconciliation.ReopenPolicy {
	case ReopenLocked, ReopenAllow:
	default:
		return fmt.Errorf("invalid reconciliation.reopen_policy: %s (must be '%s' or '%s')",
			config.Reconciliation.ReopenPolicy, ReopenLocked, ReopenAllow)
	}

	switch config.Database.Driver {
	case DriverMemory:
	case DriverMySQL:
		if config.Database.DSN == "" {
			return fmt.Errorf("database.dsn required when database.driver is %s", DriverMySQL)
		}
	default:
		return fmt.Errorf("invalid database.driver: %s", config.Database.Driver)
	}

	switch config.Lock.Backend {
	case LockLocal:
	case LockRedis:
		if config.Lock.RedisAddress == "" {
			return fmt.Errorf("lock.redis_address required when lock.backend is %s", LockRedis)
		}
	default:
		return fmt.Errorf("invalid lock.backend: %s", config.Lock.Backend)
	}

	if config.Lock.TTLSeconds < 1 || config.Lock.TTLSeconds > 300 {
		return fmt.Errorf("lock.ttl_seconds must be between 1 and 300, got: %d", config.Lock.TTLSeconds)
	}

	return nil
}

// ConfigureLoggingFromConfig builds the process logger from the log section.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	return logging.NewLogrus(config.Log.Level, config.Log.Format)
}
