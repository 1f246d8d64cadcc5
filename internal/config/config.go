// Package config provides configuration management for tradecoach.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "tradecoach/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Coach       CoachConfig   `mapstructure:"coach"`
	Storage     StorageConfig `mapstructure:"storage"`
	Server      ServerConfig  `mapstructure:"server"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Notify      NotifyConfig  `mapstructure:"notify"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately

	// Dir is the directory the files were read from.
	Dir string `mapstructure:"-"`
}

// CoachConfig holds analysis pipeline configuration.
type CoachConfig struct {
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	ResponseFormat  string        `mapstructure:"response_format"` // "text", "json"
	UnifyConfidence bool          `mapstructure:"unify_confidence"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Retry           RetryConfig   `mapstructure:"retry"`
	Circuit         CircuitConfig `mapstructure:"circuit"`
}

// RetryConfig holds retry policy configuration for model calls.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	Jitter       bool          `mapstructure:"jitter"`
}

// CircuitConfig holds circuit breaker configuration for model calls.
type CircuitConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds journal storage configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr       string  `mapstructure:"addr"`
	RatePerSec float64 `mapstructure:"rate_per_sec"` // 0 disables limiting
	Burst      int     `mapstructure:"burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// NotifyConfig holds risk alert configuration.
type NotifyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	MinRisk    string `mapstructure:"min_risk"` // acceptable, moderate, elevated
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/tradecoach"
	}
	return filepath.Join(home, ".config", "tradecoach")
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		Coach: CoachConfig{
			Model:           "gpt-4o",
			ResponseFormat:  "text",
			UnifyConfidence: true,
			RequestTimeout:  60 * time.Second,
			MaxTokens:       1500,
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 500 * time.Millisecond,
				MaxDelay:     4 * time.Second,
				Multiplier:   2.0,
				Jitter:       true,
			},
			Circuit: CircuitConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 1,
				Timeout:          60 * time.Second,
			},
		},
		Storage: StorageConfig{DBPath: filepath.Join(dir, "journal.db")},
		Server:  ServerConfig{Addr: ":8080", RatePerSec: 2, Burst: 10},
		Logging: LoggingConfig{
			Level:      "info",
			File:       true,
			FilePath:   filepath.Join(dir, "logs", "tradecoach.log"),
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Notify: NotifyConfig{MinRisk: "elevated"},
		Dir:    dir,
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// Missing files are created from templates on first run.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()
	cfg.Dir = configDir
	cfg.Storage.DBPath = ""
	cfg.Logging.FilePath = ""

	if err := loadFile(configDir, "config", configTemplate, 0644, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(configDir, "journal.db")
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = filepath.Join(configDir, "logs", "tradecoach.log")
	}

	if err := loadFile(configDir, "credentials", credentialsTemplate, 0600, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFile reads name.toml over the values already in target.
func loadFile(configDir, name, template string, perm os.FileMode, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := writeTemplate(configDir, name, template, perm); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("TRADECOACH_MODEL"); v != "" {
		cfg.Coach.Model = v
	}
	if v := os.Getenv("TRADECOACH_DB"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("TRADECOACH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRADECOACH_WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
		cfg.Notify.Enabled = true
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Coach.ResponseFormat != "text" && c.Coach.ResponseFormat != "json" {
		return invalid("coach.response_format %q must be 'text' or 'json'", c.Coach.ResponseFormat)
	}
	if c.Coach.RequestTimeout < 0 {
		return invalid("coach.request_timeout must be non-negative")
	}
	if c.Coach.MaxTokens < 0 {
		return invalid("coach.max_tokens must be non-negative")
	}
	if c.Coach.Retry.MaxAttempts < 1 || c.Coach.Retry.MaxAttempts > 10 {
		return invalid("coach.retry.max_attempts must be between 1 and 10")
	}
	if c.Coach.Retry.Multiplier < 1 {
		return invalid("coach.retry.multiplier must be at least 1")
	}
	if c.Coach.Retry.InitialDelay < 0 || c.Coach.Retry.MaxDelay < c.Coach.Retry.InitialDelay {
		return invalid("coach.retry delays must satisfy 0 <= initial_delay <= max_delay")
	}
	if c.Coach.Circuit.Enabled && (c.Coach.Circuit.FailureThreshold < 1 || c.Coach.Circuit.SuccessThreshold < 1) {
		return invalid("coach.circuit thresholds must be at least 1")
	}
	if c.Storage.DBPath == "" {
		return invalid("storage.db_path must be set")
	}
	if c.Server.RatePerSec < 0 || c.Server.Burst < 0 {
		return invalid("server.rate_per_sec and server.burst must be non-negative")
	}
	switch c.Notify.MinRisk {
	case "", "acceptable", "moderate", "elevated":
	default:
		return invalid("notify.min_risk %q must be acceptable, moderate or elevated", c.Notify.MinRisk)
	}
	if c.Notify.Enabled && !strings.HasPrefix(c.Notify.WebhookURL, "http://") && !strings.HasPrefix(c.Notify.WebhookURL, "https://") {
		return invalid("notify.webhook_url must be an http(s) URL when notify is enabled")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return invalid("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return apperrors.Wrapf(apperrors.ErrConfigInvalid, format, args...)
}

// HasAPIKey reports whether an OpenAI key is configured.
func (c *Config) HasAPIKey() bool {
	return c.Credentials.OpenAI.APIKey != ""
}
