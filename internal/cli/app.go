package cli

import (
	"github.com/rs/zerolog"

	"tradecoach/internal/coach"
	"tradecoach/internal/config"
	"tradecoach/internal/journal"
	"tradecoach/internal/llm"
	"tradecoach/internal/logging"
	"tradecoach/internal/models"
	"tradecoach/internal/notify"
	"tradecoach/internal/resilience"
	"tradecoach/internal/store"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.JournalStore
	Analyzer *coach.Analyzer
	Journal  *journal.Service
	Health   *resilience.HealthChecker
}

// NewApp wires the store, the model client and the analyzer from cfg.
// Without an API key the analyzer runs on the offline rules only.
func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("path", cfg.Storage.DBPath).Msg("SQLite store initialized")

	var client llm.Client
	var breaker *resilience.CircuitBreaker
	if cfg.HasAPIKey() {
		openaiClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:    cfg.Credentials.OpenAI.APIKey,
			Model:     cfg.Coach.Model,
			BaseURL:   cfg.Coach.BaseURL,
			MaxTokens: cfg.Coach.MaxTokens,
			JSONMode:  cfg.Coach.ResponseFormat == coach.FormatJSON,
			Logger:    logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create OpenAI client, using offline analysis")
		} else {
			client = openaiClient
			logger.Debug().Str("model", openaiClient.Model()).Msg("OpenAI client initialized")
		}
		if client != nil && cfg.Coach.Circuit.Enabled {
			breaker = resilience.NewCircuitBreaker("openai", breakerConfig(cfg.Coach.Circuit))
		}
	}

	analyzer := coach.NewAnalyzer(client, breaker, coachOptions(cfg.Coach), logger)

	health := resilience.NewHealthChecker()
	health.RegisterComponent("database", resilience.DatabaseHealthCheck(st.Ping))
	health.RegisterComponent("llm", resilience.BreakerHealthCheck(breaker, client != nil))

	svc := journal.NewService(analyzer, st, logger)
	if cfg.Notify.Enabled {
		svc.SetNotifier(notify.NewMultiNotifier(models.RiskLevel(cfg.Notify.MinRisk), notify.NewWebhookNotifier(cfg.Notify.WebhookURL)))
		logger.Debug().Str("min_risk", cfg.Notify.MinRisk).Msg("Risk notifications enabled")
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Analyzer: analyzer,
		Journal:  svc,
		Health:   health,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func coachOptions(c config.CoachConfig) coach.Options {
	opts := coach.DefaultOptions()
	opts.ResponseFormat = c.ResponseFormat
	opts.UnifyConfidence = c.UnifyConfidence
	opts.RequestTimeout = c.RequestTimeout
	opts.Retry = resilience.RetryPolicy{
		MaxAttempts:  c.Retry.MaxAttempts,
		InitialDelay: c.Retry.InitialDelay,
		MaxDelay:     c.Retry.MaxDelay,
		Multiplier:   c.Retry.Multiplier,
		Jitter:       c.Retry.Jitter,
	}
	return opts
}

func breakerConfig(c config.CircuitConfig) resilience.CircuitBreakerConfig {
	bc := resilience.DefaultCircuitBreakerConfig()
	bc.FailureThreshold = c.FailureThreshold
	bc.SuccessThreshold = c.SuccessThreshold
	bc.Timeout = c.Timeout
	return bc
}

// newLogger builds the process logger from the [logging] section. Console
// logging is on for long-running commands and in debug mode.
func newLogger(cfg config.LoggingConfig, debug, console bool) zerolog.Logger {
	lc := logging.DefaultLogConfig()
	lc.Level = cfg.Level
	lc.Console = console || debug
	lc.File = cfg.File
	if cfg.FilePath != "" {
		lc.FilePath = cfg.FilePath
	}
	if cfg.MaxSize > 0 {
		lc.MaxSize = cfg.MaxSize
	}
	if cfg.MaxBackups > 0 {
		lc.MaxBackups = cfg.MaxBackups
	}
	if cfg.MaxAge > 0 {
		lc.MaxAge = cfg.MaxAge
	}
	if debug {
		lc.Level = "debug"
	}
	return logging.NewLoggerWithConfig(lc)
}
