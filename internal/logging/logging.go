// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"tradecoach/internal/security"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Output     io.Writer
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "tradecoach", "logs", "tradecoach.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				ll, ok := i.(string)
				if !ok {
					return "???"
				}
				switch ll {
				case "debug":
					return "\033[36mDBG\033[0m"
				case "info":
					return "\033[32mINF\033[0m"
				case "warn":
					return "\033[33mWRN\033[0m"
				case "error":
					return "\033[31mERR\033[0m"
				default:
					return ll
				}
			},
		})
	}

	// File writer with rotation
	if cfg.File && cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "tradecoach").
		Logger()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextKey is the type for context keys.
type ContextKey string

const (
	// LoggerKey is the context key for the logger.
	LoggerKey ContextKey = "logger"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithRequestID adds a request ID to the logger context.
func WithRequestID(logger zerolog.Logger, requestID string) zerolog.Logger {
	return logger.With().Str("request_id", requestID).Logger()
}

// LogAnalysis logs a completed analysis.
func LogAnalysis(logger zerolog.Logger, id, symbol, method, reason string, attempts int, confidence float64, duration time.Duration) {
	event := logger.Info()
	if method == "fallback" && reason != "missing_api_key" {
		event = logger.Warn()
	}
	event.
		Str("event", "analysis").
		Str("analysis_id", id).
		Str("symbol", symbol).
		Str("method", method).
		Str("reason", reason).
		Int("attempts", attempts).
		Float64("confidence", confidence).
		Dur("duration", duration).
		Msg("Analysis completed")
}

// LogAPICall logs an API call.
func LogAPICall(logger zerolog.Logger, method, endpoint string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "api_call").
		Str("method", method).
		Str("endpoint", endpoint).
		Dur("duration", duration)

	if err != nil {
		event.Str("error", security.MaskError(err)).Msg("API call failed")
	} else {
		event.Msg("API call completed")
	}
}

// LogRecord logs a journal write or delete.
func LogRecord(logger zerolog.Logger, op, recordID, symbol string) {
	logger.Info().
		Str("event", "journal").
		Str("op", op).
		Str("record_id", recordID).
		Str("symbol", symbol).
		Msg("Journal updated")
}
