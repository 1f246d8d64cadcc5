// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors
var (
	ErrMissingAPIKey   = errors.New("llm api key not configured")
	ErrEmptyCompletion = errors.New("empty completion from llm")
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrRateLimited     = errors.New("rate limited")
	ErrTimeout         = errors.New("operation timed out")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrInputValidation = errors.New("input validation failed")
	ErrRecordNotFound  = errors.New("trade record not found")
	ErrDatabaseError   = errors.New("database error")
	ErrInvalidJSON     = errors.New("invalid json payload")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match any validation failure with ErrInputValidation.
func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// LLMError represents a failed call to the completion provider.
type LLMError struct {
	Provider   string
	Operation  string
	StatusCode int
	Err        error
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm error [%s] %s (status %d): %v", e.Provider, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm error [%s] %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could succeed. Auth failures and a
// missing key never recover on their own; throttling and server errors can.
func (e *LLMError) Retryable() bool {
	if errors.Is(e.Err, ErrMissingAPIKey) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return false
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// NewLLMError creates a new LLMError.
func NewLLMError(provider, operation string, statusCode int, err error) *LLMError {
	return &LLMError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: statusCode,
		Err:        err,
	}
}

// StoreError represents a persistence failure.
type StoreError struct {
	Operation string
	RecordID  string
	Err       error
}

func (e *StoreError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("store error [%s] %s: %v", e.Operation, e.RecordID, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, recordID string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		RecordID:  recordID,
		Err:       err,
	}
}

// IsRetryable reports whether err is worth another attempt. Errors that do not
// carry a classification are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrInputValidation) ||
		errors.Is(err, context.Canceled) {
		return false
	}
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Retryable()
	}
	return true
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
