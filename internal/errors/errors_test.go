package errors

import (
	"context"
	"fmt"
	"testing"
)

func TestLLMErrorRetryable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   bool
	}{
		{"transport failure", 0, fmt.Errorf("dial tcp: connection refused"), true},
		{"unauthorized", 401, fmt.Errorf("bad key"), false},
		{"forbidden", 403, fmt.Errorf("no access"), false},
		{"throttled", 429, fmt.Errorf("slow down"), true},
		{"server error", 503, fmt.Errorf("unavailable"), true},
		{"bad request", 400, fmt.Errorf("malformed"), false},
		{"missing key", 0, ErrMissingAPIKey, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewLLMError("openai", "complete", tt.status, tt.err)
			if got := e.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryableUnwrapsChain(t *testing.T) {
	wrapped := Wrap(NewLLMError("openai", "complete", 401, fmt.Errorf("bad key")), "vision call")
	if IsRetryable(wrapped) {
		t.Fatal("expected wrapped 401 to be non-retryable")
	}
	if !IsRetryable(Wrap(context.DeadlineExceeded, "vision call")) {
		t.Fatal("expected deadline errors to be retryable")
	}
	if IsRetryable(nil) {
		t.Fatal("nil is never retryable")
	}
	if IsRetryable(ErrCircuitOpen) {
		t.Fatal("open circuit should not be retried")
	}
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := Wrapf(NewValidationError("intensity", 12, "must be between 1 and 10"), "submission")
	if !Is(err, ErrInputValidation) {
		t.Fatal("expected validation error to match ErrInputValidation")
	}
	var ve *ValidationError
	if !As(err, &ve) || ve.Field != "intensity" {
		t.Fatalf("expected to recover ValidationError, got %v", err)
	}
}

func TestStoreErrorMessage(t *testing.T) {
	err := NewStoreError("get", "abc", ErrRecordNotFound)
	if err.Error() != "store error [get] abc: trade record not found" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !Is(err, ErrRecordNotFound) {
		t.Fatal("expected StoreError to unwrap to ErrRecordNotFound")
	}
}
