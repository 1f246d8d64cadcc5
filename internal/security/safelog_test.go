package security

import (
	"errors"
	"strings"
	"testing"
)

func TestMaskCredential(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdef", "ab****"},
		{"sk-1234567890", "sk-1*****7890"},
	}
	for _, tt := range tests {
		if got := MaskCredential(tt.in); got != tt.want {
			t.Errorf("MaskCredential(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskSecrets(t *testing.T) {
	key := "sk-abcdefghijklmnopqrstuvwx"
	tests := []struct {
		name   string
		input  string
		secret string
	}{
		{"bare openai key", "Incorrect API key provided: " + key, key},
		{"key value pair", "api_key=supersecretvalue123", "supersecretvalue123"},
		{"bearer header", "Authorization: Bearer abcdefghijklmnop", "abcdefghijklmnop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskSecrets(tt.input)
			if strings.Contains(got, tt.secret) {
				t.Fatalf("secret leaked: %q", got)
			}
		})
	}

	plain := "request timed out after 30s"
	if MaskSecrets(plain) != plain {
		t.Errorf("plain text should be unchanged")
	}
}

func TestMaskError(t *testing.T) {
	if MaskError(nil) != "" {
		t.Fatal("nil error should give empty string")
	}
	err := errors.New("status 401: invalid key sk-abcdefghijklmnopqrstuvwx")
	if got := MaskError(err); strings.Contains(got, "ghijklmnopqrst") {
		t.Fatalf("MaskError leaked key: %q", got)
	}
}
