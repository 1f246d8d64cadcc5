package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "tradecoach/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "TRADECOACH_MODEL", "TRADECOACH_DB", "TRADECOACH_ADDR", "TRADECOACH_WEBHOOK_URL"} {
		t.Setenv(k, "")
	}
}

func TestLoadWritesTemplates(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, name := range []string{"config.toml", "credentials.toml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	if err == nil && info.Mode().Perm() != 0600 {
		t.Errorf("credentials.toml mode = %v, want 0600", info.Mode().Perm())
	}

	if cfg.Coach.Model != "gpt-4o" || cfg.Coach.ResponseFormat != "text" || !cfg.Coach.UnifyConfidence {
		t.Errorf("coach = %+v", cfg.Coach)
	}
	if cfg.Coach.Retry.InitialDelay != 500*time.Millisecond || cfg.Coach.Circuit.Timeout != time.Minute {
		t.Errorf("durations not decoded: %+v", cfg.Coach)
	}
	if cfg.Storage.DBPath != filepath.Join(dir, "journal.db") {
		t.Errorf("db path = %q", cfg.Storage.DBPath)
	}
	if cfg.HasAPIKey() {
		t.Error("template must not carry a key")
	}
}

func TestLoadReadsFilesAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	config := `
[coach]
model = "gpt-4o-mini"
response_format = "json"
unify_confidence = false
request_timeout = "15s"

[coach.retry]
max_attempts = 5

[server]
addr = ":9000"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	creds := "[openai]\napi_key = \"sk-from-file\"\n"
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(creds), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRADECOACH_ADDR", "127.0.0.1:7070")
	t.Setenv("TRADECOACH_DB", "/tmp/other.db")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Coach.Model != "gpt-4o-mini" || cfg.Coach.ResponseFormat != "json" || cfg.Coach.UnifyConfidence {
		t.Errorf("coach = %+v", cfg.Coach)
	}
	if cfg.Coach.RequestTimeout != 15*time.Second {
		t.Errorf("request timeout = %v", cfg.Coach.RequestTimeout)
	}
	if cfg.Coach.Retry.MaxAttempts != 5 || cfg.Coach.Retry.MaxDelay != 4*time.Second {
		t.Errorf("retry = %+v, unset keys should keep defaults", cfg.Coach.Retry)
	}
	if cfg.Credentials.OpenAI.APIKey != "sk-from-file" {
		t.Errorf("api key = %q", cfg.Credentials.OpenAI.APIKey)
	}
	if cfg.Server.Addr != "127.0.0.1:7070" || cfg.Storage.DBPath != "/tmp/other.db" {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Server, cfg.Storage)
	}

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	cfg, err = Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Credentials.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("env key should win, got %q", cfg.Credentials.OpenAI.APIKey)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[coach]\nresponse_format = \"xml\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); !apperrors.Is(err, apperrors.ErrConfigInvalid) {
		t.Fatalf("Load() error = %v, want ErrConfigInvalid", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero attempts", func(c *Config) { c.Coach.Retry.MaxAttempts = 0 }, true},
		{"shrinking backoff", func(c *Config) { c.Coach.Retry.Multiplier = 0.5 }, true},
		{"max below initial", func(c *Config) { c.Coach.Retry.MaxDelay = time.Millisecond }, true},
		{"circuit without threshold", func(c *Config) { c.Coach.Circuit.FailureThreshold = 0 }, true},
		{"circuit disabled ignores thresholds", func(c *Config) {
			c.Coach.Circuit.Enabled = false
			c.Coach.Circuit.FailureThreshold = 0
		}, false},
		{"negative rate", func(c *Config) { c.Server.RatePerSec = -1 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }, true},
		{"bad min risk", func(c *Config) { c.Notify.MinRisk = "extreme" }, true},
		{"notify without url", func(c *Config) { c.Notify.Enabled = true }, true},
		{"notify with url", func(c *Config) {
			c.Notify.Enabled = true
			c.Notify.WebhookURL = "https://hooks.example.com/coach"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
