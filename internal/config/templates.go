package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# tradecoach configuration

[coach]
# Vision-capable chat model
model = "gpt-4o"
# Optional OpenAI-compatible endpoint, e.g. "http://localhost:11434/v1"
base_url = ""
# Reply format requested from the model: "text" (section markers) or "json"
response_format = "text"
# Score external analyses with the same rules as offline ones.
# false reports a fixed 0.85 for every external analysis.
unify_confidence = true
# Per-attempt timeout (e.g. "60s", "2m")
request_timeout = "60s"
# Completion token limit
max_tokens = 1500

[coach.retry]
max_attempts = 3
initial_delay = "500ms"
max_delay = "4s"
multiplier = 2.0
jitter = true

[coach.circuit]
enabled = true
# Consecutive failures before calls are short-circuited
failure_threshold = 5
# Successful probes needed to close again
success_threshold = 1
# How long the circuit stays open
timeout = "60s"

[storage]
# Leave empty for ~/.config/tradecoach/journal.db
db_path = ""

[server]
addr = ":8080"
# Token bucket for POST /api/analyses; 0 disables limiting
rate_per_sec = 2.0
burst = 10

[notify]
# POST a JSON alert when a saved analysis reaches min_risk
enabled = false
webhook_url = ""
# acceptable, moderate, elevated
min_risk = "elevated"

[logging]
# debug, info, warn, error
level = "info"
file = true
# Leave empty for ~/.config/tradecoach/logs/tradecoach.log
file_path = ""
max_size = 50
max_backups = 5
max_age = 30
`

const credentialsTemplate = `# tradecoach credentials
# WARNING: Keep this file secure! Do not commit to version control.
# Without a key every analysis uses the offline rules.

[openai]
api_key = ""
`

// writeTemplate writes a commented template for name.toml.
func writeTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}
	return nil
}
