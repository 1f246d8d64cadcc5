// Package security masks credentials before they reach logs, CLI output or stored debug info.
package security

import (
	"regexp"
	"strings"
)

// sensitivePatterns contains regex patterns for sensitive data.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token|password)([=:]\s*)["']?([^\s"',]+)["']?`),
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._\-]{8,})`),
	regexp.MustCompile(`sk-[A-Za-z0-9_\-]{16,}`), // OpenAI keys
}

// MaskCredential keeps the first and last four characters of long values.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// MaskSecrets masks every credential-looking substring of input.
func MaskSecrets(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			switch len(sub) {
			case 4:
				return sub[1] + sub[2] + MaskCredential(sub[3])
			case 3:
				return sub[1] + MaskCredential(sub[2])
			default:
				return MaskCredential(match)
			}
		})
	}
	return result
}

// MaskError returns the masked message of err, or "" for nil.
func MaskError(err error) string {
	if err == nil {
		return ""
	}
	return MaskSecrets(err.Error())
}
