package cli

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// FormatConfidence formats a 0-1 confidence score as a percentage.
func FormatConfidence(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}

// FormatWinRate formats a win rate that is already a percentage.
func FormatWinRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// FormatPrice formats an optional price, "-" when unset.
func FormatPrice(price *float64) string {
	if price == nil {
		return "-"
	}
	return strconv.FormatFloat(*price, 'f', -1, 64)
}

// FormatRiskReward formats an optional reward-to-risk ratio as "2:1".
func FormatRiskReward(rr *float64) string {
	if rr == nil {
		return "-"
	}
	return strconv.FormatFloat(*rr, 'f', -1, 64) + ":1"
}

// FormatScore formats a 1-10 self-assessment, "-" when left blank.
func FormatScore(score int) string {
	if score == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/10", score)
}

// FormatDateTime formats a timestamp in local time.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("02-Jan-2006 15:04")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// TruncateString truncates a string to max runes with an ellipsis.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// orDash returns s, or "-" when empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
