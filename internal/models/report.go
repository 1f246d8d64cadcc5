package models

import "time"

// JournalStats aggregates journal records over a date range.
type JournalStats struct {
	Period        string            `json:"period"`
	Start         time.Time         `json:"start,omitempty"`
	End           time.Time         `json:"end,omitempty"`
	TotalTrades   int               `json:"totalTrades"`
	Wins          int               `json:"wins"`
	Losses        int               `json:"losses"`
	Breakeven     int               `json:"breakeven"`
	WinRate       float64           `json:"winRate"`
	AvgConfidence float64           `json:"avgConfidence"`
	ExternalCount int               `json:"externalCount"`
	FallbackCount int               `json:"fallbackCount"`
	RiskLevels    map[RiskLevel]int `json:"riskLevels"`
	TopEmotions   []EmotionStat     `json:"topEmotions"`
}

// EmotionStat is the outcome breakdown for one primary emotion.
// WinRate counts decided trades only (wins and losses).
type EmotionStat struct {
	Emotion string  `json:"emotion"`
	Count   int     `json:"count"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"winRate"`
}

// WinRate returns wins / (wins + losses) as a percentage, or 0 with no decided trades.
func WinRate(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses) * 100
}
