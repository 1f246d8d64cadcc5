package coach

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tradecoach/internal/models"
)

func TestConfidenceScoreExamples(t *testing.T) {
	tests := []struct {
		name  string
		state models.EmotionalState
		trade models.TradeDetails
		want  float64
	}{
		{"no bonuses", models.EmotionalState{MentalClarity: 4, StressLevel: 8, Confidence: 3}, models.TradeDetails{RiskRewardRatio: models.Float(1.0)}, 0.5},
		{"blank input", models.EmotionalState{}, models.TradeDetails{}, 0.5},
		{"clarity and stress", models.EmotionalState{MentalClarity: 7, StressLevel: 5}, models.TradeDetails{}, 0.7},
		{"balanced confidence upper bound", models.EmotionalState{Confidence: 8}, models.TradeDetails{}, 0.6},
		{"confidence above band", models.EmotionalState{Confidence: 9}, models.TradeDetails{}, 0.5},
		{"trade bonuses", models.EmotionalState{}, models.TradeDetails{RiskRewardRatio: models.Float(1.5), Strategy: "breakout", EntryPrice: models.Float(1), ExitPrice: models.Float(2)}, 0.7},
		{"zero entry price earns nothing", models.EmotionalState{}, models.TradeDetails{EntryPrice: models.Float(0), ExitPrice: models.Float(2)}, 0.5},
		{"everything clamps", models.EmotionalState{MentalClarity: 9, StressLevel: 1, Confidence: 7}, models.TradeDetails{RiskRewardRatio: models.Float(3), Strategy: "trend", EntryPrice: models.Float(1), ExitPrice: models.Float(2)}, MaxConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConfidenceScore(tt.state, tt.trade); got != tt.want {
				t.Errorf("ConfidenceScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssessRiskLevels(t *testing.T) {
	tests := []struct {
		name  string
		state models.EmotionalState
		want  models.RiskLevel
	}{
		{"three factors", models.EmotionalState{StressLevel: 8, Confidence: 3, MentalClarity: 4}, models.RiskElevated},
		{"two factors", models.EmotionalState{StressLevel: 7, Confidence: 4, MentalClarity: 9}, models.RiskElevated},
		{"one factor", models.EmotionalState{StressLevel: 2, Confidence: 5, MentalClarity: 5}, models.RiskModerate},
		{"none", models.EmotionalState{StressLevel: 6, Confidence: 5, MentalClarity: 6}, models.RiskAcceptable},
		{"unspecified", models.EmotionalState{}, models.RiskAcceptable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, text := AssessRisk(tt.state, models.TradeDetails{})
			if level != tt.want {
				t.Errorf("level = %s, want %s", level, tt.want)
			}
			if text == "" {
				t.Error("assessment text is empty")
			}
		})
	}
}

// TestScoringProperties checks the scoring invariants over the full score range.
func TestScoringProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	score := gen.IntRange(0, 10)

	properties.Property("confidence stays within bounds", prop.ForAll(
		func(clarity, stress, confidence int, rr float64, hasRR, hasStrategy, hasPrices bool) bool {
			trade := models.TradeDetails{}
			if hasRR {
				trade.RiskRewardRatio = models.Float(rr)
			}
			if hasStrategy {
				trade.Strategy = "breakout"
			}
			if hasPrices {
				trade.EntryPrice, trade.ExitPrice = models.Float(10), models.Float(11)
			}
			got := ConfidenceScore(models.EmotionalState{MentalClarity: clarity, StressLevel: stress, Confidence: confidence}, trade)
			return got >= MinConfidence && got <= MaxConfidence
		},
		score, score, score,
		gen.Float64Range(0, 10),
		gen.Bool(), gen.Bool(), gen.Bool(),
	))

	properties.Property("three risk factors are always elevated", prop.ForAll(
		func(stress, confidence, clarity int) bool {
			level, _ := AssessRisk(models.EmotionalState{StressLevel: stress, Confidence: confidence, MentalClarity: clarity}, models.TradeDetails{})
			return level == models.RiskElevated
		},
		gen.IntRange(7, 10), gen.IntRange(1, 4), gen.IntRange(1, 5),
	))

	properties.Property("no risk factors is acceptable", prop.ForAll(
		func(stress, confidence, clarity int) bool {
			level, _ := AssessRisk(models.EmotionalState{StressLevel: stress, Confidence: confidence, MentalClarity: clarity}, models.TradeDetails{})
			return level == models.RiskAcceptable
		},
		gen.IntRange(1, 6), gen.IntRange(5, 10), gen.IntRange(6, 10),
	))

	properties.Property("risk level follows the factor count", prop.ForAll(
		func(stress, confidence, clarity int) bool {
			e := models.EmotionalState{StressLevel: stress, Confidence: confidence, MentalClarity: clarity}
			level, _ := AssessRisk(e, models.TradeDetails{})
			return level == RiskLevelFor(len(RiskFactors(e)))
		},
		score, score, score,
	))

	properties.TestingRun(t)
}
