package coach

import (
	"fmt"
	"math"
	"strings"

	"tradecoach/internal/models"
)

// Score bounds and the constant used by the legacy external path.
const (
	BaseConfidence   = 0.5
	MinConfidence    = 0.3
	MaxConfidence    = 0.95
	LegacyConfidence = 0.85
)

// Emotional thresholds. A zero score means the field was not filled in and
// never triggers a rule.
const (
	highIntensity     = 7
	lowIntensity      = 3
	lowClarity        = 5
	highClarity       = 8
	goodClarity       = 7
	highStress        = 7
	lowStress         = 3
	calmStress        = 5
	lowConfidence     = 4
	highConfidence    = 8
	minRiskReward     = 1.5
	strongRiskReward  = 2.0
	anxietyIntensity  = 6
	balancedConfLower = 6
	balancedConfUpper = 8
)

func set(v int) bool { return v > 0 }

func atLeast(v, threshold int) bool { return set(v) && v >= threshold }

func atMost(v, threshold int) bool { return set(v) && v <= threshold }

// ConfidenceScore is the bounded additive score shared by both analysis paths.
func ConfidenceScore(e models.EmotionalState, t models.TradeDetails) float64 {
	score := BaseConfidence
	if atLeast(e.MentalClarity, goodClarity) {
		score += 0.1
	}
	if atMost(e.StressLevel, calmStress) {
		score += 0.1
	}
	if atLeast(e.Confidence, balancedConfLower) && e.Confidence <= balancedConfUpper {
		score += 0.1
	}
	if t.RiskRewardRatio != nil && *t.RiskRewardRatio >= minRiskReward {
		score += 0.1
	}
	if strings.TrimSpace(t.Strategy) != "" {
		score += 0.05
	}
	if t.HasPrices() {
		score += 0.05
	}
	return clampConfidence(score)
}

func clampConfidence(v float64) float64 {
	v = math.Round(v*100) / 100
	return math.Max(MinConfidence, math.Min(MaxConfidence, v))
}

// RiskFactors lists the psychological risk factors present in e.
func RiskFactors(e models.EmotionalState) []string {
	var factors []string
	if atLeast(e.StressLevel, highStress) {
		factors = append(factors, fmt.Sprintf("high stress (%d/10)", e.StressLevel))
	}
	if atMost(e.Confidence, lowConfidence) {
		factors = append(factors, fmt.Sprintf("low confidence (%d/10)", e.Confidence))
	}
	if atMost(e.MentalClarity, lowClarity) {
		factors = append(factors, fmt.Sprintf("reduced mental clarity (%d/10)", e.MentalClarity))
	}
	return factors
}

// RiskLevelFor maps a factor count to a risk level.
func RiskLevelFor(count int) models.RiskLevel {
	switch {
	case count >= 2:
		return models.RiskElevated
	case count == 1:
		return models.RiskModerate
	default:
		return models.RiskAcceptable
	}
}

// AssessRisk returns the risk level and the assessment text, ending with a risk:reward clause.
func AssessRisk(e models.EmotionalState, t models.TradeDetails) (models.RiskLevel, string) {
	factors := RiskFactors(e)
	level := RiskLevelFor(len(factors))

	var b strings.Builder
	fmt.Fprintf(&b, "Risk level is %s", level)
	if len(factors) > 0 {
		fmt.Fprintf(&b, " with %d psychological risk factor", len(factors))
		if len(factors) > 1 {
			b.WriteString("s")
		}
		fmt.Fprintf(&b, " present (%s).", strings.Join(factors, ", "))
	} else {
		b.WriteString(" with no psychological risk factors present.")
	}
	b.WriteString(" ")
	b.WriteString(riskRewardClause(t.RiskRewardRatio))
	return level, b.String()
}

func riskRewardClause(rr *float64) string {
	switch {
	case rr == nil:
		return "No risk:reward ratio was recorded, so trade-level risk could not be assessed."
	case *rr >= strongRiskReward:
		return fmt.Sprintf("The %.1f:1 risk:reward ratio gives a strong buffer against losing trades.", *rr)
	case *rr >= minRiskReward:
		return fmt.Sprintf("The %.1f:1 risk:reward ratio meets the recommended minimum.", *rr)
	default:
		return fmt.Sprintf("The %.1f:1 risk:reward ratio is below the recommended 1.5:1 minimum.", *rr)
	}
}
