package coach

import (
	"fmt"
	"strings"

	"tradecoach/internal/models"
)

// Phrases for timeframes outside the lookup table.
const (
	genericTimeframePhrase = "systematic timeframe-based approach"
)

var timeframePhrases = map[string]string{
	"1m":  "scalping approach that demands fast, rules-based execution",
	"5m":  "momentum approach focused on short bursts of directional movement",
	"15m": "intraday swing approach that balances noise against opportunity",
	"1h":  "balanced intraday to short-term swing approach",
	"4h":  "multi-day swing approach that gives trades room to develop",
	"1d":  "position trading approach built around the broader trend",
}

// TimeframePhrase returns the descriptive phrase for a timeframe, matched case-insensitively.
func TimeframePhrase(tf string) string {
	if p, ok := timeframePhrases[strings.ToLower(strings.TrimSpace(tf))]; ok {
		return p
	}
	return genericTimeframePhrase
}

// GenerateFallback builds a complete analysis from fixed rules over the inputs.
// It is deterministic and never touches the network. ID and CreatedAt are left
// for the caller to fill in.
func GenerateFallback(e models.EmotionalState, t models.TradeDetails, m *models.MarketContext) models.AIAnalysis {
	level, assessment := AssessRisk(e, t)
	return models.AIAnalysis{
		Summary:                  fallbackSummary(e, t),
		TechnicalObservations:    technicalObservations(t),
		PsychologicalInsights:    psychologicalInsights(e),
		ImprovementSuggestions:   improvementSuggestions(e, t),
		PatternRecognition:       patternRecognition(e, t),
		ConfidenceScore:          ConfidenceScore(e, t),
		RiskManagementAssessment: assessment,
		RiskLevel:                level,
		MarketContextInsights:    marketInsights(t, m),
		AnalysisMethod:           models.MethodFallback,
	}
}

func directionLabel(d models.Direction) string {
	switch d {
	case models.DirectionLong, models.DirectionShort:
		return string(d)
	default:
		return "directional"
	}
}

func technicalObservations(t models.TradeDetails) []string {
	var obs []string
	if t.Symbol != "" {
		obs = append(obs, fmt.Sprintf("Trade on %s taken as a %s position.", t.Symbol, directionLabel(t.Direction)))
	}
	if t.HasPrices() {
		move := (*t.ExitPrice - *t.EntryPrice) / *t.EntryPrice * 100
		if t.Direction == models.DirectionShort {
			move = -move
		}
		verdict := "in favor of"
		if move < 0 {
			verdict = "against"
		}
		obs = append(obs, fmt.Sprintf("Entry at %.2f and exit at %.2f represent a %.2f%% move %s the position.",
			*t.EntryPrice, *t.ExitPrice, abs(move), verdict))
	}
	if t.Strategy != "" {
		obs = append(obs, fmt.Sprintf("The %s strategy provides a defined framework for judging this trade.", t.Strategy))
	}
	if t.SetupType != "" {
		obs = append(obs, fmt.Sprintf("The %s setup should be tracked so its results can be compared across trades.", t.SetupType))
	}
	if rr := t.RiskRewardRatio; rr != nil {
		switch {
		case *rr >= strongRiskReward:
			obs = append(obs, fmt.Sprintf("A %.1f:1 risk:reward ratio offers a favorable asymmetric payoff.", *rr))
		case *rr >= minRiskReward:
			obs = append(obs, fmt.Sprintf("A %.1f:1 risk:reward ratio meets the recommended minimum.", *rr))
		default:
			obs = append(obs, fmt.Sprintf("A %.1f:1 risk:reward ratio is below the recommended 1.5:1 minimum.", *rr))
		}
	}
	if t.Timeframe != "" {
		obs = append(obs, fmt.Sprintf("The %s timeframe suggests a %s.", t.Timeframe, TimeframePhrase(t.Timeframe)))
	}
	if len(obs) == 0 {
		obs = append(obs, "Limited trade details were provided; add the symbol, prices and strategy for a deeper technical review.")
	}
	return obs
}

func psychologicalInsights(e models.EmotionalState) []string {
	var out []string
	emotion := e.PrimaryEmotion
	if emotion == "" {
		emotion = "emotional state"
	}

	switch {
	case atLeast(e.Intensity, highIntensity):
		out = append(out, fmt.Sprintf("Your %s at intensity %d/10 is strong enough to override your trading plan, narrowing attention and speeding up impulsive decisions.", emotion, e.Intensity))
	case atMost(e.Intensity, lowIntensity):
		out = append(out, fmt.Sprintf("Low emotional intensity (%d/10) suggests you were trading from a calm, detached state.", e.Intensity))
	case set(e.Intensity):
		out = append(out, fmt.Sprintf("Moderate emotional intensity (%d/10) is manageable but worth monitoring as the session develops.", e.Intensity))
	}

	switch {
	case atMost(e.MentalClarity, lowClarity):
		out = append(out, fmt.Sprintf("Mental clarity of %d/10 points to clouded judgment, which makes decisions more prone to bias.", e.MentalClarity))
	case atLeast(e.MentalClarity, highClarity):
		out = append(out, fmt.Sprintf("Excellent mental clarity (%d/10) supports objective analysis and disciplined execution.", e.MentalClarity))
	case set(e.MentalClarity):
		out = append(out, fmt.Sprintf("Adequate mental clarity (%d/10) holds up best when you stick closely to your checklist.", e.MentalClarity))
	}

	switch {
	case atLeast(e.StressLevel, highStress):
		out = append(out, fmt.Sprintf("High stress (%d/10) triggers fight-or-flight responses that push toward premature exits or revenge trades.", e.StressLevel))
	case atMost(e.StressLevel, lowStress):
		out = append(out, fmt.Sprintf("Low stress (%d/10) creates good conditions for patient, rules-based execution.", e.StressLevel))
	case set(e.StressLevel):
		out = append(out, fmt.Sprintf("Moderate stress (%d/10) is normal in live trading, and position sizing keeps it from escalating.", e.StressLevel))
	}

	switch {
	case atMost(e.Confidence, lowConfidence):
		out = append(out, fmt.Sprintf("Low confidence (%d/10) may lead to hesitation, missed entries or cutting winners short.", e.Confidence))
	case atLeast(e.Confidence, highConfidence):
		out = append(out, fmt.Sprintf("High confidence (%d/10) is an asset when earned, but watch for overconfidence and oversized positions.", e.Confidence))
	case set(e.Confidence):
		out = append(out, fmt.Sprintf("Balanced confidence (%d/10) supports decisive action without excessive risk-taking.", e.Confidence))
	}

	if len(e.SecondaryEmotions) > 0 {
		out = append(out, fmt.Sprintf("Secondary emotions (%s) add complexity to your decision-making and deserve a note in your journal.", strings.Join(e.SecondaryEmotions, ", ")))
	}

	if len(out) == 0 {
		out = append(out, "No emotional scores were recorded, so rate intensity, clarity, stress and confidence to unlock psychological insights.")
	}
	return out
}

func improvementSuggestions(e models.EmotionalState, t models.TradeDetails) []string {
	var out []string
	if atLeast(e.Intensity, highIntensity) {
		out = append(out, "Practice breathing techniques such as box breathing for two to three minutes before entering a trade.")
	}
	if atLeast(e.StressLevel, highStress) {
		out = append(out, "While stress is elevated, reduce position size by 25-50% so a single outcome cannot dominate your decisions.")
	}
	if atMost(e.MentalClarity, lowClarity) {
		out = append(out, "Avoid trading when mental clarity is 5/10 or lower, and step away until you can review setups objectively.")
	}
	if atMost(e.Confidence, lowConfidence) {
		out = append(out, "Build confidence through backtesting and paper trading until your strategy's edge feels familiar.")
	}
	if atLeast(e.Confidence, highConfidence) {
		out = append(out, "Run an overconfidence check by confirming every entry against your written plan before committing capital.")
	}
	if t.RiskRewardRatio == nil || *t.RiskRewardRatio < minRiskReward {
		out = append(out, "Target a risk:reward ratio of at least 1.5:1 so that winners more than cover the inevitable losers.")
	}
	if strings.TrimSpace(t.Strategy) == "" {
		out = append(out, "Define a clear strategy with explicit entry, exit and invalidation rules before the next trade.")
	}
	out = append(out,
		"Keep a detailed trading journal that records your emotional state before, during and after each trade.",
		"Schedule a weekly review of your trades to connect emotional patterns with performance outcomes.",
	)
	return out
}

func patternRecognition(e models.EmotionalState, t models.TradeDetails) []string {
	var out []string
	if e.PrimaryEmotion == "anxiety" && atLeast(e.Intensity, anxietyIntensity) {
		out = append(out, "Anxiety at high intensity often leads to premature exits and missed follow-through on winning trades.")
	}
	if atLeast(e.Confidence, highConfidence) && atMost(e.StressLevel, lowStress) {
		out = append(out, "High confidence with low stress reflects a flow state, so document what created it in order to repeat it.")
	}
	if atLeast(e.StressLevel, highStress) && atMost(e.MentalClarity, lowClarity) {
		out = append(out, "High stress combined with low clarity is a classic setup for impulsive, plan-breaking decisions.")
	}
	if (t.Direction == models.DirectionLong || t.Direction == models.DirectionShort) && t.Strategy != "" {
		out = append(out, fmt.Sprintf("Taking %s positions with the %s strategy is a combination worth tracking for its win rate over time.", t.Direction, t.Strategy))
	}
	if t.RiskRewardRatio != nil && *t.RiskRewardRatio >= strongRiskReward {
		out = append(out, "Consistently targeting 2:1 or better risk:reward is a hallmark of sustainable trading.")
	}
	out = append(out, "Tracking emotional states alongside trade outcomes will reveal your personal performance patterns over time.")
	return out
}

func fallbackSummary(e models.EmotionalState, t models.TradeDetails) string {
	subject := "This"
	if t.Symbol != "" {
		subject = t.Symbol
	}
	emotion := e.PrimaryEmotion
	if emotion == "" {
		emotion = "an unspecified emotion"
	}
	return fmt.Sprintf("%s %s trade was taken while feeling %s at intensity %s. %s",
		subject, directionLabel(t.Direction), emotion, score(e.Intensity), summaryInsight(e))
}

func summaryInsight(e models.EmotionalState) string {
	switch {
	case e.PrimaryEmotion == "anxiety" && atLeast(e.Intensity, highIntensity):
		return "Elevated anxiety likely influenced entry and exit timing, so focus on calming routines before the next session."
	case isConfidenceEmotion(e.PrimaryEmotion) && atLeast(e.Intensity, highIntensity):
		return "Strong confidence can sharpen execution but also invites oversized risk, so verify each trade against your plan."
	case atMost(e.Confidence, lowConfidence):
		return "Low self-confidence may be causing hesitation, and rebuilding trust in your process is the priority."
	default:
		return "Your emotional state appears manageable, so keep reinforcing the habits that support disciplined execution."
	}
}

func isConfidenceEmotion(emotion string) bool {
	return emotion == "confidence" || emotion == "confident"
}

func marketInsights(t models.TradeDetails, m *models.MarketContext) []string {
	if m.IsEmpty() {
		return nil
	}
	var out []string
	if v := m.Volatility; v != nil {
		if v.IsHigh {
			out = append(out, fmt.Sprintf("High volatility (%.0fth percentile) widens stops and amplifies emotional swings, so size positions accordingly.", v.Percentile))
		} else {
			out = append(out, fmt.Sprintf("Volatility is contained (%.0fth percentile), which favors tighter risk parameters.", v.Percentile))
		}
	}
	if tr := m.Trend; tr != nil && tr.Direction != "" {
		alignment := "so check whether the trade direction fit the prevailing move"
		switch {
		case trendAligned(tr.Direction, t.Direction):
			alignment = fmt.Sprintf("which aligns with your %s position", t.Direction)
		case t.Direction == models.DirectionLong || t.Direction == models.DirectionShort:
			alignment = fmt.Sprintf("which works against your %s position", t.Direction)
		}
		out = append(out, fmt.Sprintf("The %s trend (strength %.1f over %d periods) %s.", tr.Direction, tr.Strength, tr.Duration, alignment))
	}
	if len(m.KeyLevels) > 0 {
		lvl := m.KeyLevels[0]
		out = append(out, fmt.Sprintf("The nearest %s level at %.2f (distance %.2f) should anchor stop and target placement.", lvl.Type, lvl.Price, lvl.Distance))
	}
	return out
}

func trendAligned(trend string, d models.Direction) bool {
	switch strings.ToLower(trend) {
	case "up", "uptrend", "bullish":
		return d == models.DirectionLong
	case "down", "downtrend", "bearish":
		return d == models.DirectionShort
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
