// Package coach turns a trade submission into an AIAnalysis, either through
// the hosted model or through the offline rule set.
package coach

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"tradecoach/internal/models"
)

// Section markers shared by the prompt and the free-text parser.
const (
	MarkerTechnical     = "TECHNICAL ANALYSIS:"
	MarkerPsychological = "PSYCHOLOGICAL ANALYSIS:"
	MarkerSuggestions   = "IMPROVEMENT SUGGESTIONS:"
	MarkerPatterns      = "PATTERN RECOGNITION:"
)

// NotSpecified is rendered for every missing input value.
const NotSpecified = "Not specified"

const maxPromptKeyLevels = 5

// SystemPrompt is the fixed instruction for free-text replies.
const SystemPrompt = `You are an expert trading psychologist and technical analyst.
You review a trader's chart together with their emotional state and trade details,
and you coach them on both execution and mindset.

Respond in exactly four sections, each introduced by its label on its own line,
with one bullet point ("- ") per observation:

TECHNICAL ANALYSIS:
PSYCHOLOGICAL ANALYSIS:
IMPROVEMENT SUGGESTIONS:
PATTERN RECOGNITION:

Keep each bullet to one or two sentences. Do not use sub-headings inside a section.`

// SystemPromptJSON is the fixed instruction used when a JSON object is requested.
const SystemPromptJSON = `You are an expert trading psychologist and technical analyst.
You review a trader's chart together with their emotional state and trade details,
and you coach them on both execution and mindset.

Respond with a single JSON object and nothing else, using these keys:
  "technical_analysis": array of strings
  "psychological_analysis": array of strings
  "improvement_suggestions": array of strings
  "pattern_recognition": array of strings
  "summary": string

Each array item is one observation of one or two sentences.`

// BuildPrompt renders the submission as delimited TRADE CONTEXT, EMOTIONAL STATE
// and MARKET CONTEXT sections. Missing values render as "Not specified".
func BuildPrompt(emotional models.EmotionalState, trade models.TradeDetails, market *models.MarketContext) string {
	var b strings.Builder

	b.WriteString("Analyze this trading chart and the trader's state at the time of the trade.\n\n")

	b.WriteString("TRADE CONTEXT:\n")
	line(&b, "Symbol", text(trade.Symbol))
	line(&b, "Direction", enumText(string(trade.Direction), string(models.DirectionUnknown)))
	line(&b, "Entry Price", price(trade.EntryPrice))
	line(&b, "Exit Price", price(trade.ExitPrice))
	line(&b, "Timeframe", text(trade.Timeframe))
	line(&b, "Result", enumText(string(trade.Result), string(models.ResultUnknown)))
	line(&b, "Risk:Reward Ratio", ratio(trade.RiskRewardRatio))
	line(&b, "Strategy", text(trade.Strategy))
	line(&b, "Setup Type", text(trade.SetupType))

	b.WriteString("\nEMOTIONAL STATE:\n")
	line(&b, "Primary Emotion", text(emotional.PrimaryEmotion))
	line(&b, "Intensity", score(emotional.Intensity))
	if len(emotional.SecondaryEmotions) > 0 {
		line(&b, "Secondary Emotions", strings.Join(emotional.SecondaryEmotions, ", "))
	} else {
		line(&b, "Secondary Emotions", NotSpecified)
	}
	line(&b, "Mental Clarity", score(emotional.MentalClarity))
	line(&b, "Stress Level", score(emotional.StressLevel))
	line(&b, "Confidence", score(emotional.Confidence))
	line(&b, "Notes", text(emotional.Notes))

	b.WriteString("\nMARKET CONTEXT:\n")
	writeMarket(&b, market)

	return b.String()
}

func writeMarket(b *strings.Builder, m *models.MarketContext) {
	if m.IsEmpty() {
		line(b, "Market Data", NotSpecified)
		return
	}
	if v := m.Volatility; v != nil {
		regime := "normal"
		if v.IsHigh {
			regime = "high"
		}
		line(b, "Volatility", fmt.Sprintf("%s (value %s, %s percentile)", regime, num(v.Value), num(v.Percentile)))
	}
	if t := m.Trend; t != nil {
		line(b, "Trend", fmt.Sprintf("%s, strength %s, %d periods", text(t.Direction), num(t.Strength), t.Duration))
	}
	for i, lvl := range m.KeyLevels {
		if i == maxPromptKeyLevels {
			break
		}
		line(b, "Key Level", fmt.Sprintf("%s at %s (strength %s, distance %s)", text(lvl.Type), num(lvl.Price), num(lvl.Strength), num(lvl.Distance)))
	}
	writeSortedMap(b, "Moving Average", m.MovingAverages)
	writeSortedMap(b, "Indicator", m.Indicators)
}

func writeSortedMap(b *strings.Builder, label string, values map[string]float64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line(b, label, fmt.Sprintf("%s = %s", k, num(values[k])))
	}
}

func line(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotSpecified
	}
	return s
}

func enumText(s, unknown string) string {
	if s == "" || s == unknown {
		return NotSpecified
	}
	return s
}

func score(v int) string {
	if v == 0 {
		return NotSpecified
	}
	return fmt.Sprintf("%d/10", v)
}

func price(p *float64) string {
	if p == nil {
		return NotSpecified
	}
	return num(*p)
}

func ratio(p *float64) string {
	if p == nil {
		return NotSpecified
	}
	return num(*p) + ":1"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
