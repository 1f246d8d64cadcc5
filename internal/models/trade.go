package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "tradecoach/internal/errors"
)

// EmotionalState captures how the trader felt when taking the trade.
// Scores run 1-10; zero means the trader left the field blank.
type EmotionalState struct {
	PrimaryEmotion    string   `json:"primaryEmotion"`
	Intensity         int      `json:"intensity"`
	SecondaryEmotions []string `json:"secondaryEmotions,omitempty"`
	MentalClarity     int      `json:"mentalClarity"`
	StressLevel       int      `json:"stressLevel"`
	Confidence        int      `json:"confidence"`
	Notes             string   `json:"notes,omitempty"`
}

// TradeDetails is the partially filled trade form. Nil numeric fields were not supplied.
type TradeDetails struct {
	Symbol          string      `json:"symbol,omitempty"`
	EntryPrice      *float64    `json:"entryPrice,omitempty"`
	ExitPrice       *float64    `json:"exitPrice,omitempty"`
	Direction       Direction   `json:"direction,omitempty"`
	Timeframe       string      `json:"timeframe,omitempty"`
	Result          TradeResult `json:"result,omitempty"`
	RiskRewardRatio *float64    `json:"riskRewardRatio,omitempty"`
	Strategy        string      `json:"strategy,omitempty"`
	SetupType       string      `json:"setupType,omitempty"`
}

// HasPrices reports whether both entry and exit prices were supplied and non-zero.
func (t TradeDetails) HasPrices() bool {
	return t.EntryPrice != nil && t.ExitPrice != nil && *t.EntryPrice > 0 && *t.ExitPrice > 0
}

// Submission is one trade as sent by the caller for analysis.
type Submission struct {
	Emotional EmotionalState `json:"emotionalState"`
	Trade     TradeDetails   `json:"tradeDetails"`
	Market    *MarketContext `json:"marketContext,omitempty"`
	ImageURL  string         `json:"imageUrl,omitempty"`
}

// Validate checks ranges and enums only; missing fields are allowed.
func (s *Submission) Validate() error {
	scores := []struct {
		field string
		value int
	}{
		{"emotionalState.intensity", s.Emotional.Intensity},
		{"emotionalState.mentalClarity", s.Emotional.MentalClarity},
		{"emotionalState.stressLevel", s.Emotional.StressLevel},
		{"emotionalState.confidence", s.Emotional.Confidence},
	}
	for _, sc := range scores {
		if sc.value != 0 && (sc.value < 1 || sc.value > 10) {
			return apperrors.NewValidationError(sc.field, sc.value, "must be between 1 and 10")
		}
	}
	if !s.Trade.Direction.IsValid() {
		return apperrors.NewValidationError("tradeDetails.direction", s.Trade.Direction, "must be long, short or unknown")
	}
	if !s.Trade.Result.IsValid() {
		return apperrors.NewValidationError("tradeDetails.result", s.Trade.Result, "must be win, loss, breakeven or unknown")
	}
	for _, p := range []struct {
		field string
		value *float64
	}{
		{"tradeDetails.entryPrice", s.Trade.EntryPrice},
		{"tradeDetails.exitPrice", s.Trade.ExitPrice},
		{"tradeDetails.riskRewardRatio", s.Trade.RiskRewardRatio},
	} {
		if p.value != nil && *p.value < 0 {
			return apperrors.NewValidationError(p.field, *p.value, "must not be negative")
		}
	}
	if s.ImageURL != "" && !strings.HasPrefix(s.ImageURL, "http://") && !strings.HasPrefix(s.ImageURL, "https://") && !strings.HasPrefix(s.ImageURL, "data:image/") {
		return apperrors.NewValidationError("imageUrl", s.ImageURL, "must be an http(s) or data:image URL")
	}
	return nil
}

// Normalize fills empty enums with their unknown value and tidies free text.
func (s *Submission) Normalize() {
	s.Emotional.PrimaryEmotion = strings.ToLower(strings.TrimSpace(s.Emotional.PrimaryEmotion))
	s.Trade.Symbol = strings.ToUpper(strings.TrimSpace(s.Trade.Symbol))
	s.Trade.Timeframe = strings.TrimSpace(s.Trade.Timeframe)
	if s.Trade.Direction == "" {
		s.Trade.Direction = DirectionUnknown
	}
	if s.Trade.Result == "" {
		s.Trade.Result = ResultUnknown
	}
}

// TradeRecord is a stored journal entry: the submission plus the analysis it produced.
type TradeRecord struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	ImageURL  string         `json:"imageUrl,omitempty"`
	Emotional EmotionalState `json:"emotionalState"`
	Trade     TradeDetails   `json:"tradeDetails"`
	Market    *MarketContext `json:"marketContext,omitempty"`
	Analysis  AIAnalysis     `json:"analysis"`
}

// String returns a short one-line description used in logs and CLI listings.
func (r TradeRecord) String() string {
	symbol := r.Trade.Symbol
	if symbol == "" {
		symbol = "-"
	}
	return fmt.Sprintf("%s %s %s (%s, %.2f)", r.ID, symbol, r.Trade.Direction, r.Analysis.AnalysisMethod, r.Analysis.ConfidenceScore)
}

// Float returns a pointer to v, for filling optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
