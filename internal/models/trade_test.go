package models

import (
	"testing"

	apperrors "tradecoach/internal/errors"
)

func TestSubmissionValidate(t *testing.T) {
	tests := []struct {
		name    string
		sub     Submission
		wantErr bool
	}{
		{
			name: "blank submission is allowed",
			sub:  Submission{},
		},
		{
			name: "full submission",
			sub: Submission{
				Emotional: EmotionalState{PrimaryEmotion: "calm", Intensity: 4, MentalClarity: 8, StressLevel: 2, Confidence: 7},
				Trade:     TradeDetails{Symbol: "AAPL", EntryPrice: Float(100), ExitPrice: Float(105), Direction: DirectionLong, Result: ResultWin},
				ImageURL:  "https://cdn.example.com/chart.png",
			},
		},
		{
			name:    "intensity out of range",
			sub:     Submission{Emotional: EmotionalState{Intensity: 11}},
			wantErr: true,
		},
		{
			name:    "unknown direction",
			sub:     Submission{Trade: TradeDetails{Direction: "sideways"}},
			wantErr: true,
		},
		{
			name:    "negative price",
			sub:     Submission{Trade: TradeDetails{EntryPrice: Float(-1)}},
			wantErr: true,
		},
		{
			name:    "non-http image",
			sub:     Submission{ImageURL: "ftp://example.com/chart.png"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.Is(err, apperrors.ErrInputValidation) {
				t.Fatalf("expected ErrInputValidation, got %v", err)
			}
		})
	}
}

func TestSubmissionNormalize(t *testing.T) {
	s := Submission{
		Emotional: EmotionalState{PrimaryEmotion: "  Anxiety "},
		Trade:     TradeDetails{Symbol: " btcusd ", Timeframe: " 1H "},
	}
	s.Normalize()

	if s.Emotional.PrimaryEmotion != "anxiety" {
		t.Errorf("PrimaryEmotion = %q", s.Emotional.PrimaryEmotion)
	}
	if s.Trade.Symbol != "BTCUSD" || s.Trade.Timeframe != "1H" {
		t.Errorf("unexpected trade normalization: %+v", s.Trade)
	}
	if s.Trade.Direction != DirectionUnknown || s.Trade.Result != ResultUnknown {
		t.Errorf("expected unknown enums, got %s/%s", s.Trade.Direction, s.Trade.Result)
	}
}

func TestHasPrices(t *testing.T) {
	tests := []struct {
		name  string
		trade TradeDetails
		want  bool
	}{
		{"both", TradeDetails{EntryPrice: Float(100), ExitPrice: Float(105)}, true},
		{"missing exit", TradeDetails{EntryPrice: Float(100)}, false},
		{"zero entry", TradeDetails{EntryPrice: Float(0), ExitPrice: Float(105)}, false},
		{"zero exit", TradeDetails{EntryPrice: Float(100), ExitPrice: Float(0)}, false},
	}
	for _, tt := range tests {
		if got := tt.trade.HasPrices(); got != tt.want {
			t.Errorf("%s: HasPrices() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseDirectionAndResult(t *testing.T) {
	if ParseDirection("BUY") != DirectionLong || ParseDirection("short") != DirectionShort || ParseDirection("??") != DirectionUnknown {
		t.Fatal("ParseDirection mapping is wrong")
	}
	if ParseTradeResult("Win") != ResultWin || ParseTradeResult("be") != ResultBreakeven || ParseTradeResult("") != ResultUnknown {
		t.Fatal("ParseTradeResult mapping is wrong")
	}
}

func TestMarketContextIsEmpty(t *testing.T) {
	var m *MarketContext
	if !m.IsEmpty() {
		t.Fatal("nil context should be empty")
	}
	if (&MarketContext{}).IsEmpty() != true {
		t.Fatal("zero context should be empty")
	}
	if (&MarketContext{Trend: &Trend{Direction: "up"}}).IsEmpty() {
		t.Fatal("context with trend should not be empty")
	}
}
