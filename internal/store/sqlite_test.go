package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "tradecoach/internal/errors"
	"tradecoach/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id string, at time.Time, symbol, emotion string, result models.TradeResult, method models.AnalysisMethod) *models.TradeRecord {
	return &models.TradeRecord{
		ID:        id,
		CreatedAt: at,
		ImageURL:  "https://cdn.example.com/" + id + ".png",
		Emotional: models.EmotionalState{PrimaryEmotion: emotion, Intensity: 6, MentalClarity: 7, StressLevel: 4, Confidence: 6},
		Trade:     models.TradeDetails{Symbol: symbol, Direction: models.DirectionLong, Result: result, EntryPrice: models.Float(100), RiskRewardRatio: models.Float(2)},
		Analysis: models.AIAnalysis{
			ID:                     "a-" + id,
			Summary:                "summary for " + id,
			ImprovementSuggestions: []string{"Keep a detailed trading journal"},
			ConfidenceScore:        0.7,
			RiskLevel:              models.RiskAcceptable,
			AnalysisMethod:         method,
			CreatedAt:              at,
		},
	}
}

func TestSaveAndGetRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	rec := testRecord("r1", now, "AAPL", "fear", models.ResultWin, models.MethodFallback)
	rec.Market = &models.MarketContext{Trend: &models.Trend{Direction: "up", Strength: 0.6, Duration: 10}}
	rec.Analysis.DebugInfo = &models.DebugInfo{Reason: models.ReasonMissingAPIKey}
	if err := s.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord() error = %v", err)
	}

	got, err := s.GetRecord(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
	if got.Trade.Symbol != "AAPL" || *got.Trade.EntryPrice != 100 || got.Trade.ExitPrice != nil {
		t.Errorf("trade details not preserved: %+v", got.Trade)
	}
	if got.Market == nil || got.Market.Trend.Direction != "up" {
		t.Errorf("market context not preserved: %+v", got.Market)
	}
	if got.Analysis.DebugInfo == nil || got.Analysis.DebugInfo.Reason != models.ReasonMissingAPIKey {
		t.Errorf("debug info not preserved: %+v", got.Analysis.DebugInfo)
	}

	if err := s.SaveRecord(ctx, rec); !apperrors.Is(err, apperrors.ErrDatabaseError) {
		t.Errorf("duplicate id should fail with ErrDatabaseError, got %v", err)
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetRecord(ctx, "nope"); !apperrors.Is(err, apperrors.ErrRecordNotFound) {
		t.Errorf("GetRecord() error = %v, want ErrRecordNotFound", err)
	}
	if err := s.DeleteRecord(ctx, "nope"); !apperrors.Is(err, apperrors.ErrRecordNotFound) {
		t.Errorf("DeleteRecord() error = %v, want ErrRecordNotFound", err)
	}
}

func TestListRecordsFiltersAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	fixtures := []*models.TradeRecord{
		testRecord("a", base, "AAPL", "fear", models.ResultLoss, models.MethodFallback),
		testRecord("b", base.Add(time.Hour), "MSFT", "greed", models.ResultWin, models.MethodExternal),
		testRecord("c", base.Add(2*time.Hour), "AAPL", "fear", models.ResultWin, models.MethodExternal),
		testRecord("d", base.Add(48*time.Hour), "TSLA", "calm", models.ResultBreakeven, models.MethodFallback),
	}
	for _, r := range fixtures {
		if err := s.SaveRecord(ctx, r); err != nil {
			t.Fatalf("SaveRecord(%s) error = %v", r.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter TradeFilter
		want   []string
	}{
		{"all newest first", TradeFilter{}, []string{"d", "c", "b", "a"}},
		{"symbol case-insensitive", TradeFilter{Symbol: "aapl"}, []string{"c", "a"}},
		{"method", TradeFilter{Method: models.MethodExternal}, []string{"c", "b"}},
		{"result", TradeFilter{Result: models.ResultWin}, []string{"c", "b"}},
		{"emotion", TradeFilter{Emotion: "Fear"}, []string{"c", "a"}},
		{"date range", TradeFilter{StartDate: base.Add(30 * time.Minute), EndDate: base.Add(3 * time.Hour)}, []string{"c", "b"}},
		{"limit", TradeFilter{Limit: 1}, []string{"d"}},
		{"no match", TradeFilter{Symbol: "GOOG"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListRecords(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListRecords() error = %v", err)
			}
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}

	if err := s.DeleteRecord(ctx, "b"); err != nil {
		t.Fatalf("DeleteRecord() error = %v", err)
	}
	if got, _ := s.ListRecords(ctx, TradeFilter{}); len(got) != 3 {
		t.Errorf("expected 3 records after delete, got %d", len(got))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	empty, err := s.Stats(ctx, DateRange{})
	if err != nil {
		t.Fatalf("Stats() on empty store error = %v", err)
	}
	if empty.TotalTrades != 0 || empty.WinRate != 0 || len(empty.TopEmotions) != 0 {
		t.Errorf("unexpected empty stats: %+v", empty)
	}

	fixtures := []*models.TradeRecord{
		testRecord("a", base, "AAPL", "fear", models.ResultLoss, models.MethodFallback),
		testRecord("b", base.Add(time.Minute), "AAPL", "fear", models.ResultWin, models.MethodExternal),
		testRecord("c", base.Add(2*time.Minute), "AAPL", "fear", models.ResultLoss, models.MethodExternal),
		testRecord("d", base.Add(3*time.Minute), "MSFT", "greed", models.ResultWin, models.MethodFallback),
		testRecord("e", base.Add(4*time.Minute), "MSFT", "", models.ResultBreakeven, models.MethodFallback),
	}
	fixtures[0].Analysis.RiskLevel = models.RiskElevated
	fixtures[0].Analysis.ConfidenceScore = 0.5
	for _, r := range fixtures {
		if err := s.SaveRecord(ctx, r); err != nil {
			t.Fatalf("SaveRecord(%s) error = %v", r.ID, err)
		}
	}

	stats, err := s.Stats(ctx, DateRange{})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalTrades != 5 || stats.Wins != 2 || stats.Losses != 2 || stats.Breakeven != 1 {
		t.Errorf("outcome counts wrong: %+v", stats)
	}
	if stats.WinRate != 50 {
		t.Errorf("WinRate = %v, want 50", stats.WinRate)
	}
	if stats.ExternalCount != 2 || stats.FallbackCount != 3 {
		t.Errorf("method counts wrong: %+v", stats)
	}
	if got := stats.AvgConfidence; got < 0.659 || got > 0.661 {
		t.Errorf("AvgConfidence = %v, want 0.66", got)
	}
	if stats.RiskLevels[models.RiskElevated] != 1 || stats.RiskLevels[models.RiskAcceptable] != 4 {
		t.Errorf("RiskLevels = %v", stats.RiskLevels)
	}
	if len(stats.TopEmotions) != 2 || stats.TopEmotions[0].Emotion != "fear" || stats.TopEmotions[0].Count != 3 {
		t.Fatalf("TopEmotions = %+v", stats.TopEmotions)
	}
	if wr := stats.TopEmotions[0].WinRate; wr < 33.3 || wr > 33.4 {
		t.Errorf("fear win rate = %v", wr)
	}

	ranged, err := s.Stats(ctx, DateRange{Start: base.Add(150 * time.Second)})
	if err != nil {
		t.Fatalf("Stats() ranged error = %v", err)
	}
	if ranged.TotalTrades != 2 {
		t.Errorf("ranged TotalTrades = %d, want 2", ranged.TotalTrades)
	}
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 4, 5, 0, time.UTC)
	daily, ok := PeriodRange("daily", now)
	if !ok || !daily.Start.Equal(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily = %+v", daily)
	}
	weekly, _ := PeriodRange("weekly", now)
	if !weekly.Start.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("weekly = %+v", weekly)
	}
	all, ok := PeriodRange("all", now)
	if !ok || !all.Start.IsZero() || !all.End.IsZero() {
		t.Errorf("all = %+v", all)
	}
	if _, ok := PeriodRange("fortnightly", now); ok {
		t.Error("unknown period should not be accepted")
	}
}

func TestEffectiveLimit(t *testing.T) {
	if (TradeFilter{}).EffectiveLimit() != DefaultLimit {
		t.Error("zero limit should use the default")
	}
	if (TradeFilter{Limit: 10000}).EffectiveLimit() != MaxLimit {
		t.Error("limit should be capped")
	}
	if (TradeFilter{Limit: 7}).EffectiveLimit() != 7 {
		t.Error("explicit limit should be kept")
	}
}

// TestProperty_RecordRoundTrip checks that saving then loading a record
// preserves the submission and analysis fields.
func TestProperty_RecordRoundTrip(t *testing.T) {
	s := newTestStore(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	counter := 0
	properties.Property("save then get returns the same record", prop.ForAll(
		func(intensity, stress int, confidence float64, emotion string, hasExit bool) bool {
			ctx := context.Background()
			counter++
			id := fmt.Sprintf("prop-%d", counter)
			rec := testRecord(id, time.Now().UTC().Truncate(time.Microsecond), "NIFTY", emotion, models.ResultUnknown, models.MethodFallback)
			rec.Emotional.Intensity = intensity
			rec.Emotional.StressLevel = stress
			rec.Analysis.ConfidenceScore = confidence
			if hasExit {
				rec.Trade.ExitPrice = models.Float(101.25)
			}

			if err := s.SaveRecord(ctx, rec); err != nil {
				t.Logf("Failed to save record: %v", err)
				return false
			}
			got, err := s.GetRecord(ctx, id)
			if err != nil {
				t.Logf("Failed to get record: %v", err)
				return false
			}
			return got.Emotional.Intensity == intensity &&
				got.Emotional.StressLevel == stress &&
				got.Emotional.PrimaryEmotion == emotion &&
				got.Analysis.ConfidenceScore == confidence &&
				(got.Trade.ExitPrice != nil) == hasExit &&
				got.CreatedAt.Equal(rec.CreatedAt)
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
		gen.Float64Range(0.3, 0.95),
		gen.OneConstOf("fear", "greed", "anxiety", "calm", ""),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
