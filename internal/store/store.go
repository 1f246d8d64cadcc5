// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"tradecoach/internal/models"
)

// Listing limits.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// JournalStore persists trade records. Records are immutable once saved.
type JournalStore interface {
	SaveRecord(ctx context.Context, record *models.TradeRecord) error
	// GetRecord returns apperrors.ErrRecordNotFound for an unknown id.
	GetRecord(ctx context.Context, id string) (*models.TradeRecord, error)
	// ListRecords returns records newest first.
	ListRecords(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	Stats(ctx context.Context, dateRange DateRange) (*models.JournalStats, error)

	Ping(ctx context.Context) error
	Close() error
}

// TradeFilter represents filters for querying trade records.
type TradeFilter struct {
	Symbol    string
	Method    models.AnalysisMethod
	Result    models.TradeResult
	Emotion   string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// EffectiveLimit applies the default and the upper bound.
func (f TradeFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

// DateRange represents a date range. Zero bounds are open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// PeriodRange returns the range for a report period ending at now:
// daily is the current UTC day, weekly and monthly are the trailing 7 and 30 days,
// and all is unbounded.
func PeriodRange(period string, now time.Time) (DateRange, bool) {
	now = now.UTC()
	switch period {
	case "daily", "day":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: now}, true
	case "weekly", "week":
		return DateRange{Start: now.AddDate(0, 0, -7), End: now}, true
	case "monthly", "month":
		return DateRange{Start: now.AddDate(0, 0, -30), End: now}, true
	case "all", "":
		return DateRange{}, true
	default:
		return DateRange{}, false
	}
}
