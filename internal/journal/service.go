// Package journal stores every analyzed submission and reports on the history.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "tradecoach/internal/errors"
	"tradecoach/internal/logging"
	"tradecoach/internal/models"
	"tradecoach/internal/notify"
	"tradecoach/internal/performance"
	"tradecoach/internal/store"
)

// Analyzer produces an analysis for a submission. coach.Analyzer implements it.
type Analyzer interface {
	Analyze(ctx context.Context, sub models.Submission) models.AIAnalysis
}

// notifyTimeout bounds delivery of one alert.
const notifyTimeout = 10 * time.Second

// Service ties the analyzer to the journal store.
type Service struct {
	analyzer Analyzer
	store    store.JournalStore
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a journal service.
func NewService(analyzer Analyzer, st store.JournalStore, logger zerolog.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		store:    st,
		logger:   logger,
		notifier: notify.NoOpNotifier{},
		now:      time.Now,
	}
}

// SetNotifier installs the notifier told about every saved record.
func (s *Service) SetNotifier(n notify.Notifier) {
	if n == nil {
		n = notify.NoOpNotifier{}
	}
	s.notifier = n
}

// Analyze validates and analyzes a submission without storing it.
func (s *Service) Analyze(ctx context.Context, sub models.Submission) (models.AIAnalysis, error) {
	if err := sub.Validate(); err != nil {
		return models.AIAnalysis{}, err
	}
	sub.Normalize()
	return s.analyzer.Analyze(ctx, sub), nil
}

// Submit validates, analyzes and stores a submission. Analysis failures never
// surface here; only validation and storage errors do.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (*models.TradeRecord, error) {
	analysis, err := s.Analyze(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.Normalize()

	record := &models.TradeRecord{
		ID:        uuid.NewString(),
		CreatedAt: analysis.CreatedAt,
		ImageURL:  sub.ImageURL,
		Emotional: sub.Emotional,
		Trade:     sub.Trade,
		Market:    sub.Market,
		Analysis:  analysis,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	if err := s.store.SaveRecord(ctx, record); err != nil {
		return nil, err
	}
	logging.LogRecord(s.logger, "save", record.ID, record.Trade.Symbol)

	// Alerts are best effort and outlive a cancelled request.
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.RecordSaved(nctx, record); err != nil {
		s.logger.Warn().Err(err).Str("record_id", record.ID).Msg("Failed to send risk notification")
	}
	return record, nil
}

// List returns stored records newest first.
func (s *Service) List(ctx context.Context, filter store.TradeFilter) ([]models.TradeRecord, error) {
	return s.store.ListRecords(ctx, filter)
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (*models.TradeRecord, error) {
	return s.store.GetRecord(ctx, id)
}

// Delete removes one record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return err
	}
	logging.LogRecord(s.logger, "delete", id, "")
	return nil
}

// Report aggregates the journal over a named period: daily, weekly, monthly or all.
func (s *Service) Report(ctx context.Context, period string) (*models.JournalStats, error) {
	dr, ok := store.PeriodRange(period, s.now())
	if !ok {
		return nil, apperrors.NewValidationError("period", period, "must be daily, weekly, monthly or all")
	}
	stats, err := s.store.Stats(ctx, dr)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "all"
	}
	stats.Period = period
	return stats, nil
}

// BatchResult is the outcome for one submission of a batch, in input order.
type BatchResult struct {
	Index  int                 `json:"index"`
	Record *models.TradeRecord `json:"record,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// SubmitBatch submits every entry on a worker pool. Entries are independent;
// results come back in input order regardless of completion order.
func (s *Service) SubmitBatch(ctx context.Context, subs []models.Submission, workers int) []BatchResult {
	results := make([]BatchResult, len(subs))
	if len(subs) == 0 {
		return results
	}
	if workers <= 0 || workers > len(subs) {
		workers = len(subs)
	}

	pool := performance.NewWorkerPool(workers)
	pool.Start()

	done := make(chan struct{}, len(subs))
	submitted := 0
	for i := range subs {
		i := i
		results[i].Index = i
		ok := pool.SubmitContext(ctx, func() {
			defer func() { done <- struct{}{} }()
			rec, err := s.Submit(ctx, subs[i])
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Record = rec
		})
		if !ok {
			results[i].Error = "batch cancelled before this entry was queued"
			continue
		}
		submitted++
	}
	for j := 0; j < submitted; j++ {
		<-done
	}
	pool.Stop()

	for i := range results {
		if results[i].Record == nil && results[i].Error == "" {
			results[i].Error = "analysis aborted unexpectedly"
		}
	}

	stats := pool.Stats()
	s.logger.Info().
		Str("event", "batch").
		Int("total", len(subs)).
		Int("workers", workers).
		Uint64("done", stats.TasksDone).
		Uint64("panics", stats.Panics).
		Msg("Batch analysis completed")
	return results
}
