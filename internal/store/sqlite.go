package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "tradecoach/internal/errors"
	"tradecoach/internal/models"
)

const topEmotionLimit = 5

// SQLiteStore implements JournalStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the journal database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per analyzed submission
	CREATE TABLE IF NOT EXISTS trade_records (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		symbol TEXT NOT NULL DEFAULT '',
		direction TEXT NOT NULL DEFAULT 'unknown',
		result TEXT NOT NULL DEFAULT 'unknown',
		primary_emotion TEXT NOT NULL DEFAULT '',
		analysis_method TEXT NOT NULL,
		confidence_score REAL NOT NULL,
		risk_level TEXT NOT NULL,
		image_url TEXT,
		emotional_json TEXT NOT NULL,
		trade_json TEXT NOT NULL,
		market_json TEXT,
		analysis_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trade_records_created ON trade_records(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_trade_records_symbol ON trade_records(symbol, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_trade_records_emotion ON trade_records(primary_emotion);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveRecord inserts a new record. Saving an existing id fails.
func (s *SQLiteStore) SaveRecord(ctx context.Context, r *models.TradeRecord) error {
	emotional, err := json.Marshal(r.Emotional)
	if err != nil {
		return apperrors.NewStoreError("save", r.ID, err)
	}
	trade, err := json.Marshal(r.Trade)
	if err != nil {
		return apperrors.NewStoreError("save", r.ID, err)
	}
	analysis, err := json.Marshal(r.Analysis)
	if err != nil {
		return apperrors.NewStoreError("save", r.ID, err)
	}
	var market sql.NullString
	if r.Market != nil {
		b, err := json.Marshal(r.Market)
		if err != nil {
			return apperrors.NewStoreError("save", r.ID, err)
		}
		market = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trade_records (
			id, created_at, symbol, direction, result, primary_emotion,
			analysis_method, confidence_score, risk_level, image_url,
			emotional_json, trade_json, market_json, analysis_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.CreatedAt.UTC(), r.Trade.Symbol, string(r.Trade.Direction), string(r.Trade.Result), r.Emotional.PrimaryEmotion,
		string(r.Analysis.AnalysisMethod), r.Analysis.ConfidenceScore, string(r.Analysis.RiskLevel), r.ImageURL,
		string(emotional), string(trade), market, string(analysis),
	)
	if err != nil {
		return apperrors.NewStoreError("save", r.ID, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
	}
	return nil
}

const recordColumns = "id, created_at, image_url, emotional_json, trade_json, market_json, analysis_json"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.TradeRecord, error) {
	var (
		r                                  models.TradeRecord
		imageURL, market                   sql.NullString
		emotionalJSON, tradeJSON, analysis string
	)
	if err := row.Scan(&r.ID, &r.CreatedAt, &imageURL, &emotionalJSON, &tradeJSON, &market, &analysis); err != nil {
		return nil, err
	}
	r.ImageURL = imageURL.String
	if err := json.Unmarshal([]byte(emotionalJSON), &r.Emotional); err != nil {
		return nil, fmt.Errorf("decode emotional state: %w", err)
	}
	if err := json.Unmarshal([]byte(tradeJSON), &r.Trade); err != nil {
		return nil, fmt.Errorf("decode trade details: %w", err)
	}
	if err := json.Unmarshal([]byte(analysis), &r.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if market.Valid && market.String != "" {
		r.Market = &models.MarketContext{}
		if err := json.Unmarshal([]byte(market.String), r.Market); err != nil {
			return nil, fmt.Errorf("decode market context: %w", err)
		}
	}
	return &r, nil
}

// GetRecord retrieves a record by id.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*models.TradeRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM trade_records WHERE id = ?", id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewStoreError("get", id, apperrors.ErrRecordNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get", id, err)
	}
	return r, nil
}

// ListRecords retrieves records from the database, newest first.
func (s *SQLiteStore) ListRecords(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error) {
	query := "SELECT " + recordColumns + " FROM trade_records WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, strings.ToUpper(filter.Symbol))
	}
	if filter.Method != "" {
		query += " AND analysis_method = ?"
		args = append(args, string(filter.Method))
	}
	if filter.Result != "" {
		query += " AND result = ?"
		args = append(args, string(filter.Result))
	}
	if filter.Emotion != "" {
		query += " AND primary_emotion = ?"
		args = append(args, strings.ToLower(filter.Emotion))
	}
	query, args = appendRange(query, args, DateRange{Start: filter.StartDate, End: filter.EndDate})

	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, filter.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("list", "", fmt.Errorf("failed to query records: %w", err))
	}
	defer rows.Close()

	records := []models.TradeRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.NewStoreError("list", "", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// DeleteRecord removes a record by id.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trade_records WHERE id = ?", id)
	if err != nil {
		return apperrors.NewStoreError("delete", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewStoreError("delete", id, apperrors.ErrRecordNotFound)
	}
	return nil
}

func appendRange(query string, args []interface{}, r DateRange) (string, []interface{}) {
	if !r.Start.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, r.Start.UTC())
	}
	if !r.End.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, r.End.UTC())
	}
	return query, args
}

// Stats aggregates outcomes, confidence, analysis paths and emotions over a range.
func (s *SQLiteStore) Stats(ctx context.Context, dateRange DateRange) (*models.JournalStats, error) {
	stats := &models.JournalStats{
		Start:      dateRange.Start,
		End:        dateRange.End,
		RiskLevels: make(map[models.RiskLevel]int),
	}

	query, args := appendRange(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN result = 'win' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'loss' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'breakeven' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(confidence_score), 0),
			COALESCE(SUM(CASE WHEN analysis_method = 'external' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN analysis_method = 'fallback' THEN 1 ELSE 0 END), 0)
		FROM trade_records WHERE 1=1`, nil, dateRange)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalTrades, &stats.Wins, &stats.Losses, &stats.Breakeven,
		&stats.AvgConfidence, &stats.ExternalCount, &stats.FallbackCount,
	)
	if err != nil {
		return nil, apperrors.NewStoreError("stats", "", fmt.Errorf("failed to get totals: %w", err))
	}
	stats.WinRate = models.WinRate(stats.Wins, stats.Losses)

	query, args = appendRange("SELECT risk_level, COUNT(*) FROM trade_records WHERE 1=1", nil, dateRange)
	rows, err := s.db.QueryContext(ctx, query+" GROUP BY risk_level", args...)
	if err != nil {
		return nil, apperrors.NewStoreError("stats", "", fmt.Errorf("failed to get risk levels: %w", err))
	}
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			rows.Close()
			return nil, apperrors.NewStoreError("stats", "", err)
		}
		stats.RiskLevels[models.RiskLevel(level)] = count
	}
	rows.Close()

	query, args = appendRange(`
		SELECT
			primary_emotion,
			COUNT(*) AS n,
			COALESCE(SUM(CASE WHEN result = 'win' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'loss' THEN 1 ELSE 0 END), 0)
		FROM trade_records WHERE primary_emotion != ''`, nil, dateRange)
	query += " GROUP BY primary_emotion ORDER BY n DESC, primary_emotion ASC LIMIT ?"
	args = append(args, topEmotionLimit)

	rows, err = s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("stats", "", fmt.Errorf("failed to get emotions: %w", err))
	}
	defer rows.Close()

	stats.TopEmotions = []models.EmotionStat{}
	for rows.Next() {
		var e models.EmotionStat
		if err := rows.Scan(&e.Emotion, &e.Count, &e.Wins, &e.Losses); err != nil {
			return nil, apperrors.NewStoreError("stats", "", err)
		}
		e.WinRate = models.WinRate(e.Wins, e.Losses)
		stats.TopEmotions = append(stats.TopEmotions, e)
	}
	return stats, rows.Err()
}
