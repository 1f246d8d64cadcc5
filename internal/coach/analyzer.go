package coach

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "tradecoach/internal/errors"
	"tradecoach/internal/llm"
	"tradecoach/internal/logging"
	"tradecoach/internal/models"
	"tradecoach/internal/resilience"
	"tradecoach/internal/security"
)

// Response formats requested from the model.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures an Analyzer.
type Options struct {
	// ResponseFormat is FormatText or FormatJSON.
	ResponseFormat string
	// UnifyConfidence computes the external path's score from the inputs.
	// When false the external path reports LegacyConfidence.
	UnifyConfidence bool
	// RequestTimeout bounds each attempt. Zero means no per-attempt timeout.
	RequestTimeout time.Duration
	Retry          resilience.RetryPolicy
}

// DefaultOptions returns text replies, unified confidence and the default retry policy.
func DefaultOptions() Options {
	return Options{
		ResponseFormat:  FormatText,
		UnifyConfidence: true,
		RequestTimeout:  60 * time.Second,
		Retry:           resilience.DefaultRetryPolicy(),
	}
}

// Analyzer runs the analysis pipeline. A nil client means no API key is
// configured and every analysis uses the offline rules.
type Analyzer struct {
	client  llm.Client
	breaker *resilience.CircuitBreaker
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// NewAnalyzer creates an Analyzer. breaker may be nil.
func NewAnalyzer(client llm.Client, breaker *resilience.CircuitBreaker, opts Options, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		client:  client,
		breaker: breaker,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// HasModel reports whether an external model is configured.
func (a *Analyzer) HasModel() bool {
	return a.client != nil
}

// Analyze always returns a complete analysis. Failures of the external path
// are reported through AnalysisMethod and DebugInfo, never as an error.
func (a *Analyzer) Analyze(ctx context.Context, sub models.Submission) models.AIAnalysis {
	start := a.now()
	sub.Normalize()
	logger := logging.WithSymbol(a.logger, sub.Trade.Symbol)

	var analysis models.AIAnalysis
	if a.client == nil {
		analysis = a.fallback(sub, models.ReasonMissingAPIKey, apperrors.ErrMissingAPIKey, 0)
	} else {
		raw, attempts, err := a.complete(ctx, sub)
		if err != nil {
			analysis = a.fallback(sub, reasonFor(err), err, attempts)
		} else {
			analysis = a.external(sub, raw, attempts)
		}
	}

	analysis.ID = a.newID()
	analysis.CreatedAt = a.now().UTC()

	reason := string(models.ReasonNone)
	attempts := 0
	if analysis.DebugInfo != nil {
		reason = string(analysis.DebugInfo.Reason)
		attempts = analysis.DebugInfo.Attempts
		if analysis.DebugInfo.Error != "" && analysis.DebugInfo.Reason != models.ReasonMissingAPIKey {
			logger.Warn().Str("reason", reason).Str("error", analysis.DebugInfo.Error).Msg("External analysis unavailable, using offline rules")
		}
	}
	logging.LogAnalysis(logger, analysis.ID, sub.Trade.Symbol, string(analysis.AnalysisMethod), reason, attempts, analysis.ConfidenceScore, a.now().Sub(start))
	return analysis
}

func (a *Analyzer) complete(ctx context.Context, sub models.Submission) (string, int, error) {
	system := SystemPrompt
	if a.opts.ResponseFormat == FormatJSON {
		system = SystemPromptJSON
	}
	user := BuildPrompt(sub.Emotional, sub.Trade, sub.Market)

	call := func(ctx context.Context) (string, error) {
		if a.opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.opts.RequestTimeout)
			defer cancel()
		}
		raw, err := a.client.CompleteVision(ctx, system, user, sub.ImageURL)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(raw) == "" {
			return "", apperrors.ErrEmptyCompletion
		}
		return raw, nil
	}

	return resilience.Retry(ctx, a.opts.Retry, func(ctx context.Context) (string, error) {
		if a.breaker == nil {
			return call(ctx)
		}
		return resilience.ExecuteWithResult(a.breaker, ctx, call)
	})
}

func reasonFor(err error) models.FallbackReason {
	switch {
	case apperrors.Is(err, apperrors.ErrMissingAPIKey):
		return models.ReasonMissingAPIKey
	case apperrors.Is(err, apperrors.ErrCircuitOpen):
		return models.ReasonCircuitOpen
	default:
		return models.ReasonRequestFailed
	}
}

func (a *Analyzer) fallback(sub models.Submission, reason models.FallbackReason, err error, attempts int) models.AIAnalysis {
	analysis := GenerateFallback(sub.Emotional, sub.Trade, sub.Market)
	analysis.DebugInfo = &models.DebugInfo{
		Reason:   reason,
		Error:    security.MaskError(err),
		Attempts: attempts,
	}
	if a.client != nil {
		analysis.DebugInfo.Model = a.client.Model()
	}
	return analysis
}

func (a *Analyzer) external(sub models.Submission, raw string, attempts int) models.AIAnalysis {
	var parsed ParseResult
	if a.opts.ResponseFormat == FormatJSON {
		var err error
		if parsed, err = ParseStructured(raw); err != nil {
			a.logger.Debug().Err(err).Msg("Structured reply invalid, parsing as free text")
			parsed = ParseSections(raw)
		}
	} else {
		parsed = ParseSections(raw)
	}

	level, assessment := AssessRisk(sub.Emotional, sub.Trade)
	confidence := LegacyConfidence
	if a.opts.UnifyConfidence {
		confidence = ConfidenceScore(sub.Emotional, sub.Trade)
	}
	summary := parsed.Summary
	if summary == "" {
		summary = fallbackSummary(sub.Emotional, sub.Trade)
	}

	analysis := models.AIAnalysis{
		Summary:                  summary,
		TechnicalObservations:    parsed.Technical,
		PsychologicalInsights:    parsed.Psychological,
		ImprovementSuggestions:   parsed.Suggestions,
		PatternRecognition:       parsed.Patterns,
		ConfidenceScore:          confidence,
		RiskManagementAssessment: assessment,
		RiskLevel:                level,
		MarketContextInsights:    marketInsights(sub.Trade, sub.Market),
		AnalysisMethod:           models.MethodExternal,
	}
	if parsed.IsDegraded() || attempts > 1 {
		reason := models.ReasonNone
		if parsed.IsDegraded() {
			reason = models.ReasonParseDegraded
		}
		analysis.DebugInfo = &models.DebugInfo{
			Reason:           reason,
			Attempts:         attempts,
			Model:            a.client.Model(),
			DegradedSections: parsed.Degraded,
		}
	}
	return analysis
}
