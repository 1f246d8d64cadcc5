// Package notify sends alerts when a saved analysis crosses a risk threshold.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tradecoach/internal/models"
)

// Notifier is told about every saved record and decides whether to alert.
type Notifier interface {
	RecordSaved(ctx context.Context, rec *models.TradeRecord) error
}

// NotificationChannel delivers a notification.
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRisk NotificationType = "risk"
)

// riskRank orders risk levels for threshold checks.
var riskRank = map[models.RiskLevel]int{
	models.RiskAcceptable: 1,
	models.RiskModerate:   2,
	models.RiskElevated:   3,
}

// MultiNotifier fans a notification out to every enabled channel.
type MultiNotifier struct {
	channels []NotificationChannel
	minRisk  models.RiskLevel
}

// NewMultiNotifier creates a notifier that alerts on records at or above minRisk.
// An empty minRisk means elevated.
func NewMultiNotifier(minRisk models.RiskLevel, channels ...NotificationChannel) *MultiNotifier {
	if _, ok := riskRank[minRisk]; !ok {
		minRisk = models.RiskElevated
	}
	return &MultiNotifier{channels: channels, minRisk: minRisk}
}

// ShouldNotify reports whether a risk level meets the threshold.
func (mn *MultiNotifier) ShouldNotify(level models.RiskLevel) bool {
	return riskRank[level] >= riskRank[mn.minRisk]
}

// RecordSaved alerts when the record's risk level meets the threshold.
func (mn *MultiNotifier) RecordSaved(ctx context.Context, rec *models.TradeRecord) error {
	if rec == nil || !mn.ShouldNotify(rec.Analysis.RiskLevel) {
		return nil
	}
	return mn.Send(ctx, RiskNotification(rec))
}

// Send sends a notification to all enabled channels.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	var errs []string
	for _, ch := range mn.channels {
		if ch.IsEnabled() {
			if err := ch.Send(ctx, n); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RiskNotification builds the alert for a saved record.
func RiskNotification(rec *models.TradeRecord) Notification {
	symbol := rec.Trade.Symbol
	if symbol == "" {
		symbol = "Untitled trade"
	}
	a := rec.Analysis
	msg := a.RiskManagementAssessment
	if len(a.ImprovementSuggestions) > 0 {
		msg += "\nNext step: " + a.ImprovementSuggestions[0]
	}
	return Notification{
		Type:    NotificationRisk,
		Title:   fmt.Sprintf("%s: %s risk", symbol, a.RiskLevel),
		Message: msg,
		Data: map[string]interface{}{
			"record_id":       rec.ID,
			"symbol":          rec.Trade.Symbol,
			"primary_emotion": rec.Emotional.PrimaryEmotion,
			"risk_level":      a.RiskLevel,
			"confidence":      a.ConfidenceScore,
			"method":          a.AnalysisMethod,
		},
		Timestamp: rec.CreatedAt,
	}
}

// WebhookNotifier sends notifications via HTTP webhook.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier. An empty url disables it.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		enabled: url != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the name of the notifier.
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// IsEnabled returns whether the notifier is enabled.
func (w *WebhookNotifier) IsEnabled() bool {
	return w.enabled
}

// Send posts the notification as JSON.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if !w.enabled {
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tradecoach/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// NoOpNotifier discards everything.
type NoOpNotifier struct{}

// RecordSaved does nothing.
func (NoOpNotifier) RecordSaved(ctx context.Context, rec *models.TradeRecord) error {
	return nil
}
