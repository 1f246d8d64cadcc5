package models

import "time"

// AIAnalysis is the coaching output for one submission. A new request always
// produces a new record; existing records are never edited.
type AIAnalysis struct {
	ID                       string         `json:"id"`
	Summary                  string         `json:"summary"`
	TechnicalObservations    []string       `json:"technicalObservations"`
	PsychologicalInsights    []string       `json:"psychologicalInsights"`
	ImprovementSuggestions   []string       `json:"improvementSuggestions"`
	PatternRecognition       []string       `json:"patternRecognition"`
	ConfidenceScore          float64        `json:"confidenceScore"`
	RiskManagementAssessment string         `json:"riskManagementAssessment"`
	RiskLevel                RiskLevel      `json:"riskLevel"`
	MarketContextInsights    []string       `json:"marketContextInsights,omitempty"`
	AnalysisMethod           AnalysisMethod `json:"analysisMethod"`
	DebugInfo                *DebugInfo     `json:"debugInfo,omitempty"`
	CreatedAt                time.Time      `json:"createdAt"`
}

// IsDemo reports whether the analysis came from the offline rules rather than the model.
func (a AIAnalysis) IsDemo() bool {
	return a.AnalysisMethod == MethodFallback
}

// DebugInfo describes a degraded or fallback analysis.
type DebugInfo struct {
	Reason           FallbackReason `json:"reason"`
	Error            string         `json:"error,omitempty"`
	Attempts         int            `json:"attempts,omitempty"`
	Model            string         `json:"model,omitempty"`
	DegradedSections []string       `json:"degradedSections,omitempty"`
}
