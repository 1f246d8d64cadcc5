// Package models provides domain models for the trade coaching application.
package models

import "strings"

// Direction represents the side a trade was taken on.
type Direction string

const (
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
	DirectionUnknown Direction = "unknown"
)

// ParseDirection normalizes user input, mapping anything unrecognized to unknown.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return DirectionLong
	case "short", "sell":
		return DirectionShort
	default:
		return DirectionUnknown
	}
}

// IsValid reports whether d is one of the known directions. Empty counts as unknown.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionLong, DirectionShort, DirectionUnknown, "":
		return true
	}
	return false
}

// TradeResult represents the outcome of a trade.
type TradeResult string

const (
	ResultWin       TradeResult = "win"
	ResultLoss      TradeResult = "loss"
	ResultBreakeven TradeResult = "breakeven"
	ResultUnknown   TradeResult = "unknown"
)

// ParseTradeResult normalizes user input, mapping anything unrecognized to unknown.
func ParseTradeResult(s string) TradeResult {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "profit":
		return ResultWin
	case "loss":
		return ResultLoss
	case "breakeven", "be":
		return ResultBreakeven
	default:
		return ResultUnknown
	}
}

// IsValid reports whether r is one of the known results. Empty counts as unknown.
func (r TradeResult) IsValid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultBreakeven, ResultUnknown, "":
		return true
	}
	return false
}

// AnalysisMethod records which path produced an analysis.
type AnalysisMethod string

const (
	MethodExternal AnalysisMethod = "external"
	MethodFallback AnalysisMethod = "fallback"
)

// RiskLevel is the bucketed outcome of the risk-factor count.
type RiskLevel string

const (
	RiskElevated   RiskLevel = "elevated"
	RiskModerate   RiskLevel = "moderate"
	RiskAcceptable RiskLevel = "acceptable"
)

// FallbackReason explains why an analysis carries debug information.
type FallbackReason string

const (
	ReasonNone          FallbackReason = "none"
	ReasonMissingAPIKey FallbackReason = "missing_api_key"
	ReasonRequestFailed FallbackReason = "request_failed"
	ReasonCircuitOpen   FallbackReason = "circuit_open"
	ReasonParseDegraded FallbackReason = "parse_degraded"
)
