package models

// MarketContext is optional, externally supplied market state at trade time.
// The analysis pipeline only reads it.
type MarketContext struct {
	Volatility     *Volatility        `json:"volatility,omitempty"`
	Trend          *Trend             `json:"trend,omitempty"`
	KeyLevels      []KeyLevel         `json:"keyLevels,omitempty"`
	MovingAverages map[string]float64 `json:"movingAverages,omitempty"`
	Indicators     map[string]float64 `json:"indicators,omitempty"`
}

// Volatility describes the volatility regime.
type Volatility struct {
	Value      float64 `json:"value"`
	IsHigh     bool    `json:"isHigh"`
	Percentile float64 `json:"percentile"`
}

// Trend describes the prevailing trend.
type Trend struct {
	Direction string  `json:"direction"`
	Strength  float64 `json:"strength"`
	Duration  int     `json:"duration"`
}

// KeyLevel is a support or resistance level, ordered by relevance.
type KeyLevel struct {
	Type     string  `json:"type"`
	Price    float64 `json:"price"`
	Strength float64 `json:"strength"`
	Distance float64 `json:"distance"`
}

// IsEmpty reports whether the context carries nothing worth rendering.
func (m *MarketContext) IsEmpty() bool {
	if m == nil {
		return true
	}
	return m.Volatility == nil && m.Trend == nil && len(m.KeyLevels) == 0 &&
		len(m.MovingAverages) == 0 && len(m.Indicators) == 0
}
