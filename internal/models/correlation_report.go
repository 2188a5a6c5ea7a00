package models

import "time"

// CorrelatedPair is one unordered ticker pair with its return correlation
// and a qualitative risk label.
type CorrelatedPair struct {
	Ticker1     string  `json:"ticker1"`
	Ticker2     string  `json:"ticker2"`
	Name1       string  `json:"name1"`
	Name2       string  `json:"name2"`
	Correlation float64 `json:"correlation"`
	RiskLevel   string  `json:"risk_level"`
}

// HedgeSuggestion proposes an instrument to offset a holding or the
// whole portfolio. Expected correlations are fixed historical estimates,
// not derived from data.
type HedgeSuggestion struct {
	HoldingTicker       string  `json:"holding_ticker"`
	HoldingName         string  `json:"holding_name"`
	HedgeType           string  `json:"hedge_type"`
	HedgeInstrument     string  `json:"hedge_instrument"`
	Description         string  `json:"description"`
	ExpectedCorrelation float64 `json:"expected_correlation"`
}

// RollingCorrelation tracks how a pair's correlation evolved over
// trailing windows. Correlation30d/90d are nil when the aligned history
// is shorter than the window; Correlation1y falls back to full history.
type RollingCorrelation struct {
	Ticker1        string   `json:"ticker1"`
	Ticker2        string   `json:"ticker2"`
	Correlation30d *float64 `json:"correlation_30d,omitempty"`
	Correlation90d *float64 `json:"correlation_90d,omitempty"`
	Correlation1y  float64  `json:"correlation_1y"`
	Trend          string   `json:"trend"`
}

// CorrelationReport is the full correlation and diversification analysis
// for one portfolio's equity/ETF holdings.
type CorrelationReport struct {
	PortfolioID               string                        `json:"portfolio_id"`
	HoldingCount              int                           `json:"holding_count"`
	LookbackDays              int                           `json:"lookback_days"`
	Tickers                   []string                      `json:"tickers"`
	TickerNames               []string                      `json:"ticker_names"`
	CorrelationMatrix         [][]float64                   `json:"correlation_matrix"`
	HighlyCorrelatedPairs     []CorrelatedPair              `json:"highly_correlated_pairs"`
	NegativelyCorrelatedPairs []CorrelatedPair              `json:"negatively_correlated_pairs"`
	HedgeSuggestions          []HedgeSuggestion             `json:"hedge_suggestions"`
	RollingCorrelations       map[string]RollingCorrelation `json:"rolling_correlations"`
	DiversificationScore      float64                       `json:"diversification_score"`
	DiversificationRating     string                        `json:"diversification_rating"`
	ComputedAt                time.Time                     `json:"computed_at"`
}
