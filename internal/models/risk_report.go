package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VaRMetrics holds value-at-risk estimates from the three methods,
// expressed as positive monetary losses in the portfolio base currency.
type VaRMetrics struct {
	HistoricalSimulation decimal.Decimal `json:"historical_simulation"`
	Parametric           decimal.Decimal `json:"parametric"`
	MonteCarlo           decimal.Decimal `json:"monte_carlo"`
}

// HoldingBeta is one holding's benchmark sensitivity and portfolio weight.
type HoldingBeta struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Beta   float64 `json:"beta"`
	Weight float64 `json:"weight"`
}

// StressScenario is a hypothetical market shock applied to the portfolio.
type StressScenario struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	MarketShockPct   float64         `json:"market_shock_percent"`
	EstimatedLoss    decimal.Decimal `json:"estimated_loss"`
	EstimatedLossPct float64         `json:"estimated_loss_percent"`
}

// MonteCarloDistribution summarizes simulated horizon returns.
type MonteCarloDistribution struct {
	Simulations int     `json:"simulations"`
	MeanReturn  float64 `json:"mean_return"`
	Percentile5 float64 `json:"percentile_5"`
	Percentile25 float64 `json:"percentile_25"`
	Median      float64 `json:"median"`
	Percentile75 float64 `json:"percentile_75"`
	Percentile95 float64 `json:"percentile_95"`
}

// RiskReport is the complete risk analytics result for one portfolio.
// It is immutable once computed; every request recomputes it from source
// data. Benchmark-dependent metrics are nil when benchmark history is
// unavailable, and ratios are nil when their denominator is degenerate.
type RiskReport struct {
	PortfolioID          string          `json:"portfolio_id"`
	PortfolioValue       decimal.Decimal `json:"portfolio_value"`
	BaseCurrency         string          `json:"base_currency"`
	ConfidenceLevel      float64         `json:"confidence_level"`
	TimeHorizonDays      int             `json:"time_horizon_days"`
	LookbackDays         int             `json:"lookback_days"`
	DailyVolatility      float64         `json:"daily_volatility"`
	AnnualizedVolatility float64         `json:"annualized_volatility"`
	VaR                  VaRMetrics      `json:"var"`
	CVaR95               decimal.Decimal `json:"cvar_95"`
	CVaR99               decimal.Decimal `json:"cvar_99"`
	PortfolioBeta        *float64        `json:"portfolio_beta,omitempty"`
	HoldingBetas         []HoldingBeta   `json:"holding_betas,omitempty"`
	PortfolioAlpha       *float64        `json:"portfolio_alpha,omitempty"`
	SharpeRatio          *float64        `json:"sharpe_ratio,omitempty"`
	SortinoRatio         *float64        `json:"sortino_ratio,omitempty"`
	TreynorRatio         *float64        `json:"treynor_ratio,omitempty"`
	MaxDrawdown          float64         `json:"max_drawdown"`
	MaxDrawdownPeakDate  string          `json:"max_drawdown_peak_date"`
	MaxDrawdownTroughDate string         `json:"max_drawdown_trough_date"`
	StressTests          []StressScenario `json:"stress_tests"`
	MonteCarlo           MonteCarloDistribution `json:"monte_carlo"`
	ExcludedTickers      []string        `json:"excluded_tickers,omitempty"`
	ComputedAt           time.Time       `json:"computed_at"`
}
