package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StrategyParameter documents one tunable parameter of a strategy,
// with its default value as a string (parsed per Type at backtest time).
type StrategyParameter struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

// StrategyDefinition describes one predefined trading strategy.
type StrategyDefinition struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	RiskLevel   string              `json:"risk_level"`
	SuitableFor []string            `json:"suitable_for"`
	Parameters  []StrategyParameter `json:"parameters"`
}

// TradeRecord is one closed round trip produced by a backtest.
type TradeRecord struct {
	EntryDate  string          `json:"entry_date"`
	ExitDate   string          `json:"exit_date"`
	Signal     string          `json:"signal"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	ReturnPct  float64         `json:"return_pct"`
}

// BacktestResult aggregates trade-by-trade and overall performance for
// one strategy run over one ticker. BenchmarkReturn and Alpha are nil
// when benchmark history is unavailable.
type BacktestResult struct {
	StrategyID      string        `json:"strategy_id"`
	StrategyName    string        `json:"strategy_name"`
	Ticker          string        `json:"ticker"`
	LookbackDays    int           `json:"lookback_days"`
	Trades          []TradeRecord `json:"trades"`
	TotalTrades     int           `json:"total_trades"`
	WinningTrades   int           `json:"winning_trades"`
	LosingTrades    int           `json:"losing_trades"`
	WinRate         float64       `json:"win_rate"`
	AvgWin          float64       `json:"avg_win"`
	AvgLoss         float64       `json:"avg_loss"`
	ProfitFactor    float64       `json:"profit_factor"`
	TotalReturn     float64       `json:"total_return"`
	CAGR            float64       `json:"cagr"`
	MaxDrawdown     float64       `json:"max_drawdown"`
	SharpeRatio     float64       `json:"sharpe_ratio"`
	SortinoRatio    float64       `json:"sortino_ratio"`
	BenchmarkReturn *float64      `json:"benchmark_return,omitempty"`
	Alpha           *float64      `json:"alpha,omitempty"`
}

// TradeSignal is a per-holding advisory produced by the live signal scan.
// TargetPrice and StopLoss stay zero for HOLD signals.
type TradeSignal struct {
	Ticker         string          `json:"ticker"`
	HoldingName    string          `json:"holding_name"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	StrategySource string          `json:"strategy_source"`
	Signal         string          `json:"signal"`
	Rationale      string          `json:"rationale"`
	Confidence     float64         `json:"confidence"`
	TargetPrice    decimal.Decimal `json:"target_price,omitempty"`
	StopLoss       decimal.Decimal `json:"stop_loss,omitempty"`
}

// TaxLossCandidate flags a holding trading meaningfully below cost.
type TaxLossCandidate struct {
	Ticker            string          `json:"ticker"`
	Name              string          `json:"name"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	UnrealizedLoss    decimal.Decimal `json:"unrealized_loss"`
	UnrealizedLossPct float64         `json:"unrealized_loss_pct"`
	Suggestion        string          `json:"suggestion"`
}

// PortfolioSignals bundles the live signal scan output for a portfolio.
type PortfolioSignals struct {
	PortfolioID       string             `json:"portfolio_id"`
	Signals           []TradeSignal      `json:"signals"`
	TaxLossCandidates []TaxLossCandidate `json:"tax_loss_candidates"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// AdvisorIndicators are the technical indicators behind a ticker advisory.
type AdvisorIndicators struct {
	SMA20                float64 `json:"sma_20"`
	EMA20                float64 `json:"ema_20"`
	RSI14                float64 `json:"rsi_14"`
	MACD                 float64 `json:"macd"`
	Signal9              float64 `json:"signal_9"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
}

// AdvisorRisk holds historical VaR on the supplied position value.
type AdvisorRisk struct {
	VaR95 decimal.Decimal `json:"var_95"`
	VaR99 decimal.Decimal `json:"var_99"`
}

// ChartPoint is one close for the advisory chart.
type ChartPoint struct {
	Date  string          `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// TickerAdvisory is the single-ticker advisor output: indicators, risk
// on the given position value, and a decision-table recommendation.
type TickerAdvisory struct {
	Ticker         string            `json:"ticker"`
	Name           string            `json:"name,omitempty"`
	Industry       string            `json:"industry,omitempty"`
	CurrentPrice   decimal.Decimal   `json:"current_price"`
	ChangePercent  *float64          `json:"change_percent,omitempty"`
	Indicators     AdvisorIndicators `json:"indicators"`
	Risk           AdvisorRisk       `json:"risk"`
	Recommendation string            `json:"recommendation"`
	Rationale      string            `json:"rationale"`
	Chart          []ChartPoint      `json:"chart"`
}
