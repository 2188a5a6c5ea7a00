package messaging

import "time"

// ReportComputedEvent is published whenever an analytics report finishes
// computing, so downstream services can react without polling.
type ReportComputedEvent struct {
	EventID     string    `json:"event_id"`
	PortfolioID string    `json:"portfolio_id,omitempty"`
	Ticker      string    `json:"ticker,omitempty"`
	ReportType  string    `json:"report_type"` // "risk", "correlation", "signals", "backtest", "advisory"
	ComputedBy  string    `json:"computed_by"` // "portfolio-analytics-api"
	Timestamp   time.Time `json:"timestamp"`
}

// PortfolioChangedEvent arrives from the portfolio service when holdings
// change. Cached reports for that portfolio are stale once it is received.
type PortfolioChangedEvent struct {
	EventID     string    `json:"event_id"`
	PortfolioID string    `json:"portfolio_id"`
	ChangeType  string    `json:"change_type"` // "holding_added", "holding_removed", "holding_updated"
	Timestamp   time.Time `json:"timestamp"`
}
