package models

import "github.com/shopspring/decimal"

// Quote is a live price snapshot from the market data provider.
// ChangePercent is nil when the provider omits it.
type Quote struct {
	Price         decimal.Decimal `json:"price"`
	ChangePercent *float64        `json:"change_percent,omitempty"`
}

// CompanyProfile carries the descriptive fields used by the advisor.
type CompanyProfile struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
}
