package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass classifies an instrument for analytics eligibility.
type AssetClass string

const (
	AssetClassStock AssetClass = "STOCK"
	AssetClassETF   AssetClass = "ETF"
	AssetClassBond  AssetClass = "BOND"
	AssetClassCash  AssetClass = "CASH"
	AssetClassOther AssetClass = "OTHER"
)

// Correlatable reports whether the asset class participates in
// correlation and signal analysis.
func (a AssetClass) Correlatable() bool {
	return a == AssetClassStock || a == AssetClassETF
}

// HoldingSnapshot is a read-only view of a position at analysis time,
// supplied by the portfolio service. The analytics core never mutates it.
type HoldingSnapshot struct {
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	Currency      string          `json:"currency"`
	Sector        string          `json:"sector"`
	AssetClass    AssetClass      `json:"asset_class"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
}

// MarketValue returns quantity × current price in the holding's currency.
func (h HoldingSnapshot) MarketValue() decimal.Decimal {
	return h.CurrentPrice.Mul(h.Quantity)
}

// PricePoint is one daily OHLCV bar.
type PricePoint struct {
	Date   time.Time `json:"date" bson:"date"`
	Open   float64   `json:"open" bson:"open"`
	High   float64   `json:"high" bson:"high"`
	Low    float64   `json:"low" bson:"low"`
	Close  float64   `json:"close" bson:"close"`
	Volume float64   `json:"volume" bson:"volume"`
}

// PriceSeries is a date-ascending series of daily bars for one ticker.
// Non-trading days are absent, not zero-filled.
type PriceSeries []PricePoint

// Closes extracts the closing prices in date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s PriceSeries) LastClose() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Close
}
