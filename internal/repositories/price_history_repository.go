package repositories

import (
	"context"
	"time"

	"portfolio-analytics-api/internal/models"
)

// PriceHistoryRepository defines access to the locally stored daily
// bars that every engine computes from. Bars are kept per ticker, one
// document per trading day.
type PriceHistoryRepository interface {
	// GetPriceHistory retrieves daily bars for a ticker within [from, to],
	// sorted by date ascending.
	GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)

	// UpsertBars inserts or replaces daily bars for a ticker and returns
	// the number of bars written.
	UpsertBars(ctx context.Context, ticker string, bars models.PriceSeries) (int, error)

	// CountBars returns the number of stored bars for a ticker.
	CountBars(ctx context.Context, ticker string) (int64, error)

	// ListTickers returns every ticker with at least one stored bar.
	ListTickers(ctx context.Context) ([]string, error)

	// EnsureIndexes prepares the backing store. Called once at startup.
	EnsureIndexes(ctx context.Context) error
}
