package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/repositories"
)

// MongoPriceHistoryRepository implements PriceHistoryRepository using
// MongoDB. Bars are stored one document per ticker and trading day,
// keyed by the compound (ticker, date) unique index.
type MongoPriceHistoryRepository struct {
	collection *mongo.Collection
}

// NewPriceHistoryRepository creates a MongoDB price history repository.
func NewPriceHistoryRepository(db *mongo.Database) repositories.PriceHistoryRepository {
	return &MongoPriceHistoryRepository{
		collection: db.Collection("price_history"),
	}
}

type priceBar struct {
	Ticker string    `bson:"ticker"`
	Date   time.Time `bson:"date"`
	Open   float64   `bson:"open"`
	High   float64   `bson:"high"`
	Low    float64   `bson:"low"`
	Close  float64   `bson:"close"`
	Volume float64   `bson:"volume"`
}

// GetPriceHistory retrieves daily bars for a ticker in date order. An
// unknown ticker yields an empty series, not an error.
func (r *MongoPriceHistoryRepository) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	filter := bson.M{
		"ticker": ticker,
		"date":   bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history for %s: %w", ticker, err)
	}
	defer cursor.Close(ctx)

	var bars []priceBar
	if err := cursor.All(ctx, &bars); err != nil {
		return nil, fmt.Errorf("failed to decode price history for %s: %w", ticker, err)
	}

	series := make(models.PriceSeries, len(bars))
	for i, b := range bars {
		series[i] = models.PricePoint{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return series, nil
}

// UpsertBars writes bars idempotently so a repeated sync never
// duplicates a trading day.
func (r *MongoPriceHistoryRepository) UpsertBars(ctx context.Context, ticker string, bars models.PriceSeries) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, len(bars))
	for i, bar := range bars {
		doc := priceBar{
			Ticker: ticker,
			Date:   bar.Date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"ticker": ticker, "date": bar.Date}).
			SetReplacement(doc).
			SetUpsert(true)
	}

	result, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert bars for %s: %w", ticker, err)
	}
	return int(result.UpsertedCount + result.ModifiedCount + result.MatchedCount), nil
}

// CountBars returns the number of stored bars for a ticker.
func (r *MongoPriceHistoryRepository) CountBars(ctx context.Context, ticker string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"ticker": ticker})
	if err != nil {
		return 0, fmt.Errorf("failed to count bars for %s: %w", ticker, err)
	}
	return count, nil
}

// ListTickers returns every ticker with at least one stored bar.
func (r *MongoPriceHistoryRepository) ListTickers(ctx context.Context) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, "ticker", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}

	tickers := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			tickers = append(tickers, s)
		}
	}
	return tickers, nil
}

// EnsureIndexes creates the compound unique index the repository relies
// on. Called once at startup.
func (r *MongoPriceHistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ticker", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create price history index: %w", err)
	}
	return nil
}
