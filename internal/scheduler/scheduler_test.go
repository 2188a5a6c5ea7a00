package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/models"
)

type mockQuoteSource struct {
	mock.Mock
}

func (m *mockQuoteSource) GetQuote(ctx context.Context, ticker string) (models.Quote, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(models.Quote), args.Error(1)
}

type mockPriceStore struct {
	mock.Mock
}

func (m *mockPriceStore) ListTickers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockPriceStore) UpsertBars(ctx context.Context, ticker string, bars models.PriceSeries) (int, error) {
	args := m.Called(ctx, ticker, bars)
	return args.Int(0), args.Error(1)
}

func (m *mockPriceStore) CountBars(ctx context.Context, ticker string) (int64, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(int64), args.Error(1)
}

func newTestScheduler(quotes QuoteSource, store PriceStore) *Scheduler {
	cfg := config.SchedulerConfig{
		CacheWarmInterval: "*/15 * * * *",
		PriceSyncInterval: "0 1 * * *",
		TimeZone:          "UTC",
	}
	s, _ := NewScheduler(cfg, quotes, store)
	return s
}

func TestSyncPrices_StoresOneBarPerTicker(t *testing.T) {
	quotes := new(mockQuoteSource)
	store := new(mockPriceStore)
	s := newTestScheduler(quotes, store)
	ctx := context.Background()

	store.On("ListTickers", ctx).Return([]string{"AAA", "BBB"}, nil)
	quotes.On("GetQuote", ctx, "AAA").Return(models.Quote{Price: decimal.NewFromInt(100)}, nil)
	quotes.On("GetQuote", ctx, "BBB").Return(models.Quote{Price: decimal.NewFromInt(50)}, nil)
	store.On("UpsertBars", ctx, "AAA", mock.MatchedBy(func(bars models.PriceSeries) bool {
		return len(bars) == 1 && bars[0].Close == 100
	})).Return(1, nil)
	store.On("UpsertBars", ctx, "BBB", mock.MatchedBy(func(bars models.PriceSeries) bool {
		return len(bars) == 1 && bars[0].Close == 50
	})).Return(1, nil)

	s.SyncPrices(ctx)

	store.AssertExpectations(t)
	quotes.AssertExpectations(t)
}

func TestSyncPrices_SkipsFailedQuotes(t *testing.T) {
	quotes := new(mockQuoteSource)
	store := new(mockPriceStore)
	s := newTestScheduler(quotes, store)
	ctx := context.Background()

	store.On("ListTickers", ctx).Return([]string{"AAA", "BBB"}, nil)
	quotes.On("GetQuote", ctx, "AAA").Return(models.Quote{}, errors.New("upstream down"))
	quotes.On("GetQuote", ctx, "BBB").Return(models.Quote{Price: decimal.NewFromInt(50)}, nil)
	store.On("UpsertBars", ctx, "BBB", mock.Anything).Return(1, nil)

	s.SyncPrices(ctx)

	store.AssertNotCalled(t, "UpsertBars", ctx, "AAA", mock.Anything)
	store.AssertExpectations(t)
}

func TestSyncPrices_SkipsNonPositivePrices(t *testing.T) {
	quotes := new(mockQuoteSource)
	store := new(mockPriceStore)
	s := newTestScheduler(quotes, store)
	ctx := context.Background()

	store.On("ListTickers", ctx).Return([]string{"AAA"}, nil)
	quotes.On("GetQuote", ctx, "AAA").Return(models.Quote{Price: decimal.Zero}, nil)

	s.SyncPrices(ctx)

	store.AssertNotCalled(t, "UpsertBars", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportCoverage_CountsEveryTicker(t *testing.T) {
	quotes := new(mockQuoteSource)
	store := new(mockPriceStore)
	s := newTestScheduler(quotes, store)
	ctx := context.Background()

	store.On("ListTickers", ctx).Return([]string{"AAA", "BBB"}, nil)
	store.On("CountBars", ctx, "AAA").Return(int64(300), nil)
	store.On("CountBars", ctx, "BBB").Return(int64(10), nil)

	s.ReportCoverage(ctx)

	store.AssertExpectations(t)
}
