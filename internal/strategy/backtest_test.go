package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/models"
)

type mockHistoryProvider struct {
	mock.Mock
}

func (m *mockHistoryProvider) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	args := m.Called(ctx, ticker, from, to)
	if ps := args.Get(0); ps != nil {
		return ps.(models.PriceSeries), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMarketProvider struct {
	mock.Mock
}

func (m *mockMarketProvider) GetQuote(ctx context.Context, ticker string) (models.Quote, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(models.Quote), args.Error(1)
}

func (m *mockMarketProvider) GetCompanyProfile(ctx context.Context, ticker string) (models.CompanyProfile, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(models.CompanyProfile), args.Error(1)
}

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesFromCloses(closes []float64) models.PriceSeries {
	ps := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		ps[i] = models.PricePoint{Date: testStart.AddDate(0, 0, i), Close: c}
	}
	return ps
}

func datesFor(n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = testStart.AddDate(0, 0, i)
	}
	return dates
}

func newTestEngine(history *mockHistoryProvider, market *mockMarketProvider) *Engine {
	return NewEngine(Config{}, history, market)
}

func TestCatalog(t *testing.T) {
	strategies := Catalog()

	require.Len(t, strategies, 6)
	seen := make(map[string]bool)
	for _, s := range strategies {
		assert.False(t, seen[s.ID], "duplicate strategy id %s", s.ID)
		seen[s.ID] = true
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.RiskLevel)
	}
	assert.True(t, seen["sma_crossover"])
	assert.True(t, seen["dca"])

	assert.Equal(t, "SMA Crossover", strategyName("sma_crossover"))
	assert.Equal(t, "unknown_id", strategyName("unknown_id"))
}

func TestBacktest_InsufficientHistory(t *testing.T) {
	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, "AAA", mock.Anything, mock.Anything).
		Return(seriesFromCloses([]float64{100, 101, 102}), nil)

	e := newTestEngine(history, new(mockMarketProvider))
	_, err := e.Backtest(context.Background(), "sma_crossover", "AAA", 365, nil)

	assert.True(t, apperrors.IsInput(err))
}

func TestBacktestSMACrossover_VShapeSingleTrade(t *testing.T) {
	prices := []float64{30, 28, 26, 24, 22, 20, 22, 24, 26, 28, 30, 32}
	trades := backtestSMACrossover(prices, datesFor(len(prices)), 2, 4)

	// one golden cross on the upturn, position closed at the end
	require.Len(t, trades, 1)
	assert.True(t, trades[0].EntryPrice.Equal(decimal.NewFromInt(24)))
	assert.True(t, trades[0].ExitPrice.Equal(decimal.NewFromInt(32)))
	assert.InDelta(t, 33.3333, trades[0].ReturnPct, 1e-4)
}

func TestBacktestSMACrossover_MonotonicRiseProducesNoTrades(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	trades := backtestSMACrossover(prices, datesFor(len(prices)), 20, 50)

	// the short SMA never crosses from below, so no entry fires
	assert.Empty(t, trades)
}

func TestBacktestMeanReversion_BuysDipSellsSpike(t *testing.T) {
	prices := make([]float64, 0, 30)
	for i := 0; i < 12; i++ {
		prices = append(prices, 100)
	}
	prices = append(prices, 80) // below the lower band
	for i := 0; i < 8; i++ {
		prices = append(prices, 100)
	}
	prices = append(prices, 130) // above the upper band

	trades := backtestMeanReversion(prices, datesFor(len(prices)), 10, 2.0)

	// the flat stretch collapses the bands to the mean and churns one
	// zero-return trade before the real dip-to-spike round trip
	require.Len(t, trades, 2)
	assert.Zero(t, trades[0].ReturnPct)
	assert.True(t, trades[1].EntryPrice.Equal(decimal.NewFromInt(80)))
	assert.True(t, trades[1].ExitPrice.Equal(decimal.NewFromInt(130)))
	assert.Greater(t, trades[1].ReturnPct, 0.0)
}

func TestBacktestMomentum_OversoldEntryOverboughtExit(t *testing.T) {
	prices := make([]float64, 0, 40)
	start := 100.0
	// steady decline drives RSI toward 0
	for i := 0; i < 20; i++ {
		prices = append(prices, start-float64(i))
	}
	// then a steady rally drives it toward 100
	for i := 1; i <= 20; i++ {
		prices = append(prices, start-19+float64(i)*2)
	}

	trades := backtestMomentum(prices, datesFor(len(prices)), 14, 30, 70)

	require.Len(t, trades, 1)
	assert.Greater(t, trades[0].ReturnPct, 0.0)
}

func TestBacktestDCA_FlatPrices(t *testing.T) {
	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}
	trades := backtestDCA(prices, datesFor(len(prices)), 3)

	// buys at bars 0, 3, 6, 9
	require.Len(t, trades, 4)
	for _, tr := range trades {
		assert.Equal(t, "BUY", tr.Signal)
		assert.True(t, tr.EntryPrice.Equal(decimal.NewFromInt(100)))
	}
	// flat prices mean the accumulated position returns exactly zero
	assert.Zero(t, trades[3].ReturnPct)
}

func TestBuildResult_TradeStatistics(t *testing.T) {
	e := newTestEngine(new(mockHistoryProvider), new(mockMarketProvider))

	trades := []models.TradeRecord{
		{ReturnPct: 10},
		{ReturnPct: 6},
		{ReturnPct: -4},
	}
	prices := []float64{100, 105, 102, 110}
	bench := []float64{100, 104}

	result := e.buildResult("sma_crossover", "AAA", 252, prices, bench, trades)

	assert.Equal(t, 3, result.TotalTrades)
	assert.Equal(t, 2, result.WinningTrades)
	assert.Equal(t, 1, result.LosingTrades)
	assert.InDelta(t, 66.6667, result.WinRate, 1e-4)
	assert.InDelta(t, 8.0, result.AvgWin, 1e-9)
	assert.InDelta(t, 4.0, result.AvgLoss, 1e-9)
	assert.InDelta(t, 4.0, result.ProfitFactor, 1e-9)

	assert.InDelta(t, 10.0, result.TotalReturn, 1e-9)
	// lookback of one trading year makes CAGR equal total return
	assert.InDelta(t, 10.0, result.CAGR, 1e-4)

	require.NotNil(t, result.BenchmarkReturn)
	assert.InDelta(t, 4.0, *result.BenchmarkReturn, 1e-9)
	require.NotNil(t, result.Alpha)
	assert.InDelta(t, 6.0, *result.Alpha, 1e-9)
}

func TestBuildResult_ProfitFactorSentinel(t *testing.T) {
	e := newTestEngine(new(mockHistoryProvider), new(mockMarketProvider))

	winsOnly := e.buildResult("dca", "AAA", 252, []float64{100, 110}, nil,
		[]models.TradeRecord{{ReturnPct: 5}})
	assert.Equal(t, 999.0, winsOnly.ProfitFactor)
	assert.Nil(t, winsOnly.BenchmarkReturn)
	assert.Nil(t, winsOnly.Alpha)

	noTrades := e.buildResult("dca", "AAA", 252, []float64{100, 110}, nil, nil)
	assert.Zero(t, noTrades.ProfitFactor)
	assert.Zero(t, noTrades.WinRate)
}

func TestPriceDrawdownPct(t *testing.T) {
	assert.InDelta(t, 25.0, priceDrawdownPct([]float64{100, 120, 90, 95}), 1e-9)
	assert.Zero(t, priceDrawdownPct([]float64{100, 110, 120}))
	assert.Zero(t, priceDrawdownPct(nil))
}

func TestRsiSeries(t *testing.T) {
	t.Run("pure gains pin RSI at 100", func(t *testing.T) {
		rsi := rsiSeries([]float64{1, 2, 3, 4, 5, 6}, 3)
		require.Len(t, rsi, 3)
		for _, v := range rsi {
			assert.Equal(t, 100.0, v)
		}
	})

	t.Run("pure losses pin RSI at 0", func(t *testing.T) {
		rsi := rsiSeries([]float64{6, 5, 4, 3, 2, 1}, 3)
		require.Len(t, rsi, 3)
		for _, v := range rsi {
			assert.InDelta(t, 0.0, v, 1e-12)
		}
	})

	t.Run("too short", func(t *testing.T) {
		assert.Nil(t, rsiSeries([]float64{1, 2}, 14))
	})
}

func TestParamParsing(t *testing.T) {
	params := map[string]string{"shortPeriod": "10", "stdDev": "1.5", "bad": "abc"}

	assert.Equal(t, 10, paramInt(params, "shortPeriod", 20))
	assert.Equal(t, 20, paramInt(params, "missing", 20))
	assert.Equal(t, 20, paramInt(params, "bad", 20))
	assert.Equal(t, 1.5, paramFloat(params, "stdDev", 2.0))
	assert.Equal(t, 2.0, paramFloat(params, "missing", 2.0))
}
