package risk

import (
	"context"
	"errors"
	"math"
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

type mockQuoteProvider struct {
	mock.Mock
}

func (m *mockQuoteProvider) GetQuote(ctx context.Context, ticker string) (models.Quote, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(models.Quote), args.Error(1)
}

func (m *mockQuoteProvider) GetExchangeRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func seriesFromCloses(start time.Time, closes []float64) models.PriceSeries {
	ps := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		ps[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return ps
}

func holding(ticker string, qty float64) models.HoldingSnapshot {
	return models.HoldingSnapshot{
		Ticker:     ticker,
		Name:       ticker + " Inc",
		Quantity:   decimal.NewFromFloat(qty),
		Currency:   "USD",
		AssetClass: models.AssetClassStock,
	}
}

func newTestEngine(history *mockHistoryProvider, quotes *mockQuoteProvider) *Engine {
	return NewEngine(Config{BenchmarkTicker: "SPY"}, history, quotes)
}

func TestComputeRiskAnalytics_NoHoldings(t *testing.T) {
	e := newTestEngine(new(mockHistoryProvider), new(mockQuoteProvider))

	_, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD", nil, 0.95, 1, 252)

	assert.True(t, apperrors.IsInput(err))
}

func TestComputeRiskAnalytics_AllHistoriesMissing(t *testing.T) {
	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, "AAA", mock.Anything, mock.Anything).
		Return(nil, errors.New("no data"))

	e := newTestEngine(history, new(mockQuoteProvider))
	_, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD",
		[]models.HoldingSnapshot{holding("AAA", 10)}, 0.95, 1, 252)

	assert.True(t, apperrors.IsInput(err))
}

func TestComputeRiskAnalytics_ExcludesHoldingWithGap(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 101, 99, 102, 104, 103, 105, 107, 106, 108}

	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, "AAA", mock.Anything, mock.Anything).
		Return(seriesFromCloses(start, closes), nil)
	history.On("GetPriceHistory", mock.Anything, "BBB", mock.Anything, mock.Anything).
		Return(nil, errors.New("no data"))
	history.On("GetPriceHistory", mock.Anything, "SPY", mock.Anything, mock.Anything).
		Return(seriesFromCloses(start, closes), nil)

	quotes := new(mockQuoteProvider)
	quotes.On("GetQuote", mock.Anything, "AAA").Return(models.Quote{Price: decimal.NewFromInt(108)}, nil)

	e := newTestEngine(history, quotes)
	report, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD",
		[]models.HoldingSnapshot{holding("AAA", 10), holding("BBB", 5)}, 0.95, 1, 252)

	require.NoError(t, err)
	assert.Equal(t, []string{"BBB"}, report.ExcludedTickers)
	assert.True(t, report.PortfolioValue.Equal(decimal.NewFromInt(1080)))
}

func TestComputeRiskAnalytics_VaRNonNegative(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// strictly rising prices: every daily return is positive
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}

	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(seriesFromCloses(start, rising), nil)

	quotes := new(mockQuoteProvider)
	quotes.On("GetQuote", mock.Anything, mock.Anything).Return(models.Quote{Price: decimal.NewFromInt(129)}, nil)

	e := newTestEngine(history, quotes)
	report, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD",
		[]models.HoldingSnapshot{holding("AAA", 1)}, 0.95, 10, 252)

	require.NoError(t, err)
	assert.True(t, report.VaR.HistoricalSimulation.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, report.VaR.Parametric.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, report.VaR.MonteCarlo.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, report.CVaR95.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, report.CVaR99.GreaterThanOrEqual(decimal.Zero))
}

func TestComputeRiskAnalytics_ParametricVaR(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// daily returns +0.20, -0.10, +0.20, -0.10: mean 0.05, sample
	// stddev sqrt(0.03). With value 116.64, horizon 4 and z(0.95)=1.645
	// the parametric VaR is 1.645 * sqrt(0.03) * 116.64 * 2 = 66.4667.
	// The mean must not be subtracted from the z-scaled volatility.
	closes := []float64{100, 120, 108, 129.6, 116.64}

	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(seriesFromCloses(start, closes), nil)

	quotes := new(mockQuoteProvider)
	quotes.On("GetQuote", mock.Anything, "AAA").Return(models.Quote{Price: decimal.NewFromFloat(116.64)}, nil)

	e := newTestEngine(history, quotes)
	report, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD",
		[]models.HoldingSnapshot{holding("AAA", 1)}, 0.95, 4, 252)

	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.03), report.DailyVolatility, 1e-12)
	assert.InDelta(t, 66.47, report.VaR.Parametric.InexactFloat64(), 1e-9)
}

func TestComputeRiskAnalytics_BetaAgainstSelfIsOne(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 102, 101, 105, 103, 108, 107, 110, 109, 112}

	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(seriesFromCloses(start, closes), nil)

	quotes := new(mockQuoteProvider)
	quotes.On("GetQuote", mock.Anything, mock.Anything).Return(models.Quote{Price: decimal.NewFromInt(112)}, nil)

	e := newTestEngine(history, quotes)
	report, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD",
		[]models.HoldingSnapshot{holding("AAA", 3)}, 0.95, 1, 252)

	require.NoError(t, err)
	require.NotNil(t, report.PortfolioBeta)
	assert.InDelta(t, 1.0, *report.PortfolioBeta, 1e-9)
	require.NotNil(t, report.PortfolioAlpha)
	assert.InDelta(t, 0.0, *report.PortfolioAlpha, 1e-9)
	require.Len(t, report.HoldingBetas, 1)
	assert.InDelta(t, 1.0, report.HoldingBetas[0].Weight, 1e-9)
}

func TestComputeRiskAnalytics_NoBenchmarkOmitsBetaMetrics(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 102, 101, 105, 103, 108}

	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, "AAA", mock.Anything, mock.Anything).
		Return(seriesFromCloses(start, closes), nil)
	history.On("GetPriceHistory", mock.Anything, "SPY", mock.Anything, mock.Anything).
		Return(nil, errors.New("no data"))

	quotes := new(mockQuoteProvider)
	quotes.On("GetQuote", mock.Anything, "AAA").Return(models.Quote{Price: decimal.NewFromInt(108)}, nil)

	e := newTestEngine(history, quotes)
	report, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD",
		[]models.HoldingSnapshot{holding("AAA", 3)}, 0.95, 1, 252)

	require.NoError(t, err)
	assert.Nil(t, report.PortfolioBeta)
	assert.Nil(t, report.PortfolioAlpha)
	assert.Nil(t, report.TreynorRatio)
	// stress tests still produced, scaled with assumed beta of 1
	require.Len(t, report.StressTests, 5)
	assert.InDelta(t, -56.8, report.StressTests[0].EstimatedLossPct, 1e-9)
}

func TestComputeRiskAnalytics_QuoteFallsBackToLastClose(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 101, 103, 102, 104}

	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(seriesFromCloses(start, closes), nil)

	quotes := new(mockQuoteProvider)
	quotes.On("GetQuote", mock.Anything, "AAA").
		Return(models.Quote{}, errors.New("quote service down"))

	e := newTestEngine(history, quotes)
	report, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD",
		[]models.HoldingSnapshot{holding("AAA", 2)}, 0.95, 1, 252)

	require.NoError(t, err)
	assert.True(t, report.PortfolioValue.Equal(decimal.NewFromInt(208)))
}

func TestComputeRiskAnalytics_ForeignCurrencyConverted(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 101, 103, 102, 104}

	history := new(mockHistoryProvider)
	history.On("GetPriceHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(seriesFromCloses(start, closes), nil)

	quotes := new(mockQuoteProvider)
	quotes.On("GetQuote", mock.Anything, "EEE").Return(models.Quote{Price: decimal.NewFromInt(100)}, nil)
	quotes.On("GetExchangeRate", mock.Anything, "EUR", "USD").
		Return(decimal.NewFromFloat(1.10), nil)

	h := holding("EEE", 1)
	h.Currency = "EUR"

	e := newTestEngine(history, quotes)
	report, err := e.ComputeRiskAnalytics(context.Background(), "p1", "USD",
		[]models.HoldingSnapshot{h}, 0.95, 1, 252)

	require.NoError(t, err)
	assert.True(t, report.PortfolioValue.Equal(decimal.NewFromInt(110)))
	quotes.AssertCalled(t, "GetExchangeRate", mock.Anything, "EUR", "USD")
}

func TestSimulateHorizonReturns_Deterministic(t *testing.T) {
	a := simulateHorizonReturns(0.001, 0.02, 10, 500, 42)
	b := simulateHorizonReturns(0.001, 0.02, 10, 500, 42)

	assert.Equal(t, a, b)

	c := simulateHorizonReturns(0.001, 0.02, 10, 500, 43)
	assert.NotEqual(t, a, c)
}

func TestMaxDrawdown(t *testing.T) {
	t.Run("simple decline", func(t *testing.T) {
		// wealth path 100 -> 120 -> 90 -> 95
		returns := []float64{0.20, -0.25, 95.0/90.0 - 1}
		dd, peakIdx, troughIdx := maxDrawdown(returns)

		assert.InDelta(t, 0.25, dd, 1e-12)
		assert.Equal(t, 1, peakIdx)
		assert.Equal(t, 2, troughIdx)
	})

	t.Run("monotonic rise has zero drawdown", func(t *testing.T) {
		dd, _, _ := maxDrawdown([]float64{0.01, 0.02, 0.005})
		assert.Zero(t, dd)
	})
}

func TestTailReturn(t *testing.T) {
	sorted := []float64{-0.05, -0.02, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08}

	// 95% confidence over 10 points lands on index 0
	assert.InDelta(t, -0.05, tailReturn(sorted, 0.95), 1e-12)
	// all-positive history clamps to zero
	assert.Zero(t, tailReturn([]float64{0.01, 0.02, 0.03}, 0.95))
	assert.Zero(t, tailReturn(nil, 0.95))
}

func TestZScore(t *testing.T) {
	assert.Equal(t, 2.326, zScore(0.99))
	assert.Equal(t, 1.645, zScore(0.95))
	assert.Equal(t, 1.282, zScore(0.90))
	assert.Equal(t, 1.645, zScore(0.50))
}
