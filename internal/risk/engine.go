package risk

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/timeseries"
)

// PriceHistoryProvider supplies daily bars for one ticker over a window.
type PriceHistoryProvider interface {
	GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
}

// QuoteProvider supplies live prices and FX rates. A failed quote is
// recoverable: the engine falls back to the last historical close.
type QuoteProvider interface {
	GetQuote(ctx context.Context, ticker string) (models.Quote, error)
	GetExchangeRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Config carries the tunables of the risk engine. Zero values are
// replaced with defaults in NewEngine.
type Config struct {
	RiskFreeRate    float64
	BenchmarkTicker string
	Simulations     int
	Seed            int64
	TradingDays     int
}

// Engine computes the full risk report for a portfolio snapshot. It is
// stateless between calls and safe for concurrent use.
type Engine struct {
	cfg       Config
	history   PriceHistoryProvider
	quotes    QuoteProvider
	scenarios []StressShock
	logger    *logrus.Entry
}

// NewEngine builds a risk engine with the default stress scenario table.
func NewEngine(cfg Config, history PriceHistoryProvider, quotes QuoteProvider) *Engine {
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = 0.05
	}
	if cfg.BenchmarkTicker == "" {
		cfg.BenchmarkTicker = "SPY"
	}
	if cfg.Simulations == 0 {
		cfg.Simulations = 10000
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.TradingDays == 0 {
		cfg.TradingDays = 252
	}
	return &Engine{
		cfg:       cfg,
		history:   history,
		quotes:    quotes,
		scenarios: DefaultStressScenarios(),
		logger:    logrus.WithField("component", "risk_engine"),
	}
}

// holdingSeries pairs a holding with its aligned closing prices and the
// weight its market value contributes to the portfolio total.
type holdingSeries struct {
	holding models.HoldingSnapshot
	closes  []float64
	dates   []time.Time
	value   float64
	weight  float64
}

// ComputeRiskAnalytics builds the complete risk report for the given
// holdings. Holdings whose price history cannot be fetched (or is too
// short) are excluded and listed in the report rather than failing the
// whole request.
func (e *Engine) ComputeRiskAnalytics(
	ctx context.Context,
	portfolioID, baseCurrency string,
	holdings []models.HoldingSnapshot,
	confidence float64,
	horizonDays, lookbackDays int,
) (*models.RiskReport, error) {
	if len(holdings) == 0 {
		return nil, apperrors.NewInput("portfolio %s has no holdings to analyze", portfolioID)
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)

	series, excluded := e.collectSeries(ctx, holdings, from, to)
	if len(series) == 0 {
		return nil, apperrors.NewInputWithHint(
			"Run a price history sync and retry",
			"no holding in portfolio %s has usable price history", portfolioID)
	}

	benchCloses := e.benchmarkCloses(ctx, from, to)

	e.weigh(ctx, series, baseCurrency)
	totalValue := 0.0
	for _, s := range series {
		totalValue += s.value
	}

	alignSeries(series, benchCloses)
	portReturns, dates := portfolioReturns(series)
	var benchReturns []float64
	if benchCloses != nil {
		benchReturns = timeseries.Returns(trailing(benchCloses, len(series[0].closes)))
	}

	dailyVol := timeseries.StdDev(portReturns)
	annFactor := math.Sqrt(float64(e.cfg.TradingDays))
	annVol := dailyVol * annFactor
	meanDaily := timeseries.Mean(portReturns)

	sortedReturns := append([]float64(nil), portReturns...)
	sort.Float64s(sortedReturns)
	horizonScale := math.Sqrt(float64(horizonDays))

	histVaR := -tailReturn(sortedReturns, confidence) * totalValue * horizonScale
	paramVaR := math.Max(0, zScore(confidence)*dailyVol*totalValue*horizonScale)

	simulated := simulateHorizonReturns(meanDaily, dailyVol, horizonDays, e.cfg.Simulations, e.cfg.Seed)
	mcDist := summarizeDistribution(simulated)
	mcVaR := -tailReturn(simulated, confidence) * totalValue

	cvar95 := -expectedShortfall(sortedReturns, 0.95) * totalValue * horizonScale
	cvar99 := -expectedShortfall(sortedReturns, 0.99) * totalValue * horizonScale

	report := &models.RiskReport{
		PortfolioID:          portfolioID,
		PortfolioValue:       money(totalValue),
		BaseCurrency:         baseCurrency,
		ConfidenceLevel:      confidence,
		TimeHorizonDays:      horizonDays,
		LookbackDays:         lookbackDays,
		DailyVolatility:      dailyVol,
		AnnualizedVolatility: annVol,
		VaR: models.VaRMetrics{
			HistoricalSimulation: money(histVaR),
			Parametric:           money(paramVaR),
			MonteCarlo:           money(mcVaR),
		},
		CVaR95:          money(math.Max(0, cvar95)),
		CVaR99:          money(math.Max(0, cvar99)),
		MonteCarlo:      mcDist,
		ExcludedTickers: excluded,
		ComputedAt:      to,
	}

	e.applyBenchmarkMetrics(report, series, portReturns, benchReturns, annVol, meanDaily, totalValue)

	dd, peakIdx, troughIdx := maxDrawdown(portReturns)
	report.MaxDrawdown = dd
	if len(dates) > 0 && dd > 0 {
		report.MaxDrawdownPeakDate = dates[peakIdx].Format("2006-01-02")
		report.MaxDrawdownTroughDate = dates[troughIdx].Format("2006-01-02")
	}

	e.logger.WithFields(logrus.Fields{
		"portfolio_id": portfolioID,
		"holdings":     len(series),
		"excluded":     len(excluded),
		"lookback":     lookbackDays,
	}).Info("Risk report computed")

	return report, nil
}

// collectSeries fetches price history for every analyzable holding,
// excluding those with missing or too-short series.
func (e *Engine) collectSeries(
	ctx context.Context,
	holdings []models.HoldingSnapshot,
	from, to time.Time,
) ([]*holdingSeries, []string) {
	var series []*holdingSeries
	var excluded []string
	for _, h := range holdings {
		if h.Ticker == "" || !h.AssetClass.Correlatable() {
			if h.Ticker != "" {
				excluded = append(excluded, h.Ticker)
			}
			continue
		}
		ps, err := e.history.GetPriceHistory(ctx, h.Ticker, from, to)
		if err != nil || len(ps) < 2 {
			e.logger.WithField("ticker", h.Ticker).WithError(err).
				Warn("Excluding holding without usable price history")
			excluded = append(excluded, h.Ticker)
			continue
		}
		dates := make([]time.Time, len(ps))
		for i, p := range ps {
			dates[i] = p.Date
		}
		series = append(series, &holdingSeries{
			holding: h,
			closes:  ps.Closes(),
			dates:   dates,
		})
	}
	return series, excluded
}

// benchmarkCloses fetches the benchmark series; a failure only disables
// the benchmark-relative metrics.
func (e *Engine) benchmarkCloses(ctx context.Context, from, to time.Time) []float64 {
	ps, err := e.history.GetPriceHistory(ctx, e.cfg.BenchmarkTicker, from, to)
	if err != nil || len(ps) < 2 {
		e.logger.WithField("ticker", e.cfg.BenchmarkTicker).WithError(err).
			Warn("Benchmark history unavailable, beta and alpha will be omitted")
		return nil
	}
	return ps.Closes()
}

// weigh prices every holding in the base currency. Live quotes win;
// otherwise the last historical close is used. A missing FX rate falls
// back to 1 with a warning instead of failing the report.
func (e *Engine) weigh(ctx context.Context, series []*holdingSeries, baseCurrency string) {
	total := 0.0
	for _, s := range series {
		price := s.closes[len(s.closes)-1]
		if quote, err := e.quotes.GetQuote(ctx, s.holding.Ticker); err == nil && quote.Price.IsPositive() {
			price = quote.Price.InexactFloat64()
		}
		rate := 1.0
		if s.holding.Currency != "" && s.holding.Currency != baseCurrency {
			fx, err := e.quotes.GetExchangeRate(ctx, s.holding.Currency, baseCurrency)
			if err != nil || !fx.IsPositive() {
				e.logger.WithFields(logrus.Fields{
					"ticker": s.holding.Ticker,
					"from":   s.holding.Currency,
					"to":     baseCurrency,
				}).Warn("Exchange rate unavailable, assuming parity")
			} else {
				rate = fx.InexactFloat64()
			}
		}
		s.value = price * s.holding.Quantity.InexactFloat64() * rate
		total += s.value
	}
	for _, s := range series {
		if total > 0 {
			s.weight = s.value / total
		}
	}
}

// alignSeries trims every holding series (and implicitly the benchmark,
// trimmed by the caller) to the shortest common trailing window.
func alignSeries(series []*holdingSeries, benchCloses []float64) {
	minLen := len(series[0].closes)
	for _, s := range series[1:] {
		if len(s.closes) < minLen {
			minLen = len(s.closes)
		}
	}
	if benchCloses != nil && len(benchCloses) < minLen {
		minLen = len(benchCloses)
	}
	for _, s := range series {
		s.closes = trailing(s.closes, minLen)
		s.dates = s.dates[len(s.dates)-minLen:]
	}
}

func trailing(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

// portfolioReturns blends per-holding daily returns by market-value
// weight. The returned dates index the wealth path: dates[0] is the
// first close, dates[i] the close after return i-1.
func portfolioReturns(series []*holdingSeries) ([]float64, []time.Time) {
	n := len(series[0].closes) - 1
	if n < 1 {
		return nil, nil
	}
	port := make([]float64, n)
	for _, s := range series {
		rets := timeseries.Returns(s.closes)
		for i, r := range rets {
			port[i] += s.weight * r
		}
	}
	return port, series[0].dates
}

// applyBenchmarkMetrics fills in beta, alpha and the three risk-adjusted
// ratios. Each stays nil when its inputs are degenerate.
func (e *Engine) applyBenchmarkMetrics(
	report *models.RiskReport,
	series []*holdingSeries,
	portReturns, benchReturns []float64,
	annVol, meanDaily, totalValue float64,
) {
	annReturn := meanDaily * float64(e.cfg.TradingDays)
	rf := e.cfg.RiskFreeRate

	if annVol > 0 {
		sharpe := (annReturn - rf) / annVol
		report.SharpeRatio = &sharpe
	}
	if dd := timeseries.DownsideDeviation(portReturns, 0); dd > 0 {
		sortino := (annReturn - rf) / (dd * math.Sqrt(float64(e.cfg.TradingDays)))
		report.SortinoRatio = &sortino
	}

	benchVar := variance(benchReturns)
	if len(benchReturns) < 2 || benchVar == 0 {
		report.StressTests = e.stressTests(1.0, totalValue)
		return
	}

	portfolioBeta := 0.0
	betas := make([]models.HoldingBeta, 0, len(series))
	for _, s := range series {
		assetReturns := timeseries.Returns(s.closes)
		b := covariance(assetReturns, benchReturns) / benchVar
		portfolioBeta += s.weight * b
		betas = append(betas, models.HoldingBeta{
			Ticker: s.holding.Ticker,
			Name:   s.holding.Name,
			Beta:   b,
			Weight: s.weight,
		})
	}
	report.PortfolioBeta = &portfolioBeta
	report.HoldingBetas = betas

	benchAnnReturn := timeseries.Mean(benchReturns) * float64(e.cfg.TradingDays)
	alpha := annReturn - (rf + portfolioBeta*(benchAnnReturn-rf))
	report.PortfolioAlpha = &alpha

	if portfolioBeta != 0 {
		treynor := (annReturn - rf) / portfolioBeta
		report.TreynorRatio = &treynor
	}

	report.StressTests = e.stressTests(portfolioBeta, totalValue)
}

// stressTests scales each market shock by portfolio beta. With no
// benchmark a beta of 1 is assumed.
func (e *Engine) stressTests(beta, totalValue float64) []models.StressScenario {
	out := make([]models.StressScenario, len(e.scenarios))
	for i, sc := range e.scenarios {
		lossPct := sc.MarketShockPct * beta
		out[i] = models.StressScenario{
			Name:             sc.Name,
			Description:      sc.Description,
			MarketShockPct:   sc.MarketShockPct,
			EstimatedLoss:    money(math.Abs(lossPct) / 100 * totalValue),
			EstimatedLossPct: lossPct,
		}
	}
	return out
}

// tailReturn picks the return at the (1-confidence) quantile of a
// sorted ascending slice, clamped so a fully positive history produces
// zero VaR rather than a negative loss.
func tailReturn(sorted []float64, confidence float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return math.Min(sorted[idx], 0)
}

// expectedShortfall averages the returns at or below the VaR quantile.
func expectedShortfall(sorted []float64, confidence float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx < 1 {
		idx = 1
	}
	tail := sorted[:idx]
	return math.Min(timeseries.Mean(tail), 0)
}

func zScore(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.326
	case confidence >= 0.95:
		return 1.645
	case confidence >= 0.90:
		return 1.282
	default:
		return 1.645
	}
}

func variance(xs []float64) float64 {
	sd := timeseries.StdDev(xs)
	return sd * sd
}

// covariance is the sample covariance over the common trailing window.
func covariance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a, b = a[len(a)-n:], b[len(b)-n:]
	meanA, meanB := timeseries.Mean(a), timeseries.Mean(b)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (a[i] - meanA) * (b[i] - meanB)
	}
	return sum / float64(n-1)
}

// maxDrawdown walks the compounded wealth path and returns the deepest
// peak-to-trough decline with the indices of both points. Indices are
// positions in the wealth path, so they address the dates slice from
// portfolioReturns directly.
func maxDrawdown(returns []float64) (float64, int, int) {
	wealth := 1.0
	peak := 1.0
	peakIdx, maxPeakIdx, maxTroughIdx := 0, 0, 0
	maxDD := 0.0
	for i, r := range returns {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
			peakIdx = i + 1
		}
		if peak > 0 {
			dd := (peak - wealth) / peak
			if dd > maxDD {
				maxDD = dd
				maxPeakIdx = peakIdx
				maxTroughIdx = i + 1
			}
		}
	}
	return maxDD, maxPeakIdx, maxTroughIdx
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
