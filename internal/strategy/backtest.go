package strategy

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/timeseries"
)

const (
	minBacktestBars = 50
	dcaInvestment   = 1000.0
)

// PriceHistoryProvider supplies daily bars for one ticker over a window.
type PriceHistoryProvider interface {
	GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
}

// MarketDataProvider supplies live quotes and company profiles for the
// advisor. Both calls are best-effort there; only missing history is
// fatal.
type MarketDataProvider interface {
	GetQuote(ctx context.Context, ticker string) (models.Quote, error)
	GetCompanyProfile(ctx context.Context, ticker string) (models.CompanyProfile, error)
}

// Config carries the strategy engine tunables. Zero values are replaced
// with defaults in NewEngine.
type Config struct {
	RiskFreeRate    float64
	BenchmarkTicker string
	TradingDays     int
}

// Engine runs backtests, live signal scans and single-ticker advisories.
// Stateless and safe for concurrent use.
type Engine struct {
	cfg     Config
	history PriceHistoryProvider
	market  MarketDataProvider
	logger  *logrus.Entry
}

func NewEngine(cfg Config, history PriceHistoryProvider, market MarketDataProvider) *Engine {
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = 0.05
	}
	if cfg.BenchmarkTicker == "" {
		cfg.BenchmarkTicker = "SPY"
	}
	if cfg.TradingDays == 0 {
		cfg.TradingDays = 252
	}
	return &Engine{
		cfg:     cfg,
		history: history,
		market:  market,
		logger:  logrus.WithField("component", "strategy_engine"),
	}
}

// Backtest replays one strategy over a ticker's history. Unknown
// strategy IDs fall back to the SMA crossover rules with default
// parameters so every cataloged strategy returns a result.
func (e *Engine) Backtest(
	ctx context.Context,
	strategyID, ticker string,
	lookbackDays int,
	params map[string]string,
) (*models.BacktestResult, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)

	ps, err := e.history.GetPriceHistory(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	if len(ps) < minBacktestBars {
		return nil, apperrors.NewInputWithHint(
			"Run a price history sync and retry",
			"insufficient price data for %s (%d records, need %d)", ticker, len(ps), minBacktestBars)
	}

	prices := ps.Closes()
	dates := barDates(ps)

	var benchPrices []float64
	if bench, err := e.history.GetPriceHistory(ctx, e.cfg.BenchmarkTicker, from, to); err == nil && len(bench) > 1 {
		benchPrices = bench.Closes()
	} else {
		e.logger.WithField("ticker", e.cfg.BenchmarkTicker).
			Warn("Benchmark history unavailable for backtest comparison")
	}

	var trades []models.TradeRecord
	switch strategyID {
	case "sma_crossover":
		trades = backtestSMACrossover(prices, dates,
			paramInt(params, "shortPeriod", 20), paramInt(params, "longPeriod", 50))
	case "mean_reversion":
		trades = backtestMeanReversion(prices, dates,
			paramInt(params, "period", 20), paramFloat(params, "stdDev", 2.0))
	case "momentum":
		trades = backtestMomentum(prices, dates,
			paramInt(params, "rsiPeriod", 14),
			paramFloat(params, "buyThreshold", 30), paramFloat(params, "sellThreshold", 70))
	case "dca":
		trades = backtestDCA(prices, dates, paramInt(params, "intervalDays", 30))
	default:
		trades = backtestSMACrossover(prices, dates, 20, 50)
	}

	result := e.buildResult(strategyID, ticker, lookbackDays, prices, benchPrices, trades)

	e.logger.WithFields(logrus.Fields{
		"strategy": strategyID,
		"ticker":   ticker,
		"trades":   result.TotalTrades,
	}).Info("Backtest completed")

	return result, nil
}

// position tracks the single open long of the flat/long state machine
// shared by the rule-based backtests.
type position struct {
	open       bool
	entryPrice float64
	entryDate  time.Time
}

func (p *position) enter(price float64, date time.Time) {
	p.open = true
	p.entryPrice = price
	p.entryDate = date
}

func (p *position) exit(price float64, date time.Time) models.TradeRecord {
	p.open = false
	return models.TradeRecord{
		EntryDate:  p.entryDate.Format("2006-01-02"),
		ExitDate:   date.Format("2006-01-02"),
		Signal:     "BUY",
		EntryPrice: decimal.NewFromFloat(p.entryPrice).Round(4),
		ExitPrice:  decimal.NewFromFloat(price).Round(4),
		ReturnPct:  round4((price - p.entryPrice) / p.entryPrice * 100),
	}
}

func backtestSMACrossover(prices []float64, dates []time.Time, shortPeriod, longPeriod int) []models.TradeRecord {
	var trades []models.TradeRecord
	maxPeriod := longPeriod
	if shortPeriod > maxPeriod {
		maxPeriod = shortPeriod
	}
	if len(prices) <= maxPeriod {
		return trades
	}

	var pos position
	for i := maxPeriod; i < len(prices); i++ {
		shortSMA := smaAt(prices, i, shortPeriod)
		longSMA := smaAt(prices, i, longPeriod)
		prevShort := smaAt(prices, i-1, shortPeriod)
		prevLong := smaAt(prices, i-1, longPeriod)

		if !pos.open && prevShort <= prevLong && shortSMA > longSMA {
			pos.enter(prices[i], dates[i])
		} else if pos.open && prevShort >= prevLong && shortSMA < longSMA {
			trades = append(trades, pos.exit(prices[i], dates[i]))
		}
	}
	if pos.open {
		trades = append(trades, pos.exit(prices[len(prices)-1], dates[len(dates)-1]))
	}
	return trades
}

func backtestMeanReversion(prices []float64, dates []time.Time, period int, stdDevMult float64) []models.TradeRecord {
	var trades []models.TradeRecord
	if len(prices) <= period {
		return trades
	}

	var pos position
	for i := period; i < len(prices); i++ {
		mean := smaAt(prices, i, period)
		band := stdDevMult * stdDevAt(prices, i, period)

		if !pos.open && prices[i] <= mean-band {
			pos.enter(prices[i], dates[i])
		} else if pos.open && prices[i] >= mean+band {
			trades = append(trades, pos.exit(prices[i], dates[i]))
		}
	}
	if pos.open {
		trades = append(trades, pos.exit(prices[len(prices)-1], dates[len(dates)-1]))
	}
	return trades
}

func backtestMomentum(prices []float64, dates []time.Time, rsiPeriod int, buyThreshold, sellThreshold float64) []models.TradeRecord {
	var trades []models.TradeRecord
	rsi := rsiSeries(prices, rsiPeriod)
	if rsi == nil {
		return trades
	}

	var pos position
	for i, value := range rsi {
		priceIdx := rsiPeriod + i
		if !pos.open && value < buyThreshold {
			pos.enter(prices[priceIdx], dates[priceIdx])
		} else if pos.open && value > sellThreshold {
			trades = append(trades, pos.exit(prices[priceIdx], dates[priceIdx]))
		}
	}
	if pos.open {
		trades = append(trades, pos.exit(prices[len(prices)-1], dates[len(dates)-1]))
	}
	return trades
}

// backtestDCA buys a fixed amount every intervalDays bars. Each
// purchase is recorded as a zero-return trade; the final record carries
// the aggregate return of the accumulated position.
func backtestDCA(prices []float64, dates []time.Time, intervalDays int) []models.TradeRecord {
	if intervalDays < 1 {
		intervalDays = 30
	}
	var trades []models.TradeRecord
	totalShares, totalInvested := 0.0, 0.0

	for i := 0; i < len(prices); i += intervalDays {
		if prices[i] <= 0 {
			continue
		}
		totalShares += dcaInvestment / prices[i]
		totalInvested += dcaInvestment
		entry := decimal.NewFromFloat(prices[i]).Round(4)
		trades = append(trades, models.TradeRecord{
			EntryDate:  dates[i].Format("2006-01-02"),
			ExitDate:   dates[i].Format("2006-01-02"),
			Signal:     "BUY",
			EntryPrice: entry,
			ExitPrice:  entry,
		})
	}

	if len(trades) > 0 && totalInvested > 0 {
		endValue := totalShares * prices[len(prices)-1]
		last := &trades[len(trades)-1]
		last.ExitPrice = decimal.NewFromFloat(prices[len(prices)-1]).Round(4)
		last.ReturnPct = round4((endValue - totalInvested) / totalInvested * 100)
	}
	return trades
}

// buildResult derives the aggregate statistics: trade stats from the
// trade list, return/risk figures from the underlying buy-and-hold
// series, and alpha against the benchmark when available.
func (e *Engine) buildResult(
	strategyID, ticker string,
	lookbackDays int,
	prices, benchPrices []float64,
	trades []models.TradeRecord,
) *models.BacktestResult {
	result := &models.BacktestResult{
		StrategyID:   strategyID,
		StrategyName: strategyName(strategyID),
		Ticker:       ticker,
		LookbackDays: lookbackDays,
		Trades:       trades,
		TotalTrades:  len(trades),
	}

	wins, losses := 0, 0
	totalWin, totalLoss := 0.0, 0.0
	for _, t := range trades {
		if t.ReturnPct > 0 {
			wins++
			totalWin += t.ReturnPct
		} else {
			losses++
			totalLoss += math.Abs(t.ReturnPct)
		}
	}
	result.WinningTrades = wins
	result.LosingTrades = losses
	if len(trades) > 0 {
		result.WinRate = round4(float64(wins) / float64(len(trades)) * 100)
	}
	if wins > 0 {
		result.AvgWin = round4(totalWin / float64(wins))
	}
	if losses > 0 {
		result.AvgLoss = round4(totalLoss / float64(losses))
	}
	switch {
	case totalLoss > 0:
		result.ProfitFactor = round4(totalWin / totalLoss)
	case totalWin > 0:
		result.ProfitFactor = 999
	}

	totalReturn := 0.0
	if len(prices) > 1 && prices[0] != 0 {
		totalReturn = (prices[len(prices)-1] - prices[0]) / prices[0] * 100
	}
	result.TotalReturn = round4(totalReturn)

	years := float64(lookbackDays) / float64(e.cfg.TradingDays)
	if years > 0 {
		result.CAGR = round4((math.Pow(1+totalReturn/100, 1/years) - 1) * 100)
	}

	result.MaxDrawdown = round4(priceDrawdownPct(prices))

	returns := timeseries.Returns(prices)
	annReturn := timeseries.Mean(returns) * float64(e.cfg.TradingDays)
	annFactor := math.Sqrt(float64(e.cfg.TradingDays))
	if vol := timeseries.StdDev(returns) * annFactor; vol > 0 {
		result.SharpeRatio = round4((annReturn - e.cfg.RiskFreeRate) / vol)
	}
	dailyRf := e.cfg.RiskFreeRate / float64(e.cfg.TradingDays)
	if downDev := timeseries.DownsideDeviation(returns, dailyRf) * annFactor; downDev > 0 {
		result.SortinoRatio = round4((annReturn - e.cfg.RiskFreeRate) / downDev)
	}

	if len(benchPrices) > 1 && benchPrices[0] != 0 {
		benchReturn := round4((benchPrices[len(benchPrices)-1] - benchPrices[0]) / benchPrices[0] * 100)
		alpha := round4(result.TotalReturn - benchReturn)
		result.BenchmarkReturn = &benchReturn
		result.Alpha = &alpha
	}

	return result
}

// priceDrawdownPct is the deepest peak-to-trough decline of the raw
// price path, in percent.
func priceDrawdownPct(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	peak := prices[0]
	maxDD := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			if dd := (peak - p) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD * 100
}

func barDates(ps models.PriceSeries) []time.Time {
	dates := make([]time.Time, len(ps))
	for i, p := range ps {
		dates[i] = p.Date
	}
	return dates
}

func paramInt(params map[string]string, key string, def int) int {
	if v, ok := params[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func paramFloat(params map[string]string, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
