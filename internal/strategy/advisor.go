package strategy

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/timeseries"
)

const minAdvisorBars = 30

// Advise builds a single-ticker advisory: trailing indicators, VaR on
// the supplied position value, a rule-table recommendation and the
// close series for charting. The live quote and company profile are
// best-effort; only missing history fails the request.
func (e *Engine) Advise(
	ctx context.Context,
	ticker string,
	positionValue decimal.Decimal,
	lookbackDays int,
) (*models.TickerAdvisory, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, apperrors.NewInput("ticker is required")
	}
	if lookbackDays < 60 {
		lookbackDays = 60
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)
	ps, err := e.history.GetPriceHistory(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	if len(ps) < minAdvisorBars {
		return nil, apperrors.NewInputWithHint(
			"Run a price history sync and retry",
			"not enough historical data for %s (%d records, need %d)", ticker, len(ps), minAdvisorBars)
	}

	closes := ps.Closes()
	last := closes[len(closes)-1]

	advisory := &models.TickerAdvisory{
		Ticker:       ticker,
		CurrentPrice: decimal.NewFromFloat(last).Round(4),
	}

	if quote, err := e.market.GetQuote(ctx, ticker); err == nil && quote.Price.IsPositive() {
		advisory.CurrentPrice = quote.Price
		advisory.ChangePercent = quote.ChangePercent
	}
	if advisory.ChangePercent == nil && len(closes) > 1 && closes[len(closes)-2] != 0 {
		change := round4((last/closes[len(closes)-2] - 1) * 100)
		advisory.ChangePercent = &change
	}
	if profile, err := e.market.GetCompanyProfile(ctx, ticker); err == nil {
		advisory.Name = profile.Name
		advisory.Industry = profile.Industry
	}

	sma20 := trailingSMA(closes, 20)
	rsi14 := simpleRSI(closes, 14)
	macd := trailingEMA(closes, 12) - trailingEMA(closes, 26)
	returns := timeseries.Returns(closes)

	advisory.Indicators = models.AdvisorIndicators{
		SMA20: round4(sma20),
		EMA20: round4(trailingEMA(closes, 20)),
		RSI14: round4(rsi14),
		MACD:  round4(macd),
		// single-EMA approximation; a full MACD signal line is not
		// worth the extra state for this advisory
		Signal9:              round4(macd),
		AnnualizedVolatility: round4(timeseries.StdDev(returns) * math.Sqrt(float64(e.cfg.TradingDays))),
	}

	value := positionValue.InexactFloat64()
	advisory.Risk = models.AdvisorRisk{
		VaR95: decimal.NewFromFloat(math.Abs(positionVaR(returns, 0.95) * value)).Round(4),
		VaR99: decimal.NewFromFloat(math.Abs(positionVaR(returns, 0.99) * value)).Round(4),
	}

	switch {
	case last > sma20 && macd > 0 && rsi14 < 70:
		advisory.Recommendation = "BUY"
		advisory.Rationale = "Price above trend (SMA20), positive momentum (MACD), RSI not overbought."
	case last < sma20 && macd < 0 && rsi14 > 30:
		advisory.Recommendation = "SELL"
		advisory.Rationale = "Price below trend with negative momentum."
	default:
		advisory.Recommendation = "HOLD"
		advisory.Rationale = "Signals are mixed; wait for clearer setup."
	}

	chart := make([]models.ChartPoint, len(ps))
	for i, p := range ps {
		chart[i] = models.ChartPoint{
			Date:  p.Date.Format("2006-01-02"),
			Close: decimal.NewFromFloat(p.Close).Round(4),
		}
	}
	advisory.Chart = chart

	return advisory, nil
}

// positionVaR is the daily return at the (1-confidence) quantile,
// shifted one rank conservative and clamped non-positive.
func positionVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	idx := int(math.Floor((1-confidence)*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	return math.Min(sorted[idx], 0)
}
