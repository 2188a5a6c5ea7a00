package strategy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/models"
)

const (
	signalLookbackDays  = 100
	minSignalBars       = 30
	taxLossThresholdPct = -5.0
	strongTaxLossPct    = -20.0
)

// GenerateSignals scans every stock/ETF holding with enough history and
// emits SMA crossover and RSI signals plus tax-loss harvesting
// candidates. Holdings with short histories are silently skipped; an
// empty result is valid, not an error.
func (e *Engine) GenerateSignals(
	ctx context.Context,
	portfolioID string,
	holdings []models.HoldingSnapshot,
) (*models.PortfolioSignals, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -signalLookbackDays)

	var signals []models.TradeSignal
	var taxLoss []models.TaxLossCandidate

	for _, h := range holdings {
		if h.Ticker == "" || !h.AssetClass.Correlatable() {
			continue
		}
		ps, err := e.history.GetPriceHistory(ctx, h.Ticker, from, to)
		if err != nil || len(ps) < minSignalBars {
			continue
		}
		prices := ps.Closes()
		currentPrice := prices[len(prices)-1]

		if s := smaSignal(h, prices, currentPrice); s != nil {
			signals = append(signals, *s)
		}
		if s := rsiSignal(h, prices, currentPrice); s != nil {
			signals = append(signals, *s)
		}
		if c := taxLossCandidate(h, currentPrice); c != nil {
			taxLoss = append(taxLoss, *c)
		}
	}

	sort.SliceStable(signals, func(a, b int) bool {
		if oa, ob := signalOrder(signals[a].Signal), signalOrder(signals[b].Signal); oa != ob {
			return oa < ob
		}
		return signals[a].Confidence > signals[b].Confidence
	})
	sort.SliceStable(taxLoss, func(a, b int) bool {
		return taxLoss[a].UnrealizedLossPct < taxLoss[b].UnrealizedLossPct
	})

	e.logger.WithFields(logrus.Fields{
		"portfolio_id": portfolioID,
		"signals":      len(signals),
		"tax_loss":     len(taxLoss),
	}).Info("Signal scan completed")

	return &models.PortfolioSignals{
		PortfolioID:       portfolioID,
		Signals:           signals,
		TaxLossCandidates: taxLoss,
		GeneratedAt:       to,
	}, nil
}

// smaSignal emits a 20/50 crossover signal: BUY on a golden cross, SELL
// on a death cross, HOLD when the price rides above a positive trend.
// Anything else produces no signal.
func smaSignal(h models.HoldingSnapshot, prices []float64, currentPrice float64) *models.TradeSignal {
	if len(prices) < 50 {
		return nil
	}
	last := len(prices) - 1
	sma20, sma50 := smaAt(prices, last, 20), smaAt(prices, last, 50)
	prevSMA20, prevSMA50 := smaAt(prices, last-1, 20), smaAt(prices, last-1, 50)

	signal := &models.TradeSignal{
		Ticker:         h.Ticker,
		HoldingName:    holdingName(h),
		CurrentPrice:   decimal.NewFromFloat(currentPrice).Round(4),
		StrategySource: "SMA Crossover (20/50)",
	}

	switch {
	case prevSMA20 <= prevSMA50 && sma20 > sma50:
		signal.Signal = "BUY"
		signal.Rationale = "Golden cross: 20-day SMA crossed above 50-day SMA, indicating bullish momentum"
		signal.Confidence = 0.75
		signal.TargetPrice = decimal.NewFromFloat(currentPrice * 1.10).Round(4)
		signal.StopLoss = decimal.NewFromFloat(currentPrice * 0.95).Round(4)
	case prevSMA20 >= prevSMA50 && sma20 < sma50:
		signal.Signal = "SELL"
		signal.Rationale = "Death cross: 20-day SMA crossed below 50-day SMA, indicating bearish momentum"
		signal.Confidence = 0.70
		signal.TargetPrice = decimal.NewFromFloat(currentPrice * 0.90).Round(4)
		signal.StopLoss = decimal.NewFromFloat(currentPrice * 1.03).Round(4)
	case sma20 > sma50 && currentPrice > sma20:
		signal.Signal = "HOLD"
		signal.Rationale = "Price above both SMAs with positive trend, maintain position"
		signal.Confidence = 0.60
	default:
		return nil
	}
	return signal
}

// rsiSignal emits a 14-period RSI signal at the oversold/overbought
// extremes; neutral readings produce no signal.
func rsiSignal(h models.HoldingSnapshot, prices []float64, currentPrice float64) *models.TradeSignal {
	if len(prices) < 20 {
		return nil
	}
	rsi := rsiSeries(prices, 14)
	if len(rsi) == 0 {
		return nil
	}
	current := rsi[len(rsi)-1]

	signal := &models.TradeSignal{
		Ticker:         h.Ticker,
		HoldingName:    holdingName(h),
		CurrentPrice:   decimal.NewFromFloat(currentPrice).Round(4),
		StrategySource: "RSI (14-period)",
	}

	switch {
	case current < 30:
		signal.Signal = "BUY"
		signal.Rationale = fmt.Sprintf("RSI at %.1f (oversold < 30), potential bounce opportunity", current)
		signal.Confidence = 0.70
		signal.TargetPrice = decimal.NewFromFloat(currentPrice * 1.08).Round(4)
		signal.StopLoss = decimal.NewFromFloat(currentPrice * 0.95).Round(4)
	case current > 70:
		signal.Signal = "SELL"
		signal.Rationale = fmt.Sprintf("RSI at %.1f (overbought > 70), consider taking profits", current)
		signal.Confidence = 0.65
		signal.TargetPrice = decimal.NewFromFloat(currentPrice * 0.92).Round(4)
		signal.StopLoss = decimal.NewFromFloat(currentPrice * 1.03).Round(4)
	default:
		return nil
	}
	return signal
}

// taxLossCandidate flags a position at least 5% under water. Deeper
// than 20% upgrades the suggestion wording.
func taxLossCandidate(h models.HoldingSnapshot, currentPrice float64) *models.TaxLossCandidate {
	purchase := h.PurchasePrice.InexactFloat64()
	if purchase <= 0 || currentPrice >= purchase {
		return nil
	}
	lossPct := (currentPrice - purchase) / purchase * 100
	if lossPct > taxLossThresholdPct {
		return nil
	}

	suggestion := "Consider selling to offset capital gains; replace with sector ETF to maintain exposure"
	if lossPct <= strongTaxLossPct {
		suggestion = "Strong candidate: sell to harvest loss and buy similar ETF after 30-day wash sale period"
	}
	loss := (currentPrice - purchase) * h.Quantity.InexactFloat64()

	return &models.TaxLossCandidate{
		Ticker:            h.Ticker,
		Name:              h.Name,
		PurchasePrice:     h.PurchasePrice,
		CurrentPrice:      decimal.NewFromFloat(currentPrice).Round(4),
		UnrealizedLoss:    decimal.NewFromFloat(loss).Round(4),
		UnrealizedLossPct: round4(lossPct),
		Suggestion:        suggestion,
	}
}

func holdingName(h models.HoldingSnapshot) string {
	if h.Name != "" {
		return h.Name
	}
	return h.Ticker
}

func signalOrder(signal string) int {
	switch signal {
	case "BUY":
		return 0
	case "SELL":
		return 1
	default:
		return 2
	}
}
