package strategy

import (
	"math"

	"portfolio-analytics-api/internal/timeseries"
)

// smaAt averages the period closes ending at endIdx inclusive. The
// window clamps to the start of the series.
func smaAt(prices []float64, endIdx, period int) float64 {
	start := endIdx - period + 1
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for i := start; i <= endIdx; i++ {
		sum += prices[i]
	}
	return sum / float64(endIdx-start+1)
}

// stdDevAt is the sample standard deviation of the same clamped window
// used by smaAt.
func stdDevAt(prices []float64, endIdx, period int) float64 {
	start := endIdx - period + 1
	if start < 0 {
		start = 0
	}
	return timeseries.StdDev(prices[start : endIdx+1])
}

// rsiSeries computes Wilder-smoothed RSI values. The result has
// len(prices)-period entries; rsiSeries[i] corresponds to price index
// period+i. A loss-free window yields RSI 100.
func rsiSeries(prices []float64, period int) []float64 {
	if len(prices) <= period {
		return nil
	}

	gains := make([]float64, len(prices)-1)
	losses := make([]float64, len(prices)-1)
	for i := 0; i < len(prices)-1; i++ {
		change := prices[i+1] - prices[i]
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	rsi := make([]float64, len(prices)-period)
	for i := range rsi {
		if i > 0 {
			idx := period - 1 + i
			avgGain = (avgGain*float64(period-1) + gains[idx]) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + losses[idx]) / float64(period)
		}
		rs := 100.0
		if avgLoss != 0 {
			rs = avgGain / avgLoss
		}
		rsi[i] = 100 - (100 / (1 + rs))
	}
	return rsi
}

// trailingSMA averages the last n closes (or all of them when shorter).
func trailingSMA(prices []float64, n int) float64 {
	start := len(prices) - n
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, p := range prices[start:] {
		sum += p
	}
	return sum / float64(len(prices)-start)
}

// trailingEMA folds an exponential moving average over the whole series
// with smoothing 2/(n+1), seeded from the first close.
func trailingEMA(prices []float64, n int) float64 {
	if len(prices) == 0 {
		return 0
	}
	k := 2.0 / float64(n+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}

// simpleRSI is the unsmoothed RSI over the trailing n changes, used by
// the lightweight advisor where Wilder smoothing is overkill.
func simpleRSI(prices []float64, n int) float64 {
	start := len(prices) - n
	if start < 1 {
		start = 1
	}
	gain, loss := 0.0, 0.0
	for i := start; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d >= 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - (100 / (1 + rs))
}
