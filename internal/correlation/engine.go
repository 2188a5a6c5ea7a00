package correlation

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/timeseries"
)

const (
	highCorrThreshold     = 0.7
	negativeCorrThreshold = -0.3
	maxRollingPairs       = 5
)

// PriceHistoryProvider supplies daily bars for one ticker over a window.
type PriceHistoryProvider interface {
	GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
}

// Engine computes correlation matrices, hedge suggestions and
// diversification scores. Stateless and safe for concurrent use.
type Engine struct {
	history PriceHistoryProvider
	logger  *logrus.Entry
}

func NewEngine(history PriceHistoryProvider) *Engine {
	return &Engine{
		history: history,
		logger:  logrus.WithField("component", "correlation_engine"),
	}
}

// AnalyzeCorrelation builds the full correlation report for a
// portfolio's stock and ETF holdings. Holdings with missing or
// single-point history are skipped with a warning; fewer than two
// usable series is an input error.
func (e *Engine) AnalyzeCorrelation(
	ctx context.Context,
	portfolioID string,
	holdings []models.HoldingSnapshot,
	lookbackDays int,
) (*models.CorrelationReport, error) {
	eligible := make([]models.HoldingSnapshot, 0, len(holdings))
	for _, h := range holdings {
		if h.Ticker != "" && h.AssetClass.Correlatable() {
			eligible = append(eligible, h)
		}
	}
	if len(eligible) < 2 {
		return nil, apperrors.NewInput(
			"need at least 2 stock/ETF holdings for correlation analysis, portfolio %s has %d",
			portfolioID, len(eligible))
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)

	var (
		tickers []string
		names   []string
		returns [][]float64
	)
	sectors := make(map[string]string)
	for _, h := range eligible {
		ps, err := e.history.GetPriceHistory(ctx, h.Ticker, from, to)
		if err != nil || len(ps) < 2 {
			e.logger.WithField("ticker", h.Ticker).WithError(err).
				Warn("Insufficient price data, skipping holding")
			continue
		}
		tickers = append(tickers, h.Ticker)
		if h.Name != "" {
			names = append(names, h.Name)
		} else {
			names = append(names, h.Ticker)
		}
		returns = append(returns, timeseries.Returns(ps.Closes()))
		sectors[h.Ticker] = h.Sector
	}
	if len(tickers) < 2 {
		return nil, apperrors.NewInputWithHint(
			"Run a price history sync and retry",
			"need price data for at least 2 holdings in portfolio %s", portfolioID)
	}

	returns = timeseries.AlignTrailing(returns...)
	n := len(tickers)
	matrix := correlationMatrix(returns)

	var highly, negatively []models.CorrelatedPair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			corr := matrix[i][j]
			if corr >= highCorrThreshold {
				level := "High"
				if corr >= 0.9 {
					level = "Very High"
				}
				highly = append(highly, pair(tickers, names, i, j, corr, level))
			}
			if corr <= negativeCorrThreshold {
				level := "Moderate Hedge"
				if corr <= -0.7 {
					level = "Strong Hedge"
				}
				negatively = append(negatively, pair(tickers, names, i, j, corr, level))
			}
		}
	}
	sort.Slice(highly, func(a, b int) bool {
		return highly[a].Correlation > highly[b].Correlation
	})
	sort.Slice(negatively, func(a, b int) bool {
		return negatively[a].Correlation < negatively[b].Correlation
	})

	rolling := make(map[string]models.RollingCorrelation)
	for _, p := range topPairsByStrength(matrix, n, maxRollingPairs) {
		key := tickers[p[0]] + "/" + tickers[p[1]]
		rolling[key] = rollingCorrelation(tickers[p[0]], tickers[p[1]], returns[p[0]], returns[p[1]])
	}

	avgAbs := averageAbsCorrelation(matrix)
	score := math.Max(0, math.Min(100, (1-avgAbs)*100))

	report := &models.CorrelationReport{
		PortfolioID:               portfolioID,
		HoldingCount:              n,
		LookbackDays:              lookbackDays,
		Tickers:                   tickers,
		TickerNames:               names,
		CorrelationMatrix:         roundMatrix(matrix),
		HighlyCorrelatedPairs:     highly,
		NegativelyCorrelatedPairs: negatively,
		HedgeSuggestions:          buildHedgeSuggestions(tickers, names, sectors),
		RollingCorrelations:       rolling,
		DiversificationScore:      round4(score),
		DiversificationRating:     diversificationRating(score),
		ComputedAt:                to,
	}

	e.logger.WithFields(logrus.Fields{
		"portfolio_id": portfolioID,
		"holdings":     n,
		"score":        report.DiversificationScore,
	}).Info("Correlation report computed")

	return report, nil
}

func pair(tickers, names []string, i, j int, corr float64, level string) models.CorrelatedPair {
	return models.CorrelatedPair{
		Ticker1:     tickers[i],
		Ticker2:     tickers[j],
		Name1:       names[i],
		Name2:       names[j],
		Correlation: round4(corr),
		RiskLevel:   level,
	}
}

// correlationMatrix builds the symmetric Pearson matrix with a unit
// diagonal over already-aligned return series.
func correlationMatrix(returns [][]float64) [][]float64 {
	n := len(returns)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			corr := pearson(returns[i], returns[j])
			matrix[i][j] = corr
			matrix[j][i] = corr
		}
	}
	return matrix
}

// pearson returns 0 for degenerate inputs (short or constant series)
// instead of NaN.
func pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return 0
	}
	x, y = x[:n], y[:n]
	meanX, meanY := timeseries.Mean(x), timeseries.Mean(y)
	sumXY, sumX2, sumY2 := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		dx, dy := x[i]-meanX, y[i]-meanY
		sumXY += dx * dy
		sumX2 += dx * dx
		sumY2 += dy * dy
	}
	denom := math.Sqrt(sumX2 * sumY2)
	if denom == 0 {
		return 0
	}
	return sumXY / denom
}

// rollingCorrelation computes the pair's correlation over trailing 30,
// 90 and 252 observation windows. Windows longer than the history are
// omitted; the 1-year figure falls back to the full overlap.
func rollingCorrelation(ticker1, ticker2 string, r1, r2 []float64) models.RollingCorrelation {
	rc := models.RollingCorrelation{Ticker1: ticker1, Ticker2: ticker2}

	n := len(r1)
	if len(r2) < n {
		n = len(r2)
	}
	if n >= 30 {
		c := round4(pearson(r1[n-30:], r2[n-30:]))
		rc.Correlation30d = &c
	}
	if n >= 90 {
		c := round4(pearson(r1[n-90:], r2[n-90:]))
		rc.Correlation90d = &c
	}
	yearLen := n
	if yearLen > 252 {
		yearLen = 252
	}
	rc.Correlation1y = round4(pearson(r1[n-yearLen:], r2[n-yearLen:]))

	if rc.Correlation30d != nil {
		switch diff := *rc.Correlation30d - rc.Correlation1y; {
		case diff > 0.1:
			rc.Trend = "Increasing"
		case diff < -0.1:
			rc.Trend = "Decreasing"
		default:
			rc.Trend = "Stable"
		}
	} else {
		rc.Trend = "N/A"
	}

	return rc
}

// topPairsByStrength returns up to maxPairs index pairs ordered by
// absolute correlation descending.
func topPairsByStrength(matrix [][]float64, n, maxPairs int) [][2]int {
	var pairs [][2]int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(matrix[pairs[a][0]][pairs[a][1]]) > math.Abs(matrix[pairs[b][0]][pairs[b][1]])
	})
	if len(pairs) > maxPairs {
		pairs = pairs[:maxPairs]
	}
	return pairs
}

// averageAbsCorrelation averages |corr| over the upper triangle.
func averageAbsCorrelation(matrix [][]float64) float64 {
	n := len(matrix)
	if n < 2 {
		return 0
	}
	sum, count := 0.0, 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += math.Abs(matrix[i][j])
			count++
		}
	}
	return sum / float64(count)
}

func diversificationRating(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Moderate"
	case score >= 20:
		return "Poor"
	default:
		return "Very Poor"
	}
}

func roundMatrix(matrix [][]float64) [][]float64 {
	rounded := make([][]float64, len(matrix))
	for i, row := range matrix {
		rounded[i] = make([]float64, len(row))
		for j, v := range row {
			rounded[i][j] = round4(v)
		}
	}
	return rounded
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
