package strategy

import "portfolio-analytics-api/internal/models"

// Catalog returns the predefined strategy definitions exposed by the
// API. The list is static; parameters document the tunables each
// backtest accepts.
func Catalog() []models.StrategyDefinition {
	return []models.StrategyDefinition{
		{
			ID:          "sma_crossover",
			Name:        "SMA Crossover",
			Category:    "Trend Following",
			Description: "Buy when short-term SMA crosses above long-term SMA, sell on reverse cross.",
			RiskLevel:   "Medium",
			SuitableFor: []string{"Growth-oriented", "Trend traders"},
			Parameters: []models.StrategyParameter{
				{Name: "shortPeriod", Label: "Short SMA Period", Type: "int", Default: "20", Description: "Short moving average window"},
				{Name: "longPeriod", Label: "Long SMA Period", Type: "int", Default: "50", Description: "Long moving average window"},
			},
		},
		{
			ID:          "mean_reversion",
			Name:        "Mean Reversion",
			Category:    "Mean Reversion",
			Description: "Buy when price drops below lower Bollinger Band, sell when above upper band.",
			RiskLevel:   "Medium",
			SuitableFor: []string{"Value investors", "Range-bound markets"},
			Parameters: []models.StrategyParameter{
				{Name: "period", Label: "Bollinger Period", Type: "int", Default: "20", Description: "Lookback window"},
				{Name: "stdDev", Label: "Std Dev Multiplier", Type: "double", Default: "2.0", Description: "Band width"},
			},
		},
		{
			ID:          "momentum",
			Name:        "Momentum",
			Category:    "Momentum",
			Description: "Buy assets with strong recent performance (high RSI trend), sell weak performers.",
			RiskLevel:   "High",
			SuitableFor: []string{"Aggressive traders", "Bull markets"},
			Parameters: []models.StrategyParameter{
				{Name: "rsiPeriod", Label: "RSI Period", Type: "int", Default: "14", Description: "RSI lookback"},
				{Name: "buyThreshold", Label: "Buy RSI Threshold", Type: "int", Default: "30", Description: "Buy when RSI below this"},
				{Name: "sellThreshold", Label: "Sell RSI Threshold", Type: "int", Default: "70", Description: "Sell when RSI above this"},
			},
		},
		{
			ID:          "dividend_yield",
			Name:        "Dividend Yield",
			Category:    "Income",
			Description: "Focus on high-dividend stocks, buy when yield exceeds threshold.",
			RiskLevel:   "Low",
			SuitableFor: []string{"Income seekers", "Conservative investors"},
			Parameters: []models.StrategyParameter{
				{Name: "minYield", Label: "Min Dividend Yield %", Type: "double", Default: "3.0", Description: "Minimum annual yield"},
			},
		},
		{
			ID:          "dca",
			Name:        "Dollar Cost Averaging",
			Category:    "Passive",
			Description: "Invest fixed amount at regular intervals regardless of price.",
			RiskLevel:   "Low",
			SuitableFor: []string{"Long-term investors", "Beginners"},
			Parameters: []models.StrategyParameter{
				{Name: "intervalDays", Label: "Investment Interval (days)", Type: "int", Default: "30", Description: "Days between investments"},
			},
		},
		{
			ID:          "risk_parity",
			Name:        "Risk Parity",
			Category:    "Portfolio Optimization",
			Description: "Allocate capital inversely proportional to asset volatility for equal risk contribution.",
			RiskLevel:   "Low",
			SuitableFor: []string{"Institutional investors", "Balanced portfolios"},
			Parameters: []models.StrategyParameter{
				{Name: "volWindow", Label: "Volatility Window", Type: "int", Default: "60", Description: "Days for volatility calculation"},
			},
		},
	}
}

// strategyName resolves a strategy ID to its display name, falling back
// to the ID itself for unknown strategies.
func strategyName(id string) string {
	for _, s := range Catalog() {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}
