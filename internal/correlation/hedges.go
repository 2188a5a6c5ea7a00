package correlation

import "portfolio-analytics-api/internal/models"

// sectorHedge maps a GICS-style sector name to the inverse instrument
// suggested against holdings in that sector. Expected correlations are
// fixed historical estimates, not computed from data.
type sectorHedge struct {
	instrument          string
	description         string
	expectedCorrelation float64
}

var sectorHedges = map[string]sectorHedge{
	"Technology":             {"SH", "Short S&P 500 ETF - broad market hedge", -0.95},
	"Healthcare":             {"RWM", "Short Russell 2000 ETF - small-cap hedge", -0.85},
	"Financials":             {"SKF", "UltraShort Financials - sector inverse ETF", -0.90},
	"Energy":                 {"ERY", "Direxion Daily Energy Bear - energy inverse ETF", -0.90},
	"Consumer Discretionary": {"SH", "Short S&P 500 ETF - broad consumer hedge", -0.80},
	"Industrials":            {"SH", "Short S&P 500 ETF - broad industrial hedge", -0.80},
	"Materials":              {"SH", "Short S&P 500 ETF - broad materials hedge", -0.75},
	"Utilities":              {"TBT", "Short 20+ Year Treasury - rates inverse", -0.60},
	"Real Estate":            {"SRS", "UltraShort Real Estate - REIT inverse ETF", -0.85},
}

// buildHedgeSuggestions proposes per-holding hedges (sector inverse ETF
// where one is mapped, plus a protective put for every holding) and
// three whole-portfolio hedges. Duplicate instrument/ticker pairs are
// suppressed.
func buildHedgeSuggestions(tickers, names []string, sectors map[string]string) []models.HedgeSuggestion {
	var suggestions []models.HedgeSuggestion
	seen := make(map[string]bool)

	for i, ticker := range tickers {
		if hedge, ok := sectorHedges[sectors[ticker]]; ok {
			key := hedge.instrument + "-" + ticker
			if !seen[key] {
				seen[key] = true
				suggestions = append(suggestions, models.HedgeSuggestion{
					HoldingTicker:       ticker,
					HoldingName:         names[i],
					HedgeType:           "Inverse ETF",
					HedgeInstrument:     hedge.instrument,
					Description:         hedge.description,
					ExpectedCorrelation: hedge.expectedCorrelation,
				})
			}
		}

		suggestions = append(suggestions, models.HedgeSuggestion{
			HoldingTicker:       ticker,
			HoldingName:         names[i],
			HedgeType:           "Put Option",
			HedgeInstrument:     ticker + " PUT",
			Description:         "Protective put on " + ticker + " - limits downside while preserving upside",
			ExpectedCorrelation: -1.0,
		})
	}

	if len(tickers) > 0 {
		suggestions = append(suggestions,
			models.HedgeSuggestion{
				HoldingTicker:       "PORTFOLIO",
				HoldingName:         "Entire Portfolio",
				HedgeType:           "Volatility",
				HedgeInstrument:     "VXX",
				Description:         "iPath VIX Short-Term Futures - rises when market fear increases",
				ExpectedCorrelation: -0.80,
			},
			models.HedgeSuggestion{
				HoldingTicker:       "PORTFOLIO",
				HoldingName:         "Entire Portfolio",
				HedgeType:           "Uncorrelated Asset",
				HedgeInstrument:     "GLD",
				Description:         "SPDR Gold Trust - historically low correlation with equities",
				ExpectedCorrelation: -0.10,
			},
			models.HedgeSuggestion{
				HoldingTicker:       "PORTFOLIO",
				HoldingName:         "Entire Portfolio",
				HedgeType:           "Uncorrelated Asset",
				HedgeInstrument:     "TLT",
				Description:         "iShares 20+ Year Treasury Bond - traditional equity/bond diversification",
				ExpectedCorrelation: -0.30,
			},
		)
	}

	return suggestions
}
