package risk

// StressShock is one hypothetical market decline, expressed as a
// percentage move in the broad market. The magnitudes are fixed
// historical approximations kept as configuration so they can be
// swapped without touching the engine.
type StressShock struct {
	Name           string
	Description    string
	MarketShockPct float64
}

// DefaultStressScenarios returns the standard shock table applied to
// every risk report, scaled by portfolio beta at evaluation time.
func DefaultStressScenarios() []StressShock {
	return []StressShock{
		{
			Name:           "2008 Financial Crisis",
			Description:    "Simulates the 2007-2009 subprime mortgage crisis and bank failures",
			MarketShockPct: -56.8,
		},
		{
			Name:           "COVID-19 Crash (2020)",
			Description:    "Simulates the rapid market selloff in Feb-Mar 2020",
			MarketShockPct: -33.9,
		},
		{
			Name:           "Dot-com Bubble (2000-2002)",
			Description:    "Simulates the technology bubble burst of early 2000s",
			MarketShockPct: -49.1,
		},
		{
			Name:           "Black Monday (1987)",
			Description:    "Simulates the Oct 19, 1987 single-day market crash",
			MarketShockPct: -22.6,
		},
		{
			Name:           "Interest Rate Shock (+300bps)",
			Description:    "Simulates a sudden 300 basis point increase in interest rates",
			MarketShockPct: -20.0,
		},
	}
}
