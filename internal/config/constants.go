package config

// Strategy constants. Fixed values; changing them changes every signal the
// tracker and scanner emit.
const (
	// Phi is the golden ratio. The tolerated pullback during a climb is the
	// accumulated gain divided by Phi.
	Phi = 1.61803398875

	// SellOffToleranceFactor is the fraction of the accumulated climb gain
	// given back before a SELL fires.
	SellOffToleranceFactor = 1 / Phi

	// NewStockClimbPercentageMax caps how far a candidate's current 15-minute
	// leg may have run relative to its previous leg. Candidates beyond the cap
	// have already rallied most of the move.
	NewStockClimbPercentageMax = 0.50

	// DefaultNumMonths is the default backtest window.
	DefaultNumMonths = 1

	// DefaultInterval is the default bar interval.
	DefaultInterval = "1min"
)

// DefaultUniverse is the symbol universe scanned when none is configured.
var DefaultUniverse = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"}

// ValidIntervals enumerates the bar intervals the data source supports.
var ValidIntervals = map[string]bool{
	"1min":  true,
	"5min":  true,
	"15min": true,
	"30min": true,
	"60min": true,
}
