package model

// Signal is the tracker's per-tick verdict.
type Signal string

const (
	SignalHold Signal = "HOLD"
	SignalSell Signal = "SELL"
)

// TrackerStatus is the climb-detection state of a tracker.
type TrackerStatus string

const (
	StatusIdle          TrackerStatus = "IDLE"
	StatusClimbing      TrackerStatus = "CLIMBING"
	StatusPeakedDipping TrackerStatus = "PEAKED_DIPPING"
)

// ScanAnalysis is the result of a recent-climb analysis for one symbol.
// Transient: produced and consumed within a single scan, never persisted
// except as a flattened scan record.
type ScanAnalysis struct {
	GainCurrent15Min    float64 `json:"gain_current_15min"`
	GainPrevious15Min   float64 `json:"gain_previous_15min"`
	IsCurrentlyClimbing bool    `json:"is_currently_climbing"`
	LatestPrice         float64 `json:"latest_price"`
	Err                 string  `json:"error,omitempty"`
}
