package recorder

import (
	"time"

	"StockSentinel/internal/model"
)

// ScanRecord is one persisted outcome of a scheduled universe scan.
type ScanRecord struct {
	ScannedAt time.Time
	Symbol    string
	Analysis  model.ScanAnalysis
	Accepted  bool
	Reason    string
}

// Recorder persists backtest runs and scan outcomes for later analysis.
type Recorder interface {
	RecordRun(result *model.BacktestResult) error
	RecordScan(rec *ScanRecord) error
	Close() error
}
