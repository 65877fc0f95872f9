package model

// Trade is one completed round trip. Immutable once appended to the ledger.
type Trade struct {
	Symbol        string  `json:"symbol"`
	BuyTimestamp  string  `json:"buyTimestamp"`
	BuyPrice      float64 `json:"buyPrice"`
	SellTimestamp string  `json:"sellTimestamp"`
	SellPrice     float64 `json:"sellPrice"`
	ProfitOrLoss  float64 `json:"profitOrLoss"`
}

// BacktestSummary aggregates a finished run.
type BacktestSummary struct {
	RunID                string   `json:"runId"`
	InitialSymbol        string   `json:"initialSymbol"`
	StockUniverse        []string `json:"stockUniverse"`
	TotalPL              float64  `json:"totalPL"`
	TradesCount          int      `json:"tradesCount"`
	DataPointsInTimeline int      `json:"dataPointsInTimeline"`
	MeanPL               float64  `json:"meanPL"`
	MedianPL             float64  `json:"medianPL"`
	StdDevPL             float64  `json:"stdDevPL"`
	Error                string   `json:"error,omitempty"`
}

// BacktestResult is the sole output of a backtest run, owned by the caller.
type BacktestResult struct {
	Trades  []Trade         `json:"trades"`
	Summary BacktestSummary `json:"summary"`
}
