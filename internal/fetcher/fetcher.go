package fetcher

import (
	"context"
	"errors"

	"StockSentinel/internal/model"
)

// ErrNoData marks a recoverable absence: HTTP failure, malformed month,
// empty or unparseable series. Callers treat it as an empty slice.
var ErrNoData = errors.New("no intraday data")

// ErrMissingAPIKey is fatal for a run: no fetch can succeed without a key.
var ErrMissingAPIKey = errors.New("data source api key is not set")

// IntradayFetcher fetches one slice of intraday bars for a symbol.
// month selects a full calendar month ("2024-03"); an empty month requests
// the most recent compact window (about 100 bars).
type IntradayFetcher interface {
	FetchIntraday(ctx context.Context, symbol, month, interval string) (model.TimeSeries, error)
	Name() string
}
