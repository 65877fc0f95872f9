package fetcher

import (
	"context"
	"fmt"

	"StockSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Monthly slices are keyed "SYMBOL|YYYY-MM", compact slices by bare symbol.
type MockFetcher struct {
	Monthly map[string]model.TimeSeries
	Compact map[string]model.TimeSeries
	Errs    map[string]error
	Calls   []string
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Monthly: map[string]model.TimeSeries{},
		Compact: map[string]model.TimeSeries{},
		Errs:    map[string]error{},
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchIntraday(_ context.Context, symbol, month, _ string) (model.TimeSeries, error) {
	key := symbol
	if month != "" {
		key = symbol + "|" + month
	}
	m.Calls = append(m.Calls, key)

	if err, ok := m.Errs[key]; ok {
		return nil, err
	}
	if month == "" {
		if series, ok := m.Compact[symbol]; ok {
			return series, nil
		}
	} else if series, ok := m.Monthly[key]; ok {
		return series, nil
	}
	return nil, fmt.Errorf("%w: no mock data for %s", ErrNoData, key)
}
