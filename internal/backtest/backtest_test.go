package backtest

import (
	"context"
	"fmt"
	"math"
	"testing"

	"StockSentinel/internal/fetcher"
	"StockSentinel/internal/model"
	"StockSentinel/internal/ratelimit"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scanner"
)

func newTestRunner(mock *fetcher.MockFetcher) *Runner {
	sc := scanner.New(mock, ratelimit.Nop{})
	return NewRunner(mock, sc, ratelimit.Nop{}, recorder.NewNoopRecorder())
}

// monthSeries builds a series for the given month with one bar per minute
// starting at 09:30 on day 1.
func monthSeries(month string, closes ...float64) model.TimeSeries {
	series := make(model.TimeSeries, len(closes))
	for i, c := range closes {
		ts := fmt.Sprintf("%s-01 09:%02d:00", month, 30+i)
		series[ts] = model.PriceTick{Timestamp: ts, Close: c}
	}
	return series
}

func TestRun_SingleSymbolSellAndSummary(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	// Reference climb: buy at 100, peak 103, sell at 101.0.
	mock.Monthly["AAPL|2024-03"] = monthSeries("2024-03", 100, 100, 101, 102, 103, 102.5, 101.5, 101.0)
	r := newTestRunner(mock)

	result := r.Run(context.Background(), Params{
		InitialSymbol: "AAPL",
		NumMonths:     1,
		EndMonth:      "2024-03",
		Universe:      []string{"AAPL"},
	})

	if result.Summary.Error != "" {
		t.Fatalf("unexpected error: %s", result.Summary.Error)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("trades: %d, want 1", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.Symbol != "AAPL" || trade.BuyPrice != 100 || trade.SellPrice != 101.0 {
		t.Errorf("unexpected trade: %+v", trade)
	}
	if math.Abs(trade.ProfitOrLoss-1.0) > 1e-9 {
		t.Errorf("P/L: %v, want 1.0", trade.ProfitOrLoss)
	}
	if result.Summary.TotalPL != trade.ProfitOrLoss {
		t.Errorf("totalPL: %v", result.Summary.TotalPL)
	}
	if result.Summary.TradesCount != 1 {
		t.Errorf("tradesCount: %d", result.Summary.TradesCount)
	}
	if result.Summary.DataPointsInTimeline != 8 {
		t.Errorf("dataPointsInTimeline: %d, want 8", result.Summary.DataPointsInTimeline)
	}
	if result.Summary.RunID == "" {
		t.Error("missing run id")
	}
}

func TestRun_NoDataForEntireUniverse(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	r := newTestRunner(mock)

	result := r.Run(context.Background(), Params{
		InitialSymbol: "AAPL",
		EndMonth:      "2024-03",
		Universe:      []string{"AAPL", "MSFT"},
	})

	if result.Summary.Error == "" {
		t.Fatal("expected terminal error with no data anywhere")
	}
	if len(result.Trades) != 0 {
		t.Errorf("trades: %d, want 0", len(result.Trades))
	}
}

func TestRun_MissingAPIKeyAbortsRun(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	mock.Errs["AAPL|2024-03"] = fetcher.ErrMissingAPIKey
	r := newTestRunner(mock)

	result := r.Run(context.Background(), Params{
		InitialSymbol: "AAPL",
		EndMonth:      "2024-03",
		Universe:      []string{"AAPL", "MSFT"},
	})

	if result.Summary.Error != fetcher.ErrMissingAPIKey.Error() {
		t.Errorf("error: %q, want %q", result.Summary.Error, fetcher.ErrMissingAPIKey.Error())
	}
	// The run must abort before touching the rest of the universe.
	for _, call := range mock.Calls {
		if call == "MSFT|2024-03" {
			t.Error("fetched another symbol after fatal config error")
		}
	}
}

func TestRun_DataGapHoldsPosition(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	// AAPL has bars at minutes 30-33 and 36-37; MSFT fills 34-35 so the
	// unified timeline contains gap timestamps for AAPL.
	aapl := monthSeries("2024-03", 100, 101, 102, 103)
	for ts, tick := range monthSeries("2024-03", 0, 0, 0, 0, 0, 0, 99, 98.0) {
		if tick.Close != 0 {
			aapl[ts] = tick
		}
	}
	mock.Monthly["AAPL|2024-03"] = aapl
	mock.Monthly["MSFT|2024-03"] = model.TimeSeries{
		"2024-03-01 09:34:00": {Timestamp: "2024-03-01 09:34:00", Close: 50},
		"2024-03-01 09:35:00": {Timestamp: "2024-03-01 09:35:00", Close: 51},
	}
	r := newTestRunner(mock)

	result := r.Run(context.Background(), Params{
		InitialSymbol: "AAPL",
		EndMonth:      "2024-03",
		Universe:      []string{"AAPL", "MSFT"},
	})

	if result.Summary.Error != "" {
		t.Fatalf("unexpected error: %s", result.Summary.Error)
	}
	// Climb 100->103, gap, then 99 and 98: threshold 103 - 3/phi ≈ 101.15,
	// so the first post-gap bar sells. The gap itself must not trade.
	if len(result.Trades) != 1 {
		t.Fatalf("trades: %d, want 1", len(result.Trades))
	}
	if result.Trades[0].SellTimestamp != "2024-03-01 09:36:00" {
		t.Errorf("sell timestamp: %s", result.Trades[0].SellTimestamp)
	}
}

func TestRun_SwitchesSymbolAfterSell(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	// AAPL climbs then sells early in the timeline.
	mock.Monthly["AAPL|2024-03"] = monthSeries("2024-03", 100, 103, 101.0)
	// MSFT has bars later in the timeline to adopt after the sell.
	msft := model.TimeSeries{}
	for i, c := range []float64{50, 50.5, 51, 50.9} {
		ts := fmt.Sprintf("2024-03-01 09:%02d:00", 40+i)
		msft[ts] = model.PriceTick{Timestamp: ts, Close: c}
	}
	mock.Monthly["MSFT|2024-03"] = msft
	// Compact data so the post-sell scan accepts MSFT: previous leg +4,
	// current leg +1.
	mock.Compact["MSFT"] = compactRamp(4, 1)
	r := newTestRunner(mock)

	result := r.Run(context.Background(), Params{
		InitialSymbol: "AAPL",
		EndMonth:      "2024-03",
		Universe:      []string{"AAPL", "MSFT"},
	})

	if len(result.Trades) != 1 {
		t.Fatalf("trades: %d, want 1 (MSFT never sells)", len(result.Trades))
	}
	if result.Trades[0].Symbol != "AAPL" {
		t.Errorf("first trade symbol: %s", result.Trades[0].Symbol)
	}
	// The scan after the sell must exclude AAPL and evaluate MSFT.
	var sawCompactMSFT, sawCompactAAPL bool
	for _, call := range mock.Calls {
		switch call {
		case "MSFT":
			sawCompactMSFT = true
		case "AAPL":
			sawCompactAAPL = true
		}
	}
	if !sawCompactMSFT {
		t.Error("post-sell scan never evaluated MSFT")
	}
	if sawCompactAAPL {
		t.Error("post-sell scan evaluated the just-sold symbol")
	}
}

// compactRamp builds 40 compact closes with a prior 15-bar leg of gain prev
// and a current 15-bar leg of gain current.
func compactRamp(prev, current float64) model.TimeSeries {
	closes := make([]float64, 40)
	for i := 0; i < 10; i++ {
		closes[i] = 100
	}
	for i := 0; i < 15; i++ {
		closes[10+i] = 100 + prev*float64(i+1)/15
	}
	for i := 0; i < 15; i++ {
		closes[25+i] = 100 + prev + current*float64(i+1)/15
	}
	series := make(model.TimeSeries, len(closes))
	for i, c := range closes {
		ts := fmt.Sprintf("2024-03-01 10:%02d:00", i)
		series[ts] = model.PriceTick{Timestamp: ts, Close: c}
	}
	return series
}

func TestMonthsEndingAt(t *testing.T) {
	months, err := monthsEndingAt("2024-03", 3)
	if err != nil {
		t.Fatalf("monthsEndingAt: %v", err)
	}
	want := []string{"2024-01", "2024-02", "2024-03"}
	for i, m := range want {
		if months[i] != m {
			t.Errorf("months[%d]: %s, want %s", i, months[i], m)
		}
	}

	if _, err := monthsEndingAt("bogus", 1); err == nil {
		t.Error("expected error for malformed month")
	}
}

func TestRun_EmptyInitialSymbol(t *testing.T) {
	r := newTestRunner(fetcher.NewMockFetcher())
	result := r.Run(context.Background(), Params{})
	if result.Summary.Error == "" {
		t.Error("expected error for missing initial symbol")
	}
}
