package scanner

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"StockSentinel/internal/fetcher"
	"StockSentinel/internal/model"
	"StockSentinel/internal/ratelimit"
)

// seriesFromCloses builds a one-minute series ending at 10:00 with the given
// closing prices in chronological order.
func seriesFromCloses(closes []float64) model.TimeSeries {
	series := make(model.TimeSeries, len(closes))
	for i, c := range closes {
		ts := fmt.Sprintf("2024-03-01 %02d:%02d:00", 9+(i+60-len(closes))/60, (i+60-len(closes))%60)
		series[ts] = model.PriceTick{Timestamp: ts, Close: c}
	}
	return series
}

// rampCloses returns count closes where the last 30 rise from 100 to 105
// over the first 15 and from 105 to 110 over the most recent 15.
func rampCloses(count int) []float64 {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = 100
	}
	for i := 0; i < 31; i++ {
		closes[count-31+i] = 100 + float64(i)/3.0
	}
	return closes
}

func TestAnalyzeRecentClimb_TwoRisingWindows(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	mock.Compact["AAPL"] = seriesFromCloses(rampCloses(35))
	s := New(mock, ratelimit.Nop{})

	a := s.AnalyzeRecentClimb(context.Background(), "AAPL")
	if a.Err != "" {
		t.Fatalf("unexpected error: %s", a.Err)
	}
	if math.Abs(a.GainCurrent15Min-5) > 1e-9 {
		t.Errorf("current gain: %v, want ~5", a.GainCurrent15Min)
	}
	if math.Abs(a.GainPrevious15Min-5) > 1e-9 {
		t.Errorf("previous gain: %v, want ~5", a.GainPrevious15Min)
	}
	if !a.IsCurrentlyClimbing {
		t.Error("expected is_currently_climbing")
	}
	if math.Abs(a.LatestPrice-110) > 1e-9 {
		t.Errorf("latest price: %v, want 110", a.LatestPrice)
	}
}

func TestAnalyzeRecentClimb_InsufficientData(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	mock.Compact["AAPL"] = seriesFromCloses([]float64{100, 101, 102})
	s := New(mock, ratelimit.Nop{})

	a := s.AnalyzeRecentClimb(context.Background(), "AAPL")
	if a.Err != "insufficient data" {
		t.Errorf("error: %q, want insufficient data", a.Err)
	}
	if a.GainCurrent15Min != 0 || a.GainPrevious15Min != 0 || a.LatestPrice != 0 || a.IsCurrentlyClimbing {
		t.Error("numeric fields must be zeroed on error")
	}
}

func TestAnalyzeRecentClimb_FetchError(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	s := New(mock, ratelimit.Nop{})

	a := s.AnalyzeRecentClimb(context.Background(), "MISSING")
	if a.Err == "" {
		t.Error("expected error for failed fetch")
	}
}

func TestAnalyzeRecentClimb_NaNIsHardError(t *testing.T) {
	closes := rampCloses(35)
	closes[10] = math.NaN()
	mock := fetcher.NewMockFetcher()
	mock.Compact["AAPL"] = seriesFromCloses(closes)
	s := New(mock, ratelimit.Nop{})

	a := s.AnalyzeRecentClimb(context.Background(), "AAPL")
	if a.Err == "" {
		t.Fatal("expected hard error for NaN price")
	}
	if a.GainCurrent15Min != 0 || a.GainPrevious15Min != 0 {
		t.Error("no partial result allowed on NaN")
	}
}

// steadyThenSlowerCloses produces a prior 15-bar leg of gain `prev` and a
// current leg of gain `current`.
func steadyThenSlowerCloses(prev, current float64) []float64 {
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
	return closes
}

func TestFindCandidate_FirstQualifyingInOrder(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	// MSFT and NVDA both qualify; MSFT is listed first and must win.
	mock.Compact["AAPL"] = seriesFromCloses(steadyThenSlowerCloses(4, 4)) // ran too far
	mock.Compact["MSFT"] = seriesFromCloses(steadyThenSlowerCloses(4, 1))
	mock.Compact["NVDA"] = seriesFromCloses(steadyThenSlowerCloses(4, 1))
	s := New(mock, ratelimit.Nop{})

	sym, ok := s.FindCandidate(context.Background(), []string{"AAPL", "MSFT", "NVDA"})
	if !ok || sym != "MSFT" {
		t.Fatalf("candidate: %q %v, want MSFT", sym, ok)
	}
	// NVDA must never have been fetched.
	for _, call := range mock.Calls {
		if call == "NVDA" {
			t.Error("later-listed candidate evaluated after a match")
		}
	}
}

func TestFindCandidate_RejectionReasons(t *testing.T) {
	tests := []struct {
		name   string
		a      model.ScanAnalysis
		reason string
	}{
		{"error", model.ScanAnalysis{Err: "boom"}, "analysis error"},
		{"not climbing", model.ScanAnalysis{GainCurrent15Min: -1, GainPrevious15Min: 2}, "not currently climbing"},
		{"previous flat", model.ScanAnalysis{GainCurrent15Min: 1, GainPrevious15Min: 0, IsCurrentlyClimbing: true}, "previous window was not a climb"},
		{"ran too far", model.ScanAnalysis{GainCurrent15Min: 3, GainPrevious15Min: 4, IsCurrentlyClimbing: true}, "run too far"},
	}
	s := New(fetcher.NewMockFetcher(), ratelimit.Nop{})
	for _, tt := range tests {
		ok, reason := s.Evaluate(tt.a)
		if ok {
			t.Errorf("%s: expected rejection", tt.name)
		}
		if !strings.Contains(reason, tt.reason) {
			t.Errorf("%s: reason %q does not mention %q", tt.name, reason, tt.reason)
		}
	}
}

func TestFindCandidate_BoundaryAtClimbPercentageMax(t *testing.T) {
	// current == previous * 0.50 exactly still qualifies.
	a := model.ScanAnalysis{GainCurrent15Min: 2, GainPrevious15Min: 4, IsCurrentlyClimbing: true}
	s := New(fetcher.NewMockFetcher(), ratelimit.Nop{})
	if ok, reason := s.Evaluate(a); !ok {
		t.Errorf("boundary candidate rejected: %s", reason)
	}
}

func TestFindCandidate_NoneQualify(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	s := New(mock, ratelimit.Nop{})
	if sym, ok := s.FindCandidate(context.Background(), []string{"AAPL", "MSFT"}); ok {
		t.Errorf("expected no candidate, got %s", sym)
	}
}

func TestFindCandidate_WaitsBetweenEvaluations(t *testing.T) {
	mock := fetcher.NewMockFetcher()
	counter := &countingLimiter{}
	s := New(mock, counter)
	s.FindCandidate(context.Background(), []string{"AAPL", "MSFT", "GOOGL"})
	if counter.n != 3 {
		t.Errorf("limiter waits: %d, want one per evaluation", counter.n)
	}
}

type countingLimiter struct{ n int }

func (c *countingLimiter) Wait(_ context.Context) error {
	c.n++
	return nil
}
