// Package scanner screens a symbol universe for fresh-climb entry candidates.
package scanner

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/config"
	"StockSentinel/internal/fetcher"
	"StockSentinel/internal/model"
	"StockSentinel/internal/ratelimit"
)

const (
	// minDataPoints is the minimum number of closes a climb analysis needs:
	// two back-to-back 15-minute windows plus the latest bar.
	minDataPoints = 30

	windowSpan = 15
)

// Scanner analyzes recent intraday data for re-entry candidates.
type Scanner struct {
	fetcher  fetcher.IntradayFetcher
	limiter  ratelimit.Limiter
	interval string
}

// New creates a Scanner. The limiter paces per-symbol evaluations as a
// courtesy toward the data source.
func New(f fetcher.IntradayFetcher, limiter ratelimit.Limiter) *Scanner {
	return &Scanner{fetcher: f, limiter: limiter, interval: config.DefaultInterval}
}

// AnalyzeRecentClimb fetches the most recent compact window for symbol and
// computes the two back-to-back 15-minute gains. Errors are reported in the
// analysis, never thrown: a failed fetch, a short series, and a non-finite
// price all yield an analysis with Err set and numeric fields zeroed.
func (s *Scanner) AnalyzeRecentClimb(ctx context.Context, symbol string) model.ScanAnalysis {
	series, err := s.fetcher.FetchIntraday(ctx, symbol, "", s.interval)
	if err != nil {
		return model.ScanAnalysis{Err: err.Error()}
	}

	timestamps := series.SortedTimestamps()
	ticks := make([]model.PriceTick, 0, len(timestamps))
	for _, ts := range timestamps {
		ticks = append(ticks, series[ts])
	}
	closes := calculator.Closes(ticks)

	if len(closes) < minDataPoints {
		return model.ScanAnalysis{Err: "insufficient data"}
	}
	if err := calculator.ValidateFinite(closes); err != nil {
		// Hard error, no partial result.
		return model.ScanAnalysis{Err: err.Error()}
	}

	current, err := calculator.WindowGain(closes, 0, windowSpan)
	if err != nil {
		return model.ScanAnalysis{Err: err.Error()}
	}
	previous, err := calculator.WindowGain(closes, windowSpan, windowSpan)
	if err != nil {
		return model.ScanAnalysis{Err: err.Error()}
	}

	return model.ScanAnalysis{
		GainCurrent15Min:    current,
		GainPrevious15Min:   previous,
		IsCurrentlyClimbing: current > 0,
		LatestPrice:         closes[len(closes)-1],
	}
}

// Evaluate applies the candidate acceptance criteria to an analysis and
// returns the failing reason when it does not qualify.
func (s *Scanner) Evaluate(a model.ScanAnalysis) (bool, string) {
	switch {
	case a.Err != "":
		return false, fmt.Sprintf("analysis error: %s", a.Err)
	case !a.IsCurrentlyClimbing:
		return false, "not currently climbing"
	case a.GainPrevious15Min <= 0:
		return false, "previous window was not a climb"
	case a.GainCurrent15Min > a.GainPrevious15Min*config.NewStockClimbPercentageMax:
		return false, fmt.Sprintf("current leg has run too far (%.4f > %.4f * %.2f)",
			a.GainCurrent15Min, a.GainPrevious15Min, config.NewStockClimbPercentageMax)
	}
	return true, ""
}

// WaitTurn blocks on the scanner's rate limiter. Exposed for callers that
// drive per-symbol analysis themselves rather than through FindCandidate.
func (s *Scanner) WaitTurn(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

// FindCandidate walks symbols in order and returns the first one that
// qualifies. Every evaluation, pass or fail, waits on the limiter before the
// next symbol is touched.
func (s *Scanner) FindCandidate(ctx context.Context, symbols []string) (string, bool) {
	for _, symbol := range symbols {
		analysis := s.AnalyzeRecentClimb(ctx, symbol)
		ok, reason := s.Evaluate(analysis)

		if err := s.limiter.Wait(ctx); err != nil {
			log.Warnf("candidate scan aborted: %v", err)
			return "", false
		}
		if ok {
			log.Infof("candidate found: %s (current=%.4f previous=%.4f)",
				symbol, analysis.GainCurrent15Min, analysis.GainPrevious15Min)
			return symbol, true
		}
		log.Infof("candidate rejected: %s: %s", symbol, reason)
	}
	return "", false
}
