// Package backtest simulates momentum trading over historical intraday data,
// switching symbols dynamically as the scanner finds new candidates.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"

	"StockSentinel/internal/config"
	"StockSentinel/internal/fetcher"
	"StockSentinel/internal/model"
	"StockSentinel/internal/ratelimit"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scanner"
	"StockSentinel/internal/tracker"
)

// scanThrottle is the minimum simulated time between universe scans while
// flat. Keyed off simulated timestamps, not wall-clock time, so a run is
// reproducible regardless of host speed.
const scanThrottle = time.Minute

// Params configures one backtest run. Zero fields fall back to defaults.
type Params struct {
	InitialSymbol string
	NumMonths     int
	EndMonth      string // "2006-01"; empty means the most recently completed month
	Universe      []string
	Interval      string
}

func (p *Params) applyDefaults(now time.Time) {
	if p.NumMonths <= 0 {
		p.NumMonths = config.DefaultNumMonths
	}
	if len(p.Universe) == 0 {
		p.Universe = append([]string(nil), config.DefaultUniverse...)
	}
	if p.Interval == "" {
		p.Interval = config.DefaultInterval
	}
	if p.EndMonth == "" {
		p.EndMonth = now.AddDate(0, -1, 0).Format("2006-01")
	}
}

// Runner owns the collaborators of a backtest. All mutable simulation state
// is local to a single Run call; a Runner can serve sequential runs.
type Runner struct {
	fetcher  fetcher.IntradayFetcher
	scanner  *scanner.Scanner
	limiter  ratelimit.Limiter
	recorder recorder.Recorder
}

// NewRunner creates a Runner.
func NewRunner(f fetcher.IntradayFetcher, sc *scanner.Scanner, limiter ratelimit.Limiter, rec recorder.Recorder) *Runner {
	return &Runner{fetcher: f, scanner: sc, limiter: limiter, recorder: rec}
}

// Run executes a full portfolio backtest: fetch the universe's history,
// unify the timelines, and walk them once. Expected failure modes (missing
// API key, no data anywhere) are reported in the summary, not returned as
// errors.
func (r *Runner) Run(ctx context.Context, params Params) *model.BacktestResult {
	params.applyDefaults(time.Now())

	if params.InitialSymbol == "" {
		return &model.BacktestResult{
			Trades:  []model.Trade{},
			Summary: model.BacktestSummary{Error: "initial symbol is required"},
		}
	}

	result := &model.BacktestResult{
		Trades: []model.Trade{},
		Summary: model.BacktestSummary{
			RunID:         uuid.New().String(),
			InitialSymbol: params.InitialSymbol,
			StockUniverse: params.Universe,
		},
	}

	seriesBySymbol, timeline, err := r.acquireData(ctx, params)
	if err != nil {
		result.Summary.Error = err.Error()
		r.record(result)
		return result
	}

	result.Summary.DataPointsInTimeline = len(timeline)
	log.Infof("backtest %s: %d symbols, %d timeline points",
		result.Summary.RunID, len(seriesBySymbol), len(timeline))

	r.simulate(ctx, params, seriesBySymbol, timeline, result)
	r.summarize(result)
	r.record(result)
	return result
}

// acquireData fetches every symbol's months and merges all timestamps into
// one chronological timeline. A missing month is an empty slice; only zero
// data across the whole universe is fatal.
func (r *Runner) acquireData(ctx context.Context, params Params) (map[string]model.TimeSeries, []string, error) {
	months, err := monthsEndingAt(params.EndMonth, params.NumMonths)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end month %q", params.EndMonth)
	}

	symbols := withSymbol(params.Universe, params.InitialSymbol)
	manyCalls := len(symbols)*len(months) > 2

	seriesBySymbol := make(map[string]model.TimeSeries, len(symbols))
	timestampSet := make(map[string]struct{})

	first := true
	for _, symbol := range symbols {
		merged := model.TimeSeries{}
		for _, month := range months {
			if manyCalls && !first {
				if err := r.limiter.Wait(ctx); err != nil {
					return nil, nil, fmt.Errorf("data acquisition aborted: %w", err)
				}
			}
			first = false

			slice, err := r.fetcher.FetchIntraday(ctx, symbol, month, params.Interval)
			if err != nil {
				if errors.Is(err, fetcher.ErrMissingAPIKey) {
					return nil, nil, err
				}
				log.Warnf("no data for %s %s: %v", symbol, month, err)
				continue
			}
			for ts, tick := range slice {
				merged[ts] = tick
				timestampSet[ts] = struct{}{}
			}
		}
		if len(merged) > 0 {
			seriesBySymbol[symbol] = merged
			log.Infof("fetched %s: %d bars across %d month(s)", symbol, len(merged), len(months))
		}
	}

	if len(timestampSet) == 0 {
		return nil, nil, errors.New("no intraday data available for any symbol in the universe")
	}

	timeline := make([]string, 0, len(timestampSet))
	for ts := range timestampSet {
		timeline = append(timeline, ts)
	}
	sort.Strings(timeline)
	return seriesBySymbol, timeline, nil
}

// simulate walks the unified timeline once, driving one tracker at a time.
func (r *Runner) simulate(ctx context.Context, params Params, seriesBySymbol map[string]model.TimeSeries, timeline []string, result *model.BacktestResult) {
	currentSymbol := params.InitialSymbol
	currentTracker := tracker.New(currentSymbol)
	holding := false
	var buyPrice float64
	var buyTimestamp string
	var lastScanAt time.Time

	scanDue := func(ts string) bool {
		simTime, err := time.Parse(model.TimestampLayout, ts)
		if err != nil {
			return true
		}
		return lastScanAt.IsZero() || simTime.Sub(lastScanAt) >= scanThrottle
	}
	markScan := func(ts string) {
		if simTime, err := time.Parse(model.TimestampLayout, ts); err == nil {
			lastScanAt = simTime
		}
	}

	for _, ts := range timeline {
		var tick model.PriceTick
		var haveTick bool
		if currentSymbol != "" {
			tick, haveTick = seriesBySymbol[currentSymbol][ts]
		}

		if !holding {
			switch {
			case currentSymbol != "" && haveTick:
				if math.IsNaN(tick.Close) || math.IsInf(tick.Close, 0) {
					log.Warnf("skipping buy of %s at %s: invalid close", currentSymbol, ts)
					continue
				}
				buyPrice = tick.Close
				buyTimestamp = ts
				holding = true
				// Climb-initializing sample.
				currentTracker.ProcessTick(tick)
				log.Infof("buy %s at %s price=%.4f", currentSymbol, ts, buyPrice)

			case currentSymbol == "" && scanDue(ts):
				markScan(ts)
				if sym, ok := r.scanner.FindCandidate(ctx, params.Universe); ok {
					currentSymbol = sym
					currentTracker = tracker.New(sym)
				}
			}
			continue
		}

		// Holding: a missing bar is a data gap, hold the position silently.
		if !haveTick {
			continue
		}

		if currentTracker.ProcessTick(tick) == model.SignalSell {
			trade := model.Trade{
				Symbol:        currentSymbol,
				BuyTimestamp:  buyTimestamp,
				BuyPrice:      buyPrice,
				SellTimestamp: ts,
				SellPrice:     tick.Close,
				ProfitOrLoss:  tick.Close - buyPrice,
			}
			result.Trades = append(result.Trades, trade)
			log.Infof("sell %s at %s price=%.4f P/L=%.4f", currentSymbol, ts, tick.Close, trade.ProfitOrLoss)

			soldSymbol := currentSymbol
			currentSymbol = ""
			holding = false

			// Scan right away, excluding the symbol just sold.
			markScan(ts)
			if sym, ok := r.scanner.FindCandidate(ctx, exclude(params.Universe, soldSymbol)); ok {
				currentSymbol = sym
				currentTracker = tracker.New(sym)
			}
		}
	}
}

// summarize fills the aggregate fields of the result.
func (r *Runner) summarize(result *model.BacktestResult) {
	result.Summary.TradesCount = len(result.Trades)
	if len(result.Trades) == 0 {
		return
	}

	pls := make([]float64, len(result.Trades))
	for i, trade := range result.Trades {
		pls[i] = trade.ProfitOrLoss
		result.Summary.TotalPL += trade.ProfitOrLoss
	}

	if mean, err := stats.Mean(pls); err == nil {
		result.Summary.MeanPL = mean
	}
	if median, err := stats.Median(pls); err == nil {
		result.Summary.MedianPL = median
	}
	if stddev, err := stats.StandardDeviation(pls); err == nil {
		result.Summary.StdDevPL = stddev
	}
}

func (r *Runner) record(result *model.BacktestResult) {
	if err := r.recorder.RecordRun(result); err != nil {
		log.Errorf("record backtest run: %v", err)
	}
}

// monthsEndingAt lists numMonths consecutive "YYYY-MM" strings ending at
// endMonth, oldest first.
func monthsEndingAt(endMonth string, numMonths int) ([]string, error) {
	end, err := time.Parse("2006-01", endMonth)
	if err != nil {
		return nil, err
	}
	months := make([]string, numMonths)
	for i := 0; i < numMonths; i++ {
		months[numMonths-1-i] = end.AddDate(0, -i, 0).Format("2006-01")
	}
	return months, nil
}

func withSymbol(universe []string, symbol string) []string {
	for _, s := range universe {
		if s == symbol {
			return universe
		}
	}
	out := make([]string, 0, len(universe)+1)
	out = append(out, symbol)
	return append(out, universe...)
}

func exclude(symbols []string, symbol string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s != symbol {
			out = append(out, s)
		}
	}
	return out
}
