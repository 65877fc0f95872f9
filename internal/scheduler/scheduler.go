package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scanner"
	"StockSentinel/internal/watchlist"
)

// Scheduler runs the candidate scan over the configured universe on a cron
// schedule and persists the outcomes.
type Scheduler struct {
	Cron      *cron.Cron
	Scanner   *scanner.Scanner
	Watchlist *watchlist.Manager
	Recorder  recorder.Recorder
	Universe  []string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, wl *watchlist.Manager, rec recorder.Recorder, universe []string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Scanner:   sc,
		Watchlist: wl,
		Recorder:  rec,
		Universe:  universe,
		Ctx:       ctx,
	}
}

// Register registers the scan task.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info("scheduler stopped")
}

// RunScanNow executes the scan task immediately (for RUN_ON_START / manual trigger).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

// scanTask mirrors the scanner's candidate search but records every
// per-symbol outcome, stopping at the first accept like the search does.
func (s *Scheduler) scanTask() {
	log.Infof("running universe scan over %d symbols", len(s.Universe))

	var candidate string
	for _, symbol := range s.Universe {
		analysis := s.Scanner.AnalyzeRecentClimb(s.Ctx, symbol)
		accepted, reason := s.Scanner.Evaluate(analysis)

		if err := s.Recorder.RecordScan(&recorder.ScanRecord{
			ScannedAt: time.Now(),
			Symbol:    symbol,
			Analysis:  analysis,
			Accepted:  accepted,
			Reason:    reason,
		}); err != nil {
			log.Errorf("record scan of %s: %v", symbol, err)
		}

		if err := s.Scanner.WaitTurn(s.Ctx); err != nil {
			log.Warnf("universe scan aborted: %v", err)
			return
		}
		if accepted {
			candidate = symbol
			break
		}
		log.Infof("scan rejected %s: %s", symbol, reason)
	}

	s.Watchlist.RecordScanResult(candidate)
	if candidate != "" {
		log.Infof("universe scan found candidate: %s", candidate)
	} else {
		log.Info("universe scan found no candidate")
	}
}
