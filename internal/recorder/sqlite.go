package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"StockSentinel/internal/model"
)

// SQLiteRecorder persists runs, trades, and scans to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			initial_symbol TEXT,
			universe       TEXT,
			total_pl       REAL,
			trades_count   INTEGER,
			data_points    INTEGER,
			mean_pl        REAL,
			median_pl      REAL,
			stddev_pl      REAL,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON backtest_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			symbol         TEXT,
			buy_timestamp  TEXT,
			buy_price      REAL,
			sell_timestamp TEXT,
			sell_price     REAL,
			profit_or_loss REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON backtest_trades(run_id)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp           INTEGER NOT NULL,
			symbol              TEXT,
			gain_current_15min  REAL,
			gain_previous_15min REAL,
			is_climbing         INTEGER,
			latest_price        REAL,
			accepted            INTEGER,
			reason              TEXT,
			error               TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_ts ON scan_results(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(result *model.BacktestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := result.Summary
	_, err := r.db.Exec(`INSERT INTO backtest_runs
		(run_id, timestamp, initial_symbol, universe, total_pl, trades_count,
		 data_points, mean_pl, median_pl, stddev_pl, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		sum.RunID, time.Now().Unix(), sum.InitialSymbol,
		strings.Join(sum.StockUniverse, ","), sum.TotalPL, sum.TradesCount,
		sum.DataPointsInTimeline, sum.MeanPL, sum.MedianPL, sum.StdDevPL, sum.Error,
	)
	if err != nil {
		return err
	}

	for _, trade := range result.Trades {
		if _, err := r.db.Exec(`INSERT INTO backtest_trades
			(run_id, symbol, buy_timestamp, buy_price, sell_timestamp, sell_price, profit_or_loss)
			VALUES (?,?,?,?,?,?,?)`,
			sum.RunID, trade.Symbol, trade.BuyTimestamp, trade.BuyPrice,
			trade.SellTimestamp, trade.SellPrice, trade.ProfitOrLoss,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordScan(rec *ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := rec.Analysis
	_, err := r.db.Exec(`INSERT INTO scan_results
		(timestamp, symbol, gain_current_15min, gain_previous_15min,
		 is_climbing, latest_price, accepted, reason, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rec.ScannedAt.Unix(), rec.Symbol, a.GainCurrent15Min, a.GainPrevious15Min,
		boolToInt(a.IsCurrentlyClimbing), a.LatestPrice, boolToInt(rec.Accepted),
		rec.Reason, a.Err,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
