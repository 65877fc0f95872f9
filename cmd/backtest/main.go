package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"StockSentinel/internal/backtest"
	"StockSentinel/internal/config"
	"StockSentinel/internal/fetcher"
	"StockSentinel/internal/model"
	"StockSentinel/internal/ratelimit"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scanner"
)

var (
	flagSymbol   string
	flagMonths   int
	flagEndMonth string
	flagUniverse []string
	flagInterval string
	flagConfig   string
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a momentum portfolio backtest from the command line",
	RunE:  runBacktest,
}

func init() {
	rootCmd.Flags().StringVar(&flagSymbol, "symbol", "", "initial symbol to hold (required)")
	rootCmd.Flags().IntVar(&flagMonths, "months", config.DefaultNumMonths, "number of months to simulate")
	rootCmd.Flags().StringVar(&flagEndMonth, "end-month", "", "last month of the window, YYYY-MM (default: previous month)")
	rootCmd.Flags().StringSliceVar(&flagUniverse, "universe", nil, "symbol universe to scan (default: built-in universe)")
	rootCmd.Flags().StringVar(&flagInterval, "interval", config.DefaultInterval, "bar interval")
	rootCmd.Flags().StringVar(&flagConfig, "config", "configs/config.yaml", "config file path")
	rootCmd.MarkFlagRequired("symbol")
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	f := fetcher.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	limiter := ratelimit.NewInterval(time.Duration(cfg.RateLimit.IntervalSeconds) * time.Second)
	sc := scanner.New(f, limiter)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		if sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath); err == nil {
			rec = sr
			defer sr.Close()
		} else {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
		}
	}

	runner := backtest.NewRunner(f, sc, limiter, rec)
	result := runner.Run(cmd.Context(), backtest.Params{
		InitialSymbol: flagSymbol,
		NumMonths:     flagMonths,
		EndMonth:      flagEndMonth,
		Universe:      flagUniverse,
		Interval:      flagInterval,
	})

	printResult(result)
	if result.Summary.Error != "" {
		return fmt.Errorf("backtest failed: %s", result.Summary.Error)
	}
	return nil
}

func printResult(result *model.BacktestResult) {
	if len(result.Trades) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Symbol", "Buy Time", "Buy", "Sell Time", "Sell", "P/L"})
		for _, trade := range result.Trades {
			table.Append([]string{
				trade.Symbol,
				trade.BuyTimestamp,
				fmt.Sprintf("%.4f", trade.BuyPrice),
				trade.SellTimestamp,
				fmt.Sprintf("%.4f", trade.SellPrice),
				fmt.Sprintf("%+.4f", trade.ProfitOrLoss),
			})
		}
		table.Render()
	}

	sum := result.Summary
	fmt.Printf("\nrun %s: %d trades over %d data points\n", sum.RunID, sum.TradesCount, sum.DataPointsInTimeline)
	fmt.Printf("total P/L: %+.4f  mean: %+.4f  median: %+.4f  stddev: %.4f\n",
		sum.TotalPL, sum.MeanPL, sum.MedianPL, sum.StdDevPL)
	if sum.Error != "" {
		fmt.Printf("error: %s\n", sum.Error)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
