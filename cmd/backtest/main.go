// Package main runs a deterministic backtest: synthetic candles are
// replayed through a strategy and a paper engine, and the result is
// printed as text or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"algotrade-core/internal/backtest"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/orchestrator"
	"algotrade-core/internal/paper"
	"algotrade-core/internal/strategy"
)

func main() {
	symbols := flag.String("symbols", "AAPL", "Comma-separated symbols to backtest")
	interval := flag.String("interval", "MIN_1", "Candle interval, e.g. SEC_15, MIN_5, HR_1")
	start := flag.String("start", "", "Range start, RFC 3339 (required)")
	end := flag.String("end", "", "Range end, RFC 3339 (required)")
	strategyType := flag.String("strategy", strategy.TypeMomentum, "Strategy: LOG or MOMENTUM")
	entryPct := flag.Float64("entry-pct", 0.02, "Momentum entry threshold")
	trailPct := flag.Float64("trail-pct", 0.05, "Momentum trailing stop distance")
	quantity := flag.Float64("quantity", 10, "Momentum shares per entry")
	maxHold := flag.Duration("max-hold", time.Hour, "Momentum maximum hold time")
	initialCash := flag.Float64("initial-cash", 100_000, "Starting cash")
	commission := flag.String("commission", "", "Commission spec: flat number or percentage like 0.5%")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	iv, err := domain.ParseInterval(*interval)
	if err != nil {
		logger.Fatalf("invalid interval: %v", err)
	}
	if *start == "" || *end == "" {
		logger.Fatal("--start and --end are required")
	}
	from, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		logger.Fatalf("invalid --start: %v", err)
	}
	to, err := time.Parse(time.RFC3339, *end)
	if err != nil {
		logger.Fatalf("invalid --end: %v", err)
	}

	watch := domain.WatchList{}
	for _, raw := range strings.Split(*symbols, ",") {
		if sym := strings.TrimSpace(raw); sym != "" {
			watch[sym] = domain.WatchEntry{Interval: iv}
		}
	}

	var comm paper.Commission
	if *commission != "" {
		comm, err = parseCommissionFlag(*commission)
		if err != nil {
			logger.Fatalf("invalid commission: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	runner := backtest.NewRunner(backtest.Options{
		InitialCash: *initialCash,
		Commission:  comm,
		Logger:      logger,
	})

	factory := func(engine *paper.Engine) (orchestrator.Strategy, error) {
		return strategy.FromConfig(strategy.Config{
			Type:     *strategyType,
			EntryPct: entryPct,
			TrailPct: trailPct,
			Quantity: quantity,
			MaxHold:  *maxHold,
		}, engine, logger)
	}

	logger.Printf("running backtest: %s %s from %s to %s", *symbols, iv, from, to)
	res, err := runner.Run(ctx, watch, from.UTC(), to.UTC(), factory)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(output))
		return
	}
	printResults(res)
}

// parseCommissionFlag accepts a flat number or a percentage string.
func parseCommissionFlag(raw string) (paper.Commission, error) {
	if strings.HasSuffix(raw, "%") {
		return paper.ParseCommission(raw)
	}
	var v float64
	if _, err := fmt.Sscanf(raw, "%f", &v); err != nil {
		return paper.Commission{}, fmt.Errorf("%w: commission %q", domain.ErrConfiguration, raw)
	}
	return paper.ParseCommission(v)
}

func printResults(res *backtest.Results) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Range:          %s .. %s\n", res.From.Format(time.RFC3339), res.To.Format(time.RFC3339))
	fmt.Printf("Batches:        %d\n", res.Batches)
	fmt.Printf("Fills:          %d\n", len(res.Fills))
	fmt.Printf("Initial Cash:   %.2f\n", res.InitialCash)
	fmt.Printf("Final Equity:   %.2f\n", res.FinalEquity)
	fmt.Printf("Return:         %.2f%%\n", res.Return*100)

	if len(res.Fills) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Fills:")
	for _, f := range res.Fills {
		fmt.Printf("  %s  %-4s %-6s qty %g at %.4f\n",
			f.FilledTime.Format(time.RFC3339), f.Side, f.Symbol, f.Quantity, f.FilledPrice)
	}
}
