// Package main runs a paper-trading session: scheduled data fetches,
// batch delivery to a strategy, simulated execution, and periodic
// checkpoints. Data comes from the deterministic generator or from a
// websocket push stream.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/observability"
	"algotrade-core/internal/orchestrator"
	"algotrade-core/internal/paper"
	"algotrade-core/internal/reconcile"
	"algotrade-core/internal/source"
	"algotrade-core/internal/storage"
	chstore "algotrade-core/internal/storage/clickhouse"
	"algotrade-core/internal/storage/memory"
	"algotrade-core/internal/storage/migrations"
	pgstore "algotrade-core/internal/storage/postgres"
	"algotrade-core/internal/strategy"
)

func main() {
	loadEnvFile()

	symbols := flag.String("symbols", "AAPL,MSFT", "Comma-separated symbols to watch")
	interval := flag.String("interval", "MIN_1", "Fetch interval, e.g. SEC_15, MIN_5, HR_1, DAY_1")
	aggregations := flag.String("aggregations", "", "Comma-separated aggregation intervals, e.g. MIN_5,HR_1")
	session := flag.String("session", "default", "Checkpoint session name")
	initialCash := flag.Float64("initial-cash", 1_000_000, "Starting cash for the paper account")
	commission := flag.String("commission", "", "Commission spec: flat number or percentage like 0.5%")
	strategyType := flag.String("strategy", strategy.TypeLog, "Strategy: LOG or MOMENTUM")
	entryPct := flag.Float64("entry-pct", 0.02, "Momentum entry threshold")
	trailPct := flag.Float64("trail-pct", 0.05, "Momentum trailing stop distance")
	quantity := flag.Float64("quantity", 10, "Momentum shares per entry")
	maxHold := flag.Duration("max-hold", time.Hour, "Momentum maximum hold time")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	streamEndpoint := flag.String("stream-endpoint", "", "Websocket push endpoint; empty uses polled fetches only")
	streamTimeout := flag.Duration("stream-timeout", reconcile.DefaultTimeout, "Reconciler flush timeout")
	checkpointEvery := flag.Duration("checkpoint-every", orchestrator.DefaultCheckpointEvery, "Checkpoint save cadence")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")

	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	watch, err := buildWatchList(*symbols, *interval, *aggregations)
	if err != nil {
		logger.Fatalf("invalid watch configuration: %v", err)
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

	metrics := observability.NewMetrics("")

	checkpointStore, candleStore, fillStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, metrics)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	src := source.NewMockSource(source.MockOptions{})

	// The trader is constructed after the engine, so fills route
	// through this indirection.
	var trader *orchestrator.Trader
	engine := paper.NewEngine(paper.Options{
		InitialCash: *initialCash,
		Commission:  comm,
		Lookup:      src,
		OnFill:      func(ev domain.FillEvent) { trader.HandleFill(ev) },
		Logger:      logger,
		Metrics:     metrics,
	})

	strat, err := strategy.FromConfig(strategy.Config{
		Type:     *strategyType,
		EntryPct: entryPct,
		TrailPct: trailPct,
		Quantity: quantity,
		MaxHold:  *maxHold,
	}, engine, logger)
	if err != nil {
		logger.Fatalf("create strategy: %v", err)
	}

	trader, err = orchestrator.New(orchestrator.Options{
		Watch:           watch,
		Source:          src,
		Engine:          engine,
		Strategy:        strat,
		Checkpoints:     checkpointStore,
		CandleStore:     candleStore,
		Fills:           fillStore,
		Session:         *session,
		CheckpointEvery: *checkpointEvery,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		logger.Fatalf("create trader: %v", err)
	}

	// Optional push stream feeding the reconciler, which delivers
	// through the same batch path as polled fetches.
	var stream *source.StreamSource
	if *streamEndpoint != "" {
		rec, err := reconcile.New(reconcile.Options{
			Watch:   watch,
			Timeout: *streamTimeout,
			Deliver: func(b reconcile.Batch) { trader.HandleBatch(ctx, b) },
			Logger:  logger,
			Metrics: metrics,
		})
		if err != nil {
			logger.Fatalf("create reconciler: %v", err)
		}
		stream, err = source.NewStreamSource(ctx, *streamEndpoint, rec, nil, logger)
		if err != nil {
			logger.Fatalf("connect stream: %v", err)
		}
		defer stream.Close()
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server: %v", err)
		}
	}()

	if err := trader.Start(ctx); err != nil {
		logger.Fatalf("start trader: %v", err)
	}
	logger.Printf("trading session %q started: %d symbol(s) at %s", *session, len(watch), *interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Printf("received signal %v, shutting down", sig)

	cancel()
	trader.Stop()
	logger.Println("shutdown complete")
}

// buildWatchList assembles the watch configuration from flag values.
func buildWatchList(symbols, interval, aggregations string) (domain.WatchList, error) {
	iv, err := domain.ParseInterval(interval)
	if err != nil {
		return nil, err
	}

	var aggs []domain.Interval
	if aggregations != "" {
		for _, raw := range strings.Split(aggregations, ",") {
			agg, err := domain.ParseInterval(strings.TrimSpace(raw))
			if err != nil {
				return nil, err
			}
			aggs = append(aggs, agg)
		}
	}

	watch := domain.WatchList{}
	for _, raw := range strings.Split(symbols, ",") {
		symbol := strings.TrimSpace(raw)
		if symbol == "" {
			continue
		}
		watch[symbol] = domain.WatchEntry{Interval: iv, Aggregations: aggs}
	}
	if len(watch) == 0 {
		return nil, fmt.Errorf("%w: no symbols", domain.ErrConfiguration)
	}
	return watch, watch.Validate()
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

// createStores builds the storage backends.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, metrics *observability.Metrics) (storage.CheckpointStore, storage.CandleStore, storage.FillStore, func(), error) {
	if useMemory {
		return memory.NewCheckpointStore(), memory.NewCandleStore(), memory.NewFillStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, nil, err
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		conn.Close()
	}
	return pgstore.NewCheckpointStore(pool).WithMetrics(metrics),
		chstore.NewCandleStore(conn).WithMetrics(metrics),
		pgstore.NewFillStore(pool).WithMetrics(metrics),
		cleanup, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
