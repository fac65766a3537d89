// Package main backfills the candle store with deterministic synthetic
// history. Useful for seeding a fresh ClickHouse instance before
// running sessions or queries against it.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/pricegen"
	chstore "algotrade-core/internal/storage/clickhouse"
	"algotrade-core/internal/storage/migrations"
)

const insertChunk = 10_000

func main() {
	symbols := flag.String("symbols", "AAPL", "Comma-separated symbols to backfill")
	interval := flag.String("interval", "MIN_1", "Candle interval, e.g. SEC_15, MIN_5, HR_1, DAY_1")
	start := flag.String("start", "", "Range start, RFC 3339 (required)")
	end := flag.String("end", "", "Range end, RFC 3339 (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	maxPoints := flag.Int("max-points", 0, "Override the generator point cap; 0 keeps the default")

	flag.Parse()

	logger := log.New(os.Stderr, "[backfill] ", log.LstdFlags)

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
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	ctx := context.Background()

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	store := chstore.NewCandleStore(conn)
	gen := pricegen.New(pricegen.Options{MaxPoints: *maxPoints})

	for _, raw := range strings.Split(*symbols, ",") {
		symbol := strings.TrimSpace(raw)
		if symbol == "" {
			continue
		}
		series, err := gen.History(symbol, iv, from.UTC(), to.UTC())
		if err != nil {
			logger.Fatalf("generate %s: %v", symbol, err)
		}
		for off := 0; off < len(series); off += insertChunk {
			hi := off + insertChunk
			if hi > len(series) {
				hi = len(series)
			}
			if err := store.InsertBulk(ctx, symbol, iv, series[off:hi]); err != nil {
				logger.Fatalf("insert %s: %v", symbol, err)
			}
		}
		logger.Printf("backfilled %s %s: %d candle(s)", symbol, iv, len(series))
	}
}
