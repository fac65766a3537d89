// Package main emits deterministic synthetic candle series to stdout.
// The same symbol, interval and range always produce the same output,
// which makes the tool useful for seeding fixtures and comparing runs.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/pricegen"
)

func main() {
	symbol := flag.String("symbol", "AAPL", "Symbol to generate")
	interval := flag.String("interval", "MIN_1", "Candle interval, e.g. SEC_15, MIN_5, HR_1, DAY_1")
	start := flag.String("start", "", "Range start, RFC 3339 (required)")
	end := flag.String("end", "", "Range end, RFC 3339 (required)")
	format := flag.String("format", "csv", "Output format: csv or json")
	maxPoints := flag.Int("max-points", 0, "Override the generator point cap; 0 keeps the default")

	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	iv, err := domain.ParseInterval(*interval)
	if err != nil {
		logger.Fatalf("invalid interval: %v", err)
	}
	from, to, err := parseRange(*start, *end)
	if err != nil {
		logger.Fatal(err)
	}

	gen := pricegen.New(pricegen.Options{MaxPoints: *maxPoints})
	series, err := gen.History(*symbol, iv, from, to)
	if err != nil {
		logger.Fatalf("generate %s %s: %v", *symbol, iv, err)
	}

	switch *format {
	case "csv":
		err = writeCSV(os.Stdout, series)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(series)
	default:
		logger.Fatalf("unknown format %q (want csv or json)", *format)
	}
	if err != nil {
		logger.Fatalf("write output: %v", err)
	}
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--start and --end are required")
	}
	from, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}
	to, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end is before --start")
	}
	return from.UTC(), to.UTC(), nil
}

func writeCSV(out *os.File, series []domain.Candle) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range series {
		record := []string{
			c.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
