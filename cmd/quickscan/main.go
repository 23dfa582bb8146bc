// Command quickscan reclassifies one day of stored observations with the
// flat, region-independent threshold ladder and prints a per-level summary.
// It is an operator spot-check tool; the ingest pipeline's regional
// classification remains the system of record.
//
// Usage:
//
//	quickscan -date 2026-07-14
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/heatwave-forecast-service/internal/adapter/postgres"
	"github.com/couchcryptid/heatwave-forecast-service/internal/config"
	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
	"github.com/couchcryptid/heatwave-forecast-service/internal/observability"
)

func main() {
	dateArg := flag.String("date", "", "UTC calendar day to scan as YYYY-MM-DD")
	flag.Parse()

	if *dateArg == "" {
		flag.Usage()
		os.Exit(1)
	}
	date, err := time.ParseInLocation("2006-01-02", *dateArg, time.UTC)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -date %q: %v\n", *dateArg, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	if code := run(context.Background(), cfg, logger, date); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, date time.Time) int {
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("connect store", "error", err)
		return 1
	}
	defer store.Close()

	initTime, ok, err := store.LatestInitTimeForDate(ctx, date)
	if err != nil {
		logger.Error("look up forecast run", "error", err)
		return 1
	}
	if !ok {
		fmt.Printf("no observations stored for %s\n", date.Format("2006-01-02"))
		return 1
	}

	observations, err := store.ObservationsForDate(ctx, date, initTime)
	if err != nil {
		logger.Error("load observations", "error", err)
		return 1
	}

	type cell struct{ lat, lon float64 }
	type extremes struct{ maxTemp, maxHI float64 }
	cells := make(map[cell]extremes)
	for _, o := range observations {
		key := cell{o.Latitude, o.Longitude}
		e, seen := cells[key]
		if !seen {
			cells[key] = extremes{maxTemp: o.Temperature, maxHI: o.HeatIndex}
			continue
		}
		if o.Temperature > e.maxTemp {
			e.maxTemp = o.Temperature
		}
		if o.HeatIndex > e.maxHI {
			e.maxHI = o.HeatIndex
		}
		cells[key] = e
	}

	counts := make(map[domain.RiskLevel]int)
	for _, e := range cells {
		counts[domain.FlatClassify(e.maxHI, e.maxTemp)]++
	}

	fmt.Printf("quick scan for %s (forecast run %s)\n",
		date.Format("2006-01-02"), initTime.Format(time.RFC3339))
	fmt.Printf("  locations: %d, samples: %d\n", len(cells), len(observations))

	levels := make([]domain.RiskLevel, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] > levels[j] })
	for _, level := range levels {
		fmt.Printf("  %-9s %d\n", levelLabel(level), counts[level])
	}
	return 0
}

func levelLabel(l domain.RiskLevel) string {
	return fmt.Sprintf("%s(%d)", l.Label(), int(l))
}
