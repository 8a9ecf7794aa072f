// Command report assembles the NDVI time series for one date window and
// writes the dashboard artifacts to a directory: the observations as CSV, the
// chart as PNG, and the summary statistics as JSON.
//
// Usage:
//
//	go run ./cmd/report -start 2019-01-01 -end 2019-05-31 -out ./report
//
// Platform access uses the same environment variables as the server
// (EE_PROJECT, EE_AUTH_MODE, EE_SERVICE_ACCOUNT_FILE, ...).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/adapter/earthengine"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/chart"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/config"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/dashboard"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/observability"
)

func main() {
	start := flag.String("start", "", "window start date (YYYY-MM-DD, defaults to the study window)")
	end := flag.String("end", "", "window end date (YYYY-MM-DD, defaults to the study window)")
	out := flag.String("out", "report", "output directory for the artifacts")
	flag.Parse()

	_ = godotenv.Load()

	if code := run(*start, *end, *out); code != 0 {
		os.Exit(code)
	}
}

func run(start, end, out string) int {
	window, err := domain.ParseWindow(start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	area, err := loadStudyArea(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load study area: %v\n", err)
		return 1
	}

	keyJSON, err := loadServiceAccountKey(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read service account key: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ts, err := earthengine.Credentials(ctx, cfg.EEAuthMode, keyJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: resolve credentials: %v\n", err)
		return 1
	}
	if err := earthengine.Probe(ts, cfg.EEAuthMode); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: credential check: %v\n", err)
		return 1
	}

	client := earthengine.NewClient(earthengine.Config{
		BaseURL:       cfg.EEBaseURL,
		Project:       cfg.EEProject,
		Timeout:       cfg.EETimeout,
		CloudCoverMax: cfg.CloudCoverMax,
		NDVIScaleM:    cfg.NDVIScaleM,
		MaxScenes:     cfg.SeriesMaxScenes,
	}, ts, area, metrics, logger)

	// A one-shot run touches every scene exactly once, so the session cache
	// stays out of the way.
	svc := dashboard.New(client, logger, metrics, cfg.SeriesConcurrency)

	fmt.Printf("=== NDVI Report: %s ===\n\n", window)
	fmt.Printf("Study area: %s (%.1f ha)\n", area.Name, area.AreaHectares())

	series, err := svc.TimeSeries(ctx, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: assemble series: %v\n", err)
		return 1
	}
	fmt.Printf("Observations: %d\n\n", len(series.Observations))

	if err := writeArtifacts(out, series); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	if stats, ok := domain.ComputeStats(series); ok {
		fmt.Printf("  %-14s %.2f\n", "Average NDVI", stats.Mean)
		fmt.Printf("  %-14s %.2f\n", "Median NDVI", stats.Median)
		fmt.Printf("  %-14s %.2f\n", "Maximum NDVI", stats.Max)
		fmt.Printf("  %-14s %.2f\n", "Minimum NDVI", stats.Min)
	} else {
		fmt.Println("  No NDVI data found for the selected date range.")
	}

	fmt.Printf("\nArtifacts written to %s\n", out)
	return 0
}

// writeArtifacts writes timeseries.csv, chart.png, and stats.json.
func writeArtifacts(dir string, series domain.TimeSeries) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	csvFile, err := os.Create(filepath.Join(dir, "timeseries.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()
	if err := dashboard.WriteCSV(csvFile, series); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	pngFile, err := os.Create(filepath.Join(dir, "chart.png"))
	if err != nil {
		return err
	}
	defer pngFile.Close()
	if err := chart.RenderPNG(pngFile, series, chart.Options{}); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	stats, ok := domain.ComputeStats(series)
	if !ok {
		stats = domain.Stats{Window: series.Window}
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "stats.json"), data, 0o644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// loadStudyArea reads the boundary override, falling back to the embedded one.
func loadStudyArea(cfg *config.Config) (domain.StudyArea, error) {
	if cfg.StudyAreaFile == "" {
		return domain.DefaultStudyArea()
	}
	data, err := os.ReadFile(cfg.StudyAreaFile)
	if err != nil {
		return domain.StudyArea{}, err
	}
	name := strings.TrimSuffix(filepath.Base(cfg.StudyAreaFile), filepath.Ext(cfg.StudyAreaFile))
	return domain.ParseStudyArea(name, data)
}

// loadServiceAccountKey returns the key material for service-account auth.
// Inline JSON wins over the key file; other auth modes need no key.
func loadServiceAccountKey(cfg *config.Config) ([]byte, error) {
	if cfg.EEServiceAccountJSON != "" {
		return []byte(cfg.EEServiceAccountJSON), nil
	}
	if cfg.EEServiceAccountFile != "" {
		return os.ReadFile(cfg.EEServiceAccountFile)
	}
	return nil, nil
}
