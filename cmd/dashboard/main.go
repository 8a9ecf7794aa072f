package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/adapter/earthengine"
	httpadapter "github.com/ricelens/paddy-ndvi-dashboard/internal/adapter/http"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/config"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/dashboard"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/observability"
)

// probeInterval is how often platform access is retried until it succeeds.
const probeInterval = 30 * time.Second

func main() {
	// A missing .env file is fine; deployments set real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	area, err := loadStudyArea(cfg)
	if err != nil {
		logger.Error("failed to load study area", "error", err)
		os.Exit(1)
	}

	keyJSON, err := loadServiceAccountKey(cfg)
	if err != nil {
		logger.Error("failed to read service account key", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ts, err := earthengine.Credentials(ctx, cfg.EEAuthMode, keyJSON)
	if err != nil {
		logger.Error("failed to resolve platform credentials", "error", err)
		os.Exit(1)
	}
	if err := earthengine.Probe(ts, cfg.EEAuthMode); err != nil {
		logger.Error("platform credential check failed", "error", err)
		os.Exit(1)
	}

	client := earthengine.NewClient(earthengine.Config{
		BaseURL:       cfg.EEBaseURL,
		Project:       cfg.EEProject,
		Timeout:       cfg.EETimeout,
		CloudCoverMax: cfg.CloudCoverMax,
		NDVIScaleM:    cfg.NDVIScaleM,
		MaxScenes:     cfg.SeriesMaxScenes,
	}, ts, area, metrics, logger)
	platform := earthengine.NewCachedPlatform(client, cfg.MapCacheTTL, cfg.SeriesCacheTTL, metrics)

	svc := dashboard.New(platform, logger, metrics, cfg.SeriesConcurrency)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, area, cfg.CORSOrigins, metrics, logger)

	// Start HTTP server.
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Verify platform access in the background. The server serves /healthz
	// immediately; /readyz flips once the boundary asset is reachable.
	go probeLoop(ctx, cfg, svc, logger)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// probeLoop retries the platform access probe until it succeeds, then
// optionally prewarms the layer map sessions.
func probeLoop(ctx context.Context, cfg *config.Config, svc *dashboard.Service, logger *slog.Logger) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		err := svc.Probe(ctx)
		if err == nil {
			if cfg.PrewarmLayers {
				svc.Prewarm(ctx)
			}
			return
		}
		logger.Warn("platform access probe failed, retrying", "error", err, "interval", probeInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
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
