// Command fakeplatform serves a deterministic emulation of the imagery
// platform REST API. It backs the hermetic integration suite and makes local
// dashboard development possible without platform credentials:
//
//	go run ./cmd/fakeplatform -addr :9090
//	EE_BASE_URL=http://localhost:9090 EE_AUTH_MODE=emulator go run ./cmd/dashboard
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/fakeplatform"
)

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	project := flag.String("project", "ee-unipvgee", "project whose assets the fake serves")
	seed := flag.Int64("seed", 42, "scene catalog seed; equal seeds serve identical series")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	fake := fakeplatform.New(*project, *seed, logger)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      fake.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("fake platform listening", "addr", *addr, "project", *project, "seed", *seed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("fake platform error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
