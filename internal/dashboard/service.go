// Package dashboard assembles what the web UI shows: the study's map layers,
// the NDVI time series of the monitored paddy field, and its summary
// statistics.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"
	"golang.org/x/sync/errgroup"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/observability"
)

// LayerMap pairs a registry layer with its tile session. A failed layer
// carries the error instead, so one broken asset never blanks the whole map.
type LayerMap struct {
	Layer   domain.LayerSpec
	Session domain.MapSession
	Err     error
}

// Service orchestrates platform queries for the dashboard endpoints.
type Service struct {
	platform    domain.Platform
	logger      *slog.Logger
	metrics     *observability.Metrics
	concurrency int
	ready       atomic.Bool
}

// New creates a Service. concurrency bounds the parallel per-scene NDVI
// reductions of one series assembly.
func New(platform domain.Platform, logger *slog.Logger, metrics *observability.Metrics, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		platform:    platform,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// LayerMaps creates tile sessions for every registry layer in parallel.
// Failures are reported per layer; the slice always covers the full registry
// in registry order.
func (s *Service) LayerMaps(ctx context.Context) []LayerMap {
	layers := domain.Layers()
	views := make([]LayerMap, len(layers))

	var g errgroup.Group
	for i, layer := range layers {
		i, layer := i, layer
		g.Go(func() error {
			views[i] = s.layerMap(ctx, layer)
			return nil
		})
	}
	_ = g.Wait()

	return views
}

func (s *Service) layerMap(ctx context.Context, layer domain.LayerSpec) LayerMap {
	session, err := s.platform.CreateLayerMap(ctx, layer)
	if err != nil {
		s.logger.Warn("layer map failed, serving without it", "layer", layer.ID, "error", err)
		s.metrics.LayerFailures.WithLabelValues(string(layer.ID)).Inc()
		return LayerMap{Layer: layer, Err: err}
	}
	return LayerMap{Layer: layer, Session: session}
}

// TimeSeries assembles the mean-NDVI series of the monitored field over the
// window: list matching scenes, reduce each in a bounded worker pool, and
// sort by date. Fully masked scenes are skipped; so are individual scene
// failures, unless every scene fails.
func (s *Service) TimeSeries(ctx context.Context, w domain.Window) (domain.TimeSeries, error) {
	if err := w.Validate(); err != nil {
		return domain.TimeSeries{}, err
	}
	start := time.Now()

	scenes, err := s.platform.ListScenes(ctx, w)
	if err != nil {
		return domain.TimeSeries{}, err
	}
	s.metrics.SeriesScenes.Observe(float64(len(scenes)))
	if len(scenes) == 0 {
		return domain.NewTimeSeries(w, nil), nil
	}

	type result struct {
		obs domain.Observation
		err error
	}
	results := make([]result, len(scenes))

	wp := workerpool.New(s.concurrency)
	for i, scene := range scenes {
		i, scene := i, scene
		wp.Submit(func() {
			obs, err := s.platform.SceneMeanNDVI(ctx, scene)
			results[i] = result{obs: obs, err: err}
		})
	}
	wp.StopWait()

	obs := make([]domain.Observation, 0, len(scenes))
	var masked, failed int
	for i, r := range results {
		switch {
		case r.err == nil:
			obs = append(obs, r.obs)
		case errors.Is(r.err, domain.ErrSceneMasked):
			masked++
			s.logger.Debug("scene fully masked, skipping", "scene", scenes[i].ID)
		default:
			failed++
			s.logger.Warn("scene reduction failed, skipping", "scene", scenes[i].ID, "error", r.err)
		}
	}

	if len(obs) == 0 && failed > 0 {
		return domain.TimeSeries{}, &domain.QueryError{
			Op:  "assemble series",
			Err: fmt.Errorf("all %d scene reductions failed", failed),
		}
	}

	s.metrics.SeriesAssembly.Observe(time.Since(start).Seconds())
	series := domain.NewTimeSeries(w, obs)
	s.logger.Info("series assembled",
		"window", w.String(),
		"scenes", len(scenes),
		"observations", len(series.Observations),
		"masked", masked,
		"failed", failed,
	)
	return series, nil
}

// Stats summarizes the window's series. An empty series yields a zero-count
// Stats, not an error; the window simply has no cloud-free scenes.
func (s *Service) Stats(ctx context.Context, w domain.Window) (domain.Stats, error) {
	series, err := s.TimeSeries(ctx, w)
	if err != nil {
		return domain.Stats{}, err
	}
	stats, ok := domain.ComputeStats(series)
	if !ok {
		return domain.Stats{Window: w}, nil
	}
	return stats, nil
}

// Probe verifies platform access by fetching the boundary asset's metadata.
// The service reports ready only after one probe has succeeded.
func (s *Service) Probe(ctx context.Context) error {
	meta, err := s.platform.AssetInfo(ctx, domain.AssetBoundary)
	if err != nil {
		s.metrics.Ready.Set(0)
		return err
	}
	s.logger.Info("platform access verified", "asset", meta.Name, "type", meta.Type)
	s.ready.Store(true)
	s.metrics.Ready.Set(1)
	return nil
}

// CheckReadiness returns nil once platform access has been verified.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("platform access has not been verified yet")
	}
	return nil
}

// Prewarm creates every layer's tile session ahead of the first page load.
func (s *Service) Prewarm(ctx context.Context) {
	views := s.LayerMaps(ctx)
	ok := 0
	for _, v := range views {
		if v.Err == nil {
			ok++
		}
	}
	s.logger.Info("layer maps prewarmed", "ok", ok, "failed", len(views)-ok)
}
