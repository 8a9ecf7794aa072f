package dashboard_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/dashboard"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/observability"
)

// --- mocks ---

type stubPlatform struct {
	scenes    []domain.Scene
	ndvi      map[string]float64
	maskedIDs map[string]bool
	failIDs   map[string]bool
	layerErrs map[domain.LayerID]error
	listErr   error
	assetErr  error
	delay     time.Duration

	listCalls   atomic.Int64
	mapCalls    atomic.Int64
	ndviCalls   atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (p *stubPlatform) CreateLayerMap(_ context.Context, layer domain.LayerSpec) (domain.MapSession, error) {
	p.mapCalls.Add(1)
	if err := p.layerErrs[layer.ID]; err != nil {
		return domain.MapSession{}, err
	}
	return domain.MapSession{
		Layer:   layer.ID,
		TileURL: "https://tiles.test/" + string(layer.ID) + "/{z}/{x}/{y}",
	}, nil
}

func (p *stubPlatform) ListScenes(_ context.Context, _ domain.Window) ([]domain.Scene, error) {
	p.listCalls.Add(1)
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.scenes, nil
}

func (p *stubPlatform) SceneMeanNDVI(_ context.Context, scene domain.Scene) (domain.Observation, error) {
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		seen := p.maxInFlight.Load()
		if cur <= seen || p.maxInFlight.CompareAndSwap(seen, cur) {
			break
		}
	}
	p.ndviCalls.Add(1)
	time.Sleep(p.delay)

	if p.maskedIDs[scene.ID] {
		return domain.Observation{}, domain.ErrSceneMasked
	}
	if p.failIDs[scene.ID] {
		return domain.Observation{}, &domain.QueryError{Op: "compute ndvi", Err: errors.New("backend unavailable")}
	}
	return domain.Observation{
		Date:    scene.Time.UTC().Truncate(24 * time.Hour),
		NDVI:    p.ndvi[scene.ID],
		SceneID: scene.ID,
	}, nil
}

func (p *stubPlatform) AssetInfo(_ context.Context, asset string) (domain.AssetMetadata, error) {
	if p.assetErr != nil {
		return domain.AssetMetadata{}, p.assetErr
	}
	return domain.AssetMetadata{Name: asset, Type: "TABLE"}, nil
}

// --- helpers ---

func scene(id string, day int) domain.Scene {
	return domain.Scene{
		ID:   id,
		Time: time.Date(2019, 1, day, 5, 10, 0, 0, time.UTC),
	}
}

func newService(p domain.Platform, concurrency int) *dashboard.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return dashboard.New(p, logger, observability.NewMetricsForTesting(), concurrency)
}

// --- tests ---

func TestService_TimeSeries_SortsAndSkips(t *testing.T) {
	platform := &stubPlatform{
		scenes: []domain.Scene{
			scene("c", 15),
			scene("a", 5),
			scene("masked", 10),
			scene("broken", 12),
			scene("b", 8),
		},
		ndvi:      map[string]float64{"a": 0.2, "b": 0.35, "c": 0.5},
		maskedIDs: map[string]bool{"masked": true},
		failIDs:   map[string]bool{"broken": true},
	}
	svc := newService(platform, 4)

	series, err := svc.TimeSeries(context.Background(), domain.DefaultWindow())
	require.NoError(t, err)

	require.Len(t, series.Observations, 3)
	assert.Equal(t, "a", series.Observations[0].SceneID)
	assert.Equal(t, "b", series.Observations[1].SceneID)
	assert.Equal(t, "c", series.Observations[2].SceneID)
	for i := 1; i < len(series.Observations); i++ {
		assert.False(t, series.Observations[i].Date.Before(series.Observations[i-1].Date))
	}
}

func TestService_TimeSeries_InvalidWindow(t *testing.T) {
	platform := &stubPlatform{}
	svc := newService(platform, 4)

	d := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.TimeSeries(context.Background(), domain.Window{Start: d, End: d})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWindow)
	assert.Zero(t, platform.listCalls.Load(), "invalid window must not reach the platform")
}

func TestService_TimeSeries_EmptyCatalog(t *testing.T) {
	fixed := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	svc := newService(&stubPlatform{}, 4)

	series, err := svc.TimeSeries(context.Background(), domain.DefaultWindow())
	require.NoError(t, err)

	assert.Empty(t, series.Observations)
	assert.Equal(t, fixed, series.FetchedAt)
}

func TestService_TimeSeries_AllScenesFail(t *testing.T) {
	platform := &stubPlatform{
		scenes:  []domain.Scene{scene("a", 5), scene("b", 8)},
		failIDs: map[string]bool{"a": true, "b": true},
	}
	svc := newService(platform, 4)

	_, err := svc.TimeSeries(context.Background(), domain.DefaultWindow())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuery)
}

func TestService_TimeSeries_AllMaskedIsNotAnError(t *testing.T) {
	platform := &stubPlatform{
		scenes:    []domain.Scene{scene("a", 5), scene("b", 8)},
		maskedIDs: map[string]bool{"a": true, "b": true},
	}
	svc := newService(platform, 4)

	series, err := svc.TimeSeries(context.Background(), domain.DefaultWindow())

	require.NoError(t, err)
	assert.Empty(t, series.Observations)
}

func TestService_TimeSeries_ListError(t *testing.T) {
	platform := &stubPlatform{
		listErr: &domain.QueryError{Op: "list scenes", Err: errors.New("catalog down")},
	}
	svc := newService(platform, 4)

	_, err := svc.TimeSeries(context.Background(), domain.DefaultWindow())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuery)
	assert.Zero(t, platform.ndviCalls.Load())
}

func TestService_TimeSeries_BoundedConcurrency(t *testing.T) {
	platform := &stubPlatform{
		ndvi:  map[string]float64{},
		delay: 10 * time.Millisecond,
	}
	for d := 1; d <= 8; d++ {
		platform.scenes = append(platform.scenes, scene(string(rune('a'+d)), d))
	}
	svc := newService(platform, 2)

	_, err := svc.TimeSeries(context.Background(), domain.DefaultWindow())
	require.NoError(t, err)

	assert.Equal(t, int64(8), platform.ndviCalls.Load())
	assert.LessOrEqual(t, platform.maxInFlight.Load(), int64(2),
		"reductions must respect the concurrency bound")
}

func TestService_LayerMaps_IsolatesFailures(t *testing.T) {
	platform := &stubPlatform{
		layerErrs: map[domain.LayerID]error{
			domain.LayerRF: &domain.QueryError{Op: "create map", Layer: domain.LayerRF, Err: errors.New("asset gone")},
		},
	}
	svc := newService(platform, 4)

	views := svc.LayerMaps(context.Background())

	layers := domain.Layers()
	require.Len(t, views, len(layers))

	failures := 0
	for i, v := range views {
		assert.Equal(t, layers[i].ID, v.Layer.ID, "views must keep registry order")
		if v.Err != nil {
			failures++
			assert.Equal(t, domain.LayerRF, v.Layer.ID)
			assert.Empty(t, v.Session.TileURL)
			continue
		}
		assert.NotEmpty(t, v.Session.TileURL)
	}
	assert.Equal(t, 1, failures)
}

func TestService_Stats(t *testing.T) {
	platform := &stubPlatform{
		scenes: []domain.Scene{scene("a", 5), scene("b", 10), scene("c", 15), scene("d", 20)},
		ndvi:   map[string]float64{"a": 0.2, "b": 0.4, "c": 0.6, "d": 0.8},
	}
	svc := newService(platform, 4)

	stats, err := svc.Stats(context.Background(), domain.DefaultWindow())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 0.5, stats.Mean, 1e-9)
	assert.InDelta(t, 0.5, stats.Median, 1e-9)
	assert.InDelta(t, 0.2, stats.Min, 1e-9)
	assert.InDelta(t, 0.8, stats.Max, 1e-9)
}

func TestService_Stats_EmptySeries(t *testing.T) {
	svc := newService(&stubPlatform{}, 4)

	stats, err := svc.Stats(context.Background(), domain.DefaultWindow())
	require.NoError(t, err)

	assert.Zero(t, stats.Count)
	assert.Equal(t, domain.DefaultWindow(), stats.Window)
}

func TestService_Probe_GatesReadiness(t *testing.T) {
	platform := &stubPlatform{assetErr: &domain.QueryError{Op: "asset info", Err: errors.New("403")}}
	svc := newService(platform, 4)

	assert.Error(t, svc.CheckReadiness(context.Background()))
	assert.Error(t, svc.Probe(context.Background()))
	assert.Error(t, svc.CheckReadiness(context.Background()), "failed probe must not mark ready")

	platform.assetErr = nil
	require.NoError(t, svc.Probe(context.Background()))
	assert.NoError(t, svc.CheckReadiness(context.Background()))
}

func TestService_Prewarm_CoversAllLayers(t *testing.T) {
	platform := &stubPlatform{}
	svc := newService(platform, 4)

	svc.Prewarm(context.Background())

	assert.Equal(t, int64(len(domain.Layers())), platform.mapCalls.Load())
}
