package earthengine

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/observability"
)

// CachedPlatform wraps a Platform with TTL caches. Map sessions are cached
// under the platform's tile-session lifetime; scene lists and per-scene NDVI
// values are cached on the series TTL, which bounds how stale a freshly
// ingested scene can leave the chart. Asset probes pass through so readiness
// reflects live platform access.
type CachedPlatform struct {
	inner   domain.Platform
	maps    *gocache.Cache
	series  *gocache.Cache
	metrics *observability.Metrics
}

// NewCachedPlatform creates a cache decorator around a platform.
func NewCachedPlatform(inner domain.Platform, mapTTL, seriesTTL time.Duration, metrics *observability.Metrics) *CachedPlatform {
	return &CachedPlatform{
		inner:   inner,
		maps:    gocache.New(mapTTL, 10*time.Minute),
		series:  gocache.New(seriesTTL, 10*time.Minute),
		metrics: metrics,
	}
}

func (c *CachedPlatform) CreateLayerMap(ctx context.Context, layer domain.LayerSpec) (domain.MapSession, error) {
	key := "map:" + string(layer.ID)
	if v, ok := c.maps.Get(key); ok {
		c.metrics.PlatformCache.WithLabelValues("map", "hit").Inc()
		return v.(domain.MapSession), nil
	}
	c.metrics.PlatformCache.WithLabelValues("map", "miss").Inc()

	session, err := c.inner.CreateLayerMap(ctx, layer)
	if err != nil {
		// Never cache failures; the next page load should retry.
		return session, err
	}
	c.maps.Set(key, session, gocache.DefaultExpiration)
	return session, nil
}

func (c *CachedPlatform) ListScenes(ctx context.Context, w domain.Window) ([]domain.Scene, error) {
	key := "scenes:" + w.String()
	if v, ok := c.series.Get(key); ok {
		c.metrics.PlatformCache.WithLabelValues("series", "hit").Inc()
		return v.([]domain.Scene), nil
	}
	c.metrics.PlatformCache.WithLabelValues("series", "miss").Inc()

	scenes, err := c.inner.ListScenes(ctx, w)
	if err != nil {
		return nil, err
	}
	c.series.Set(key, scenes, gocache.DefaultExpiration)
	return scenes, nil
}

func (c *CachedPlatform) SceneMeanNDVI(ctx context.Context, scene domain.Scene) (domain.Observation, error) {
	key := "ndvi:" + scene.ID
	if v, ok := c.series.Get(key); ok {
		c.metrics.PlatformCache.WithLabelValues("series", "hit").Inc()
		return v.(domain.Observation), nil
	}
	c.metrics.PlatformCache.WithLabelValues("series", "miss").Inc()

	obs, err := c.inner.SceneMeanNDVI(ctx, scene)
	if err != nil {
		return obs, err
	}
	c.series.Set(key, obs, gocache.DefaultExpiration)
	return obs, nil
}

func (c *CachedPlatform) AssetInfo(ctx context.Context, asset string) (domain.AssetMetadata, error) {
	return c.inner.AssetInfo(ctx, asset)
}
