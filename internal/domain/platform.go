package domain

import (
	"context"
	"time"
)

// MapSession is a platform-issued capability to fetch tiles for one styled
// layer. Tile URLs embed a token and expire server-side, so sessions are
// cached only for a bounded TTL.
type MapSession struct {
	Layer     LayerID   `json:"layer"`
	TileURL   string    `json:"tile_url"` // template with {z}/{x}/{y} placeholders
	CreatedAt time.Time `json:"created_at"`
}

// AssetMetadata is the slice of platform asset info the dashboard consumes.
type AssetMetadata struct {
	Name string
	Type string // "IMAGE" or "TABLE"
}

// Platform is the remote imagery backend the dashboard queries. All compute
// happens on the platform; implementations only translate these calls into
// its wire format.
type Platform interface {
	// CreateLayerMap registers a styled visualization of one registry layer
	// and returns its tile session.
	CreateLayerMap(ctx context.Context, layer LayerSpec) (MapSession, error)

	// ListScenes returns the Sentinel-2 scenes intersecting the study area
	// within the window, filtered by the cloud-cover ceiling, in acquisition
	// order.
	ListScenes(ctx context.Context, w Window) ([]Scene, error)

	// SceneMeanNDVI computes the cloud-masked mean NDVI of one scene over the
	// study area.
	SceneMeanNDVI(ctx context.Context, scene Scene) (Observation, error)

	// AssetInfo fetches metadata for one asset. Doubles as a cheap access
	// probe for readiness checks.
	AssetInfo(ctx context.Context, asset string) (AssetMetadata, error)
}
