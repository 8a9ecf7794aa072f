package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/observability"
)

// Operation names, used in errors and (underscored) as metric labels.
const (
	opCreateMap   = "create map"
	opListScenes  = "list scenes"
	opComputeNDVI = "compute ndvi"
	opAssetInfo   = "asset info"
)

// listPageSize caps one listImages page; windows needing more scenes paginate.
const listPageSize = 100

// Config carries the client settings main resolves from the environment.
type Config struct {
	BaseURL       string
	Project       string
	Timeout       time.Duration
	CloudCoverMax float64
	NDVIScaleM    float64
	MaxScenes     int
}

// Client implements domain.Platform against the imagery platform's REST API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	project       string
	area          domain.StudyArea
	cloudCoverMax float64
	ndviScaleM    float64
	maxScenes     int
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates a platform client authenticating every request through
// the token source.
func NewClient(cfg Config, ts oauth2.TokenSource, area domain.StudyArea, metrics *observability.Metrics, logger *slog.Logger) *Client {
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = cfg.Timeout
	return &Client{
		httpClient:    httpClient,
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		project:       cfg.Project,
		area:          area,
		cloudCoverMax: cfg.CloudCoverMax,
		ndviScaleM:    cfg.NDVIScaleM,
		maxScenes:     cfg.MaxScenes,
		metrics:       metrics,
		logger:        logger,
	}
}

// CreateLayerMap registers a styled visualization of one registry layer and
// returns its tile session.
func (c *Client) CreateLayerMap(ctx context.Context, layer domain.LayerSpec) (domain.MapSession, error) {
	expr, err := layerExpression(layer)
	if err != nil {
		return domain.MapSession{}, &domain.QueryError{Op: opCreateMap, Layer: layer.ID, Err: err}
	}

	u := fmt.Sprintf("%s/v1/projects/%s/maps", c.baseURL, url.PathEscape(c.project))
	var resp mapResponse
	if err := c.doJSON(ctx, http.MethodPost, u, mapRequest{Expression: expr, FileFormat: "PNG"}, &resp, opCreateMap); err != nil {
		return domain.MapSession{}, &domain.QueryError{Op: opCreateMap, Layer: layer.ID, Err: err}
	}
	if resp.Name == "" {
		return domain.MapSession{}, &domain.QueryError{Op: opCreateMap, Layer: layer.ID, Err: fmt.Errorf("response has no map name")}
	}

	session := domain.MapSession{
		Layer:     layer.ID,
		TileURL:   fmt.Sprintf("%s/v1/%s/tiles/{z}/{x}/{y}", c.baseURL, resp.Name),
		CreatedAt: time.Now().UTC(),
	}
	c.logger.Debug("layer map created", "layer", layer.ID, "map", resp.Name)
	return session, nil
}

// ListScenes returns the Sentinel-2 scenes intersecting the study area
// within the window, under the cloud-cover ceiling, sorted by acquisition
// time. The end date is inclusive at day granularity: asking for scenes up
// to May 31 includes May 31's acquisitions.
func (c *Client) ListScenes(ctx context.Context, w domain.Window) ([]domain.Scene, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	region, err := json.Marshal(c.area.GeoJSON())
	if err != nil {
		return nil, &domain.QueryError{Op: opListScenes, Err: fmt.Errorf("encode region: %w", err)}
	}

	base := fmt.Sprintf("%s/v1/projects/earthengine-public/assets/%s:listImages", c.baseURL, domain.SeriesCollection)
	params := url.Values{
		"startTime": {w.Start.UTC().Format(time.RFC3339)},
		"endTime":   {w.End.UTC().Add(24 * time.Hour).Format(time.RFC3339)},
		"region":    {string(region)},
		"filter":    {fmt.Sprintf("CLOUDY_PIXEL_PERCENTAGE < %g", c.cloudCoverMax)},
		"pageSize":  {strconv.Itoa(listPageSize)},
	}

	var scenes []domain.Scene
	pageToken := ""
	for {
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		var resp listImagesResponse
		if err := c.doJSON(ctx, http.MethodGet, base+"?"+params.Encode(), nil, &resp, opListScenes); err != nil {
			return nil, &domain.QueryError{Op: opListScenes, Err: err}
		}
		for _, img := range resp.Images {
			scenes = append(scenes, domain.Scene{
				ID:         img.sceneID(),
				Time:       img.StartTime,
				CloudCover: img.Properties.CloudyPixelPercentage,
			})
		}
		pageToken = resp.NextPageToken
		if pageToken == "" || len(scenes) >= c.maxScenes {
			break
		}
	}

	sort.Slice(scenes, func(i, j int) bool { return scenes[i].Time.Before(scenes[j].Time) })
	if len(scenes) > c.maxScenes {
		c.logger.Warn("scene list truncated", "window", w.String(), "max", c.maxScenes)
		scenes = scenes[:c.maxScenes]
	}
	return scenes, nil
}

// SceneMeanNDVI computes the cloud-masked mean NDVI of one scene over the
// study area. Returns domain.ErrSceneMasked when every study-area pixel of
// the scene is masked out.
func (c *Client) SceneMeanNDVI(ctx context.Context, scene domain.Scene) (domain.Observation, error) {
	expr, err := meanNDVIExpression(scene.ID, c.area, c.ndviScaleM)
	if err != nil {
		return domain.Observation{}, &domain.QueryError{Op: opComputeNDVI, Err: err}
	}

	u := fmt.Sprintf("%s/v1/projects/%s/value:compute", c.baseURL, url.PathEscape(c.project))
	var resp computeResponse
	if err := c.doJSON(ctx, http.MethodPost, u, computeRequest{Expression: expr}, &resp, opComputeNDVI); err != nil {
		return domain.Observation{}, &domain.QueryError{Op: opComputeNDVI, Err: err}
	}

	v, ok := resp.Result["NDVI"]
	if !ok || v == nil {
		return domain.Observation{}, domain.ErrSceneMasked
	}

	return domain.Observation{
		Date:    scene.Time.UTC().Truncate(24 * time.Hour),
		NDVI:    *v,
		SceneID: scene.ID,
	}, nil
}

// AssetInfo fetches metadata for one asset. Doubles as an access probe: a
// 403 or 404 here means the dashboard cannot serve its layers.
func (c *Client) AssetInfo(ctx context.Context, asset string) (domain.AssetMetadata, error) {
	var resp assetResponse
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/v1/"+asset, nil, &resp, opAssetInfo); err != nil {
		return domain.AssetMetadata{}, &domain.QueryError{Op: opAssetInfo, Err: err}
	}
	return domain.AssetMetadata{Name: resp.Name, Type: resp.Type}, nil
}

// doJSON issues one request, enforcing status and decoding the body, with
// per-operation metrics.
func (c *Client) doJSON(ctx context.Context, method, fullURL string, reqBody, out any, op string) error {
	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	label := strings.ReplaceAll(op, " ", "_")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.PlatformDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.PlatformRequests.WithLabelValues(label, "error").Inc()
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.PlatformRequests.WithLabelValues(label, "error").Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("platform API error: status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.PlatformRequests.WithLabelValues(label, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}

	c.metrics.PlatformRequests.WithLabelValues(label, "success").Inc()
	return nil
}

// Platform REST types, reduced to the fields the dashboard reads.

type mapRequest struct {
	Expression expression `json:"expression"`
	FileFormat string     `json:"fileFormat,omitempty"`
}

type mapResponse struct {
	Name string `json:"name"` // "projects/{project}/maps/{id}"
}

type listImagesResponse struct {
	Images        []imageEntry `json:"images"`
	NextPageToken string       `json:"nextPageToken"`
}

type imageEntry struct {
	Name       string          `json:"name"` // "projects/earthengine-public/assets/COPERNICUS/..."
	ID         string          `json:"id"`   // "COPERNICUS/S2_SR_HARMONIZED/..."
	StartTime  time.Time       `json:"startTime"`
	Properties imageProperties `json:"properties"`
}

// sceneID prefers the short asset id and falls back to stripping the
// resource prefix off the name.
func (e imageEntry) sceneID() string {
	if e.ID != "" {
		return e.ID
	}
	if i := strings.Index(e.Name, "/assets/"); i >= 0 {
		return e.Name[i+len("/assets/"):]
	}
	return e.Name
}

type imageProperties struct {
	CloudyPixelPercentage float64 `json:"CLOUDY_PIXEL_PERCENTAGE"`
}

type computeRequest struct {
	Expression expression `json:"expression"`
}

type computeResponse struct {
	Result map[string]*float64 `json:"result"` // band name to mean; null when fully masked
}

type assetResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
