// Package fakeplatform emulates the imagery platform's REST surface with
// deterministic synthetic data. It serves the map, catalog, and compute
// endpoints the dashboard depends on, so demos and integration tests run
// hermetically with no credentials and no network.
package fakeplatform

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
)

// Tile edge length in pixels.
const tileSize = 256

var assetTypes = map[string]string{
	domain.AssetBoundary:      "TABLE",
	domain.AssetRiceField:     "TABLE",
	domain.AssetNDVIThreshold: "IMAGE",
	domain.AssetRFClassified:  "IMAGE",
	domain.AssetSVMClassified: "IMAGE",
	domain.AssetRicePixelsRF:  "IMAGE",
	domain.AssetRicePixelsSVM: "IMAGE",
}

// Server holds the synthetic scene catalog and the maps created so far.
type Server struct {
	project string
	scenes  []sceneFixture
	logger  *slog.Logger
}

// New builds a fake platform for one project. The seed fixes the scene
// catalog; equal seeds serve identical series.
func New(project string, seed int64, logger *slog.Logger) *Server {
	return &Server{
		project: project,
		scenes: generateScenes(seed,
			time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)),
		logger: logger,
	}
}

// Handler returns the routed REST surface.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requireAuth)

	r.HandleFunc("/v1/projects/{project}/maps", s.handleCreateMap).Methods(http.MethodPost)
	r.HandleFunc("/v1/projects/{project}/maps/{map}/tiles/{z}/{x}/{y}", s.handleTile).Methods(http.MethodGet)
	r.HandleFunc("/v1/projects/earthengine-public/assets/COPERNICUS/S2_SR_HARMONIZED:listImages", s.handleListImages).Methods(http.MethodGet)
	r.HandleFunc("/v1/projects/{project}/value:compute", s.handleCompute).Methods(http.MethodPost)
	r.HandleFunc("/v1/projects/{project}/assets/{asset:.+}", s.handleAsset).Methods(http.MethodGet)

	return r
}

// requireAuth rejects requests without a bearer token. Any token passes; the
// fake verifies wiring, not identity. Tile URLs stay open because the map
// name in them is the capability, which is how the real platform serves
// tiles straight to a browser.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/tiles/") {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeError(w, http.StatusUnauthorized, "request is missing required authentication credential")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCreateMap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expression json.RawMessage `json:"expression"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Expression) == 0 {
		writeError(w, http.StatusBadRequest, "invalid expression")
		return
	}

	name := fmt.Sprintf("projects/%s/maps/%s", mux.Vars(r)["project"], uuid.NewString())
	s.logger.Debug("map created", "name", name)
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

// handleTile paints a flat-green placeholder tile with the z/x/y stamped on
// it, enough for a map widget to render something visibly tiled.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	dc := gg.NewContext(tileSize, tileSize)
	dc.SetHexColor("#3a5f3a")
	dc.Clear()
	dc.SetHexColor("#d0e0d0")
	dc.DrawString(vars["z"]+"/"+vars["x"]+"/"+vars["y"], 12, 20)

	w.Header().Set("Content-Type", "image/png")
	if err := dc.EncodePNG(w); err != nil {
		s.logger.Error("encode tile", "error", err)
	}
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := time.Parse(time.RFC3339, q.Get("startTime"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startTime")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("endTime"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endTime")
		return
	}

	cloudMax := 100.0
	if f := q.Get("filter"); f != "" {
		if _, err := fmt.Sscanf(f, "CLOUDY_PIXEL_PERCENTAGE < %f", &cloudMax); err != nil {
			writeError(w, http.StatusBadRequest, "unsupported filter")
			return
		}
	}

	pageSize := 100
	if ps := q.Get("pageSize"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 {
			pageSize = n
		}
	}
	offset := 0
	if tok := q.Get("pageToken"); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid pageToken")
			return
		}
		offset = n
	}

	var matched []sceneFixture
	for _, sc := range s.scenes {
		if sc.time.Before(start) || !sc.time.Before(end) {
			continue
		}
		if sc.cloudCover >= cloudMax {
			continue
		}
		matched = append(matched, sc)
	}

	type image struct {
		Name       string         `json:"name"`
		ID         string         `json:"id"`
		StartTime  time.Time      `json:"startTime"`
		Properties map[string]any `json:"properties"`
	}
	resp := struct {
		Images        []image `json:"images"`
		NextPageToken string  `json:"nextPageToken,omitempty"`
	}{}

	pageEnd := offset + pageSize
	if pageEnd > len(matched) {
		pageEnd = len(matched)
	}
	for _, sc := range matched[offset:pageEnd] {
		resp.Images = append(resp.Images, image{
			Name:       "projects/earthengine-public/assets/" + sc.id,
			ID:         sc.id,
			StartTime:  sc.time,
			Properties: map[string]any{"CLOUDY_PIXEL_PERCENTAGE": sc.cloudCover},
		})
	}
	if pageEnd < len(matched) {
		resp.NextPageToken = strconv.Itoa(pageEnd)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCompute walks the posted expression graph for the Image.load node and
// answers with that scene's fixed NDVI mean.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expression struct {
			Values map[string]struct {
				Invocation *struct {
					FunctionName string `json:"functionName"`
					Arguments    map[string]struct {
						Constant any `json:"constantValue"`
					} `json:"arguments"`
				} `json:"functionInvocationValue"`
			} `json:"values"`
		} `json:"expression"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid expression")
		return
	}

	var sceneRef string
	for _, node := range req.Expression.Values {
		if node.Invocation == nil || node.Invocation.FunctionName != "Image.load" {
			continue
		}
		if id, ok := node.Invocation.Arguments["id"].Constant.(string); ok {
			sceneRef = id
			break
		}
	}
	if sceneRef == "" {
		writeError(w, http.StatusBadRequest, "expression has no Image.load node")
		return
	}

	for _, sc := range s.scenes {
		if sc.id != sceneRef {
			continue
		}
		if sc.masked {
			writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"NDVI": nil}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]float64{"NDVI": sc.ndvi}})
		return
	}
	writeError(w, http.StatusNotFound, "image not found: "+sceneRef)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := fmt.Sprintf("projects/%s/assets/%s", vars["project"], vars["asset"])

	kind, ok := assetTypes[name]
	if !ok {
		writeError(w, http.StatusNotFound, "asset not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "type": kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort fake response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{
		"code":    status,
		"message": msg,
	}})
}
