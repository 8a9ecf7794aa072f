package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/chart"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/dashboard"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
)

// Chart size limits for /chart.png. Anything outside renders at the bound.
const (
	chartMinWidth  = 240
	chartMaxWidth  = 2000
	chartMinHeight = 160
	chartMaxHeight = 1200
)

type centerView struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type layerView struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Name    string               `json:"name"`
	TileURL string               `json:"tile_url,omitempty"`
	Legend  []domain.LegendEntry `json:"legend,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type layersResponse struct {
	StudyArea    string      `json:"study_area"`
	AreaHectares float64     `json:"area_hectares"`
	Center       centerView  `json:"center"`
	Zoom         int         `json:"zoom"`
	DefaultLayer string      `json:"default_layer"`
	Layers       []layerView `json:"layers"`
}

type observationView struct {
	Date    string  `json:"date"`
	NDVI    float64 `json:"ndvi"`
	SceneID string  `json:"scene_id,omitempty"`
}

type seriesResponse struct {
	Start        string            `json:"start"`
	End          string            `json:"end"`
	Count        int               `json:"count"`
	Observations []observationView `json:"observations"`
	FetchedAt    time.Time         `json:"fetched_at"`
}

type statsResponse struct {
	Count       int       `json:"count"`
	Mean        float64   `json:"mean"`
	Median      float64   `json:"median"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	views := s.service.LayerMaps(r.Context())

	resp := layersResponse{
		StudyArea:    s.area.Name,
		AreaHectares: s.area.AreaHectares(),
		Zoom:         domain.DefaultZoom,
		DefaultLayer: string(domain.DefaultLayer),
		Layers:       make([]layerView, 0, len(views)),
	}
	centroid := s.area.Centroid()
	resp.Center = centerView{Lat: centroid.Lat(), Lon: centroid.Lon()}

	failed := 0
	for _, v := range views {
		lv := layerView{
			ID:     string(v.Layer.ID),
			Title:  v.Layer.Title,
			Name:   v.Layer.Name,
			Legend: v.Layer.Legend,
		}
		if v.Err != nil {
			failed++
			lv.Error = v.Err.Error()
		} else {
			lv.TileURL = v.Session.TileURL
		}
		resp.Layers = append(resp.Layers, lv)
	}

	if failed == len(views) {
		writeError(w, http.StatusBadGateway, errors.New("no layer is currently available"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	window, ok := s.parseWindow(w, r)
	if !ok {
		return
	}

	series, err := s.service.TimeSeries(r.Context(), window)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := seriesResponse{
		Start:        series.Window.Start.Format(domain.DateFormat),
		End:          series.Window.End.Format(domain.DateFormat),
		Count:        len(series.Observations),
		Observations: make([]observationView, 0, len(series.Observations)),
		FetchedAt:    series.FetchedAt,
	}
	for _, o := range series.Observations {
		resp.Observations = append(resp.Observations, observationView{
			Date:    o.Date.Format(domain.DateFormat),
			NDVI:    o.NDVI,
			SceneID: o.SceneID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTimeSeriesCSV(w http.ResponseWriter, r *http.Request) {
	window, ok := s.parseWindow(w, r)
	if !ok {
		return
	}

	series, err := s.service.TimeSeries(r.Context(), window)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var buf bytes.Buffer
	if err := dashboard.WriteCSV(&buf, series); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("ndvi_%s_%s.csv",
		window.Start.Format(domain.DateFormat), window.End.Format(domain.DateFormat))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	window, ok := s.parseWindow(w, r)
	if !ok {
		return
	}

	stats, err := s.service.Stats(r.Context(), window)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Count:       stats.Count,
		Mean:        stats.Mean,
		Median:      stats.Median,
		Min:         stats.Min,
		Max:         stats.Max,
		Start:       stats.Window.Start.Format(domain.DateFormat),
		End:         stats.Window.End.Format(domain.DateFormat),
		GeneratedAt: stats.GeneratedAt,
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	window, ok := s.parseWindow(w, r)
	if !ok {
		return
	}

	series, err := s.service.TimeSeries(r.Context(), window)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	opts := chart.Options{
		Width:  clampQueryInt(r, "w", chart.DefaultWidth, chartMinWidth, chartMaxWidth),
		Height: clampQueryInt(r, "h", chart.DefaultHeight, chartMinHeight, chartMaxHeight),
	}

	// Render before writing headers so a renderer error can still become a 500.
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, series, opts); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

// parseWindow reads start/end query params, answering 400 on invalid input.
// The second return is false when the response has been written.
func (s *Server) parseWindow(w http.ResponseWriter, r *http.Request) (domain.Window, bool) {
	q := r.URL.Query()
	window, err := domain.ParseWindow(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return domain.Window{}, false
	}
	return window, true
}

func clampQueryInt(r *http.Request, key string, def, lo, hi int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// statusFor maps domain errors onto response codes: bad windows are the
// caller's fault, platform trouble is a gateway problem.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWindow):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuth):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrQuery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
