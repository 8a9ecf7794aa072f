package domain

import (
	"fmt"
	"sort"
	"time"
)

// DateFormat is the wire and display format for observation dates.
const DateFormat = "2006-01-02"

// Window is the inclusive date range of a series query.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DefaultWindow covers the 2019 rabi season, the season the classifiers were
// trained on.
func DefaultWindow() Window {
	return Window{
		Start: time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2019, time.May, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Validate rejects windows whose end is not strictly after the start.
// Validation runs before any remote call so a bad window never costs a query.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrWindow)
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w: end date must be after start date", ErrWindow)
	}
	return nil
}

func (w Window) String() string {
	return w.Start.Format(DateFormat) + ".." + w.End.Format(DateFormat)
}

// ParseWindow parses YYYY-MM-DD bounds. Empty strings fall back to the
// matching bound of the default window.
func ParseWindow(start, end string) (Window, error) {
	w := DefaultWindow()
	if start != "" {
		t, err := time.Parse(DateFormat, start)
		if err != nil {
			return Window{}, fmt.Errorf("%w: start %q is not YYYY-MM-DD", ErrWindow, start)
		}
		w.Start = t
	}
	if end != "" {
		t, err := time.Parse(DateFormat, end)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end %q is not YYYY-MM-DD", ErrWindow, end)
		}
		w.End = t
	}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Scene is one Sentinel-2 acquisition intersecting the study area.
type Scene struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	CloudCover float64   `json:"cloud_cover"` // CLOUDY_PIXEL_PERCENTAGE, 0-100
}

// Observation is the cloud-masked mean NDVI of one scene over the study area.
type Observation struct {
	Date    time.Time `json:"date"`
	NDVI    float64   `json:"ndvi"`
	SceneID string    `json:"scene_id,omitempty"`
}

// TimeSeries carries the observations of one window, sorted by date.
type TimeSeries struct {
	Window       Window        `json:"window"`
	Observations []Observation `json:"observations"`
	FetchedAt    time.Time     `json:"fetched_at"`
}

// SortObservations orders observations by non-decreasing date. Same-day
// scenes tie-break on scene ID so parallel assembly yields a deterministic
// series.
func SortObservations(obs []Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].Date.Equal(obs[j].Date) {
			return obs[i].SceneID < obs[j].SceneID
		}
		return obs[i].Date.Before(obs[j].Date)
	})
}

// NewTimeSeries sorts the observations and stamps the fetch time.
func NewTimeSeries(w Window, obs []Observation) TimeSeries {
	SortObservations(obs)
	return TimeSeries{
		Window:       w,
		Observations: obs,
		FetchedAt:    clock.Now().UTC(),
	}
}

// Stats summarizes a series for the metric cards: average, median, maximum
// and minimum NDVI over the window.
type Stats struct {
	Count       int       `json:"count"`
	Mean        float64   `json:"mean"`
	Median      float64   `json:"median"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Window      Window    `json:"window"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ComputeStats derives summary statistics from a series. ok is false when the
// series is empty, in which case the caller renders no stats rather than
// zeros.
func ComputeStats(series TimeSeries) (Stats, bool) {
	n := len(series.Observations)
	if n == 0 {
		return Stats{}, false
	}

	values := make([]float64, n)
	sum := 0.0
	for i, o := range series.Observations {
		values[i] = o.NDVI
		sum += o.NDVI
	}
	sort.Float64s(values)

	median := values[n/2]
	if n%2 == 0 {
		median = (values[n/2-1] + values[n/2]) / 2
	}

	return Stats{
		Count:       n,
		Mean:        sum / float64(n),
		Median:      median,
		Min:         values[0],
		Max:         values[n-1],
		Window:      series.Window,
		GeneratedAt: clock.Now().UTC(),
	}, true
}
