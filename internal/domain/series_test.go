package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindow_Validate(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		wantErr bool
	}{
		{"end after start", Window{Start: day(2019, 1, 1), End: day(2019, 5, 31)}, false},
		{"single day apart", Window{Start: day(2019, 1, 1), End: day(2019, 1, 2)}, false},
		{"equal dates rejected", Window{Start: day(2019, 1, 1), End: day(2019, 1, 1)}, true},
		{"end before start rejected", Window{Start: day(2019, 5, 31), End: day(2019, 1, 1)}, true},
		{"zero start rejected", Window{End: day(2019, 5, 31)}, true},
		{"zero end rejected", Window{Start: day(2019, 1, 1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrWindow)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	t.Run("both bounds", func(t *testing.T) {
		w, err := ParseWindow("2020-06-01", "2020-09-30")
		require.NoError(t, err)
		assert.Equal(t, day(2020, 6, 1), w.Start)
		assert.Equal(t, day(2020, 9, 30), w.End)
	})

	t.Run("empty strings use the default window", func(t *testing.T) {
		w, err := ParseWindow("", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultWindow(), w)
	})

	t.Run("only start overrides", func(t *testing.T) {
		w, err := ParseWindow("2019-02-15", "")
		require.NoError(t, err)
		assert.Equal(t, day(2019, 2, 15), w.Start)
		assert.Equal(t, DefaultWindow().End, w.End)
	})

	t.Run("malformed start", func(t *testing.T) {
		_, err := ParseWindow("15-02-2019", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrWindow)
	})

	t.Run("malformed end", func(t *testing.T) {
		_, err := ParseWindow("", "not-a-date")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrWindow)
	})

	t.Run("inverted bounds rejected", func(t *testing.T) {
		_, err := ParseWindow("2019-05-31", "2019-01-01")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrWindow)
		assert.Contains(t, err.Error(), "end date must be after start date")
	})
}

func TestDefaultWindow_CoversRabiSeason(t *testing.T) {
	w := DefaultWindow()
	assert.Equal(t, day(2019, 1, 1), w.Start)
	assert.Equal(t, day(2019, 5, 31), w.End)
	assert.NoError(t, w.Validate())
}

func TestSortObservations(t *testing.T) {
	t.Run("orders by date", func(t *testing.T) {
		obs := []Observation{
			{Date: day(2019, 3, 10), NDVI: 0.61, SceneID: "c"},
			{Date: day(2019, 1, 5), NDVI: 0.32, SceneID: "a"},
			{Date: day(2019, 2, 14), NDVI: 0.48, SceneID: "b"},
		}

		SortObservations(obs)

		for i := 1; i < len(obs); i++ {
			assert.False(t, obs[i].Date.Before(obs[i-1].Date),
				"observation %d out of order", i)
		}
		assert.Equal(t, "a", obs[0].SceneID)
		assert.Equal(t, "c", obs[2].SceneID)
	})

	t.Run("same-day scenes tie-break on scene ID", func(t *testing.T) {
		obs := []Observation{
			{Date: day(2019, 3, 10), SceneID: "20190310T051701_T44QMD"},
			{Date: day(2019, 3, 10), SceneID: "20190310T051701_T44QLD"},
		}

		SortObservations(obs)

		assert.Equal(t, "20190310T051701_T44QLD", obs[0].SceneID)
	})

	t.Run("empty slice", func(t *testing.T) {
		SortObservations(nil)
	})
}

func TestNewTimeSeries(t *testing.T) {
	fixedTime := time.Date(2024, 4, 26, 12, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	obs := []Observation{
		{Date: day(2019, 2, 14), NDVI: 0.48},
		{Date: day(2019, 1, 5), NDVI: 0.32},
	}
	series := NewTimeSeries(DefaultWindow(), obs)

	assert.Equal(t, day(2019, 1, 5), series.Observations[0].Date)
	assert.Equal(t, day(2019, 2, 14), series.Observations[1].Date)
	assert.Equal(t, fixedTime, series.FetchedAt)
}

func TestComputeStats(t *testing.T) {
	fixedTime := time.Date(2024, 4, 26, 12, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	window := DefaultWindow()

	t.Run("odd count", func(t *testing.T) {
		series := TimeSeries{
			Window: window,
			Observations: []Observation{
				{Date: day(2019, 1, 5), NDVI: 0.2},
				{Date: day(2019, 2, 14), NDVI: 0.5},
				{Date: day(2019, 3, 10), NDVI: 0.8},
			},
		}

		stats, ok := ComputeStats(series)

		require.True(t, ok)
		assert.Equal(t, 3, stats.Count)
		assert.InDelta(t, 0.5, stats.Mean, 1e-9)
		assert.InDelta(t, 0.5, stats.Median, 1e-9)
		assert.InDelta(t, 0.2, stats.Min, 1e-9)
		assert.InDelta(t, 0.8, stats.Max, 1e-9)
		assert.Equal(t, window, stats.Window)
		assert.Equal(t, fixedTime, stats.GeneratedAt)
	})

	t.Run("even count averages the middle pair", func(t *testing.T) {
		series := TimeSeries{
			Window: window,
			Observations: []Observation{
				{NDVI: 0.1},
				{NDVI: 0.3},
				{NDVI: 0.5},
				{NDVI: 0.9},
			},
		}

		stats, ok := ComputeStats(series)

		require.True(t, ok)
		assert.InDelta(t, 0.4, stats.Median, 1e-9)
		assert.InDelta(t, 0.45, stats.Mean, 1e-9)
	})

	t.Run("single observation", func(t *testing.T) {
		series := TimeSeries{
			Window:       window,
			Observations: []Observation{{NDVI: 0.62}},
		}

		stats, ok := ComputeStats(series)

		require.True(t, ok)
		assert.Equal(t, 1, stats.Count)
		assert.InDelta(t, 0.62, stats.Mean, 1e-9)
		assert.InDelta(t, 0.62, stats.Median, 1e-9)
		assert.InDelta(t, 0.62, stats.Min, 1e-9)
		assert.InDelta(t, 0.62, stats.Max, 1e-9)
	})

	t.Run("empty series", func(t *testing.T) {
		_, ok := ComputeStats(TimeSeries{Window: window})
		assert.False(t, ok)
	})

	t.Run("does not reorder the input", func(t *testing.T) {
		series := TimeSeries{
			Window: window,
			Observations: []Observation{
				{NDVI: 0.9},
				{NDVI: 0.1},
			},
		}

		_, ok := ComputeStats(series)

		require.True(t, ok)
		assert.Equal(t, 0.9, series.Observations[0].NDVI)
	})
}
