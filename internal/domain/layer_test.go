package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayers(t *testing.T) {
	all := Layers()

	t.Run("registry order starts with the boundary", func(t *testing.T) {
		require.Len(t, all, 6)
		assert.Equal(t, LayerBoundary, all[0].ID)
		assert.Equal(t, DefaultLayer, all[0].ID)
	})

	t.Run("every layer is fully specified", func(t *testing.T) {
		for _, l := range all {
			assert.NotEmpty(t, l.ID)
			assert.NotEmpty(t, l.Title)
			assert.NotEmpty(t, l.Name)
			assert.NotEmpty(t, l.Asset)
			assert.NotEmpty(t, l.Kind)
		}
	})

	t.Run("only the boundary is a table", func(t *testing.T) {
		for _, l := range all {
			if l.ID == LayerBoundary {
				assert.Equal(t, AssetTable, l.Kind)
				assert.False(t, l.Clip)
				assert.Equal(t, "black", l.Vis.Color)
				continue
			}
			assert.Equal(t, AssetImage, l.Kind)
			assert.True(t, l.Clip, "raster layer %s should clip to the boundary", l.ID)
		}
	})

	t.Run("returns a copy", func(t *testing.T) {
		all[0].Title = "mutated"
		assert.NotEqual(t, "mutated", Layers()[0].Title)
	})
}

func TestLayerByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		l, ok := LayerByID(LayerRF)
		require.True(t, ok)
		assert.Equal(t, "Random Forest Classification", l.Title)
		assert.Equal(t, AssetRFClassified, l.Asset)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, ok := LayerByID("sar-classification")
		assert.False(t, ok)
	})
}

func TestLayerVisParams(t *testing.T) {
	tests := []struct {
		name    string
		id      LayerID
		min     float64
		max     float64
		palette []string
	}{
		{"ndvi threshold", LayerNDVIThreshold, 0, 1, []string{"red"}},
		{"random forest", LayerRF, 0, 4, []string{"red", "cyan", "green", "grey", "blue"}},
		{"svm", LayerSVM, 0, 4, []string{"red", "cyan", "green", "grey", "blue"}},
		{"rice pixels rf", LayerRicePixelsRF, 0, 1, []string{"black"}},
		{"rice pixels svm", LayerRicePixelsSVM, 0, 1, []string{"blue"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, ok := LayerByID(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.min, l.Vis.Min)
			assert.Equal(t, tt.max, l.Vis.Max)
			assert.Equal(t, tt.palette, l.Vis.Palette)
		})
	}
}

func TestLayerLegends(t *testing.T) {
	t.Run("classification layers share the five-class legend", func(t *testing.T) {
		for _, id := range []LayerID{LayerRF, LayerSVM} {
			l, ok := LayerByID(id)
			require.True(t, ok)
			require.Len(t, l.Legend, 5, "layer %s", id)
			assert.Equal(t, LegendEntry{Label: "Rice", Color: "#FF0000"}, l.Legend[0])
			assert.Equal(t, LegendEntry{Label: "Water", Color: "#0000FF"}, l.Legend[4])
		}
	})

	t.Run("rice-pixel legends match their palettes", func(t *testing.T) {
		rf, _ := LayerByID(LayerRicePixelsRF)
		require.Len(t, rf.Legend, 1)
		assert.Equal(t, "#000000", rf.Legend[0].Color)

		svm, _ := LayerByID(LayerRicePixelsSVM)
		require.Len(t, svm.Legend, 1)
		assert.Equal(t, "#0000FF", svm.Legend[0].Color)
	})

	t.Run("boundary has no legend", func(t *testing.T) {
		b, _ := LayerByID(LayerBoundary)
		assert.Empty(t, b.Legend)
	})
}
