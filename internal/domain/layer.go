package domain

// LayerID identifies one map layer in the fixed registry.
type LayerID string

const (
	LayerBoundary      LayerID = "boundary"
	LayerNDVIThreshold LayerID = "ndvi-threshold"
	LayerRF            LayerID = "rf-classification"
	LayerSVM           LayerID = "svm-classification"
	LayerRicePixelsRF  LayerID = "rice-pixels-rf"
	LayerRicePixelsSVM LayerID = "rice-pixels-svm"
)

// AssetKind distinguishes raster assets from vector table assets. The two
// kinds take different visualization paths on the platform.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetTable AssetKind = "table"
)

// Asset IDs of the precomputed study results on the platform.
const (
	assetRoot = "projects/ee-unipvgee/assets/"

	AssetBoundary      = assetRoot + "Shaligouraram_kattangur_Shapefile"
	AssetNDVIThreshold = assetRoot + "NDVI_Threshold_Rice"
	AssetRiceField     = assetRoot + "GANESH_AREA"
	AssetRFClassified  = assetRoot + "RF_Classified_Image"
	AssetSVMClassified = assetRoot + "SVM_Classified_Image"
	AssetRicePixelsRF  = assetRoot + "RicePixelsRF"
	AssetRicePixelsSVM = assetRoot + "RicePixelsSVM"
)

// SeriesCollection is the public imagery collection the NDVI series is
// computed from.
const SeriesCollection = "COPERNICUS/S2_SR_HARMONIZED"

// VisParams mirrors the platform's visualization arguments for a raster
// layer. Table layers use Color (the outline draw color) instead of the
// min/max/palette stretch.
type VisParams struct {
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette,omitempty"`
	Color   string   `json:"color,omitempty"`
}

// LegendEntry is one swatch in a layer's legend box.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// LayerSpec describes one selectable map layer: which asset backs it, how the
// platform should style it, and what its legend shows.
type LayerSpec struct {
	ID    LayerID   `json:"id"`
	Title string    `json:"title"` // dropdown label
	Name  string    `json:"name"`  // layer name shown on the map
	Asset string    `json:"asset"`
	Kind  AssetKind `json:"kind"`
	// Clip restricts the raster to the study-area boundary before styling,
	// hiding classifier output outside the surveyed mandals.
	Clip   bool          `json:"-"`
	Vis    VisParams     `json:"vis"`
	Legend []LegendEntry `json:"legend,omitempty"`
}

// classLegend is shared by the two 5-class classification layers.
var classLegend = []LegendEntry{
	{Label: "Rice", Color: "#FF0000"},
	{Label: "Lime/Tangerine", Color: "#00FFFF"},
	{Label: "Forest/Shrubs", Color: "#008000"},
	{Label: "Built-Up/Bare Land", Color: "#808080"},
	{Label: "Water", Color: "#0000FF"},
}

// layers is the fixed registry in display order. The boundary leads, matching
// the published dashboard, and is the initial selection.
var layers = []LayerSpec{
	{
		ID:    LayerBoundary,
		Title: "Shaligouraram kattangur Shapefile",
		Name:  "Study Area Boundary",
		Asset: AssetBoundary,
		Kind:  AssetTable,
		Vis:   VisParams{Color: "black"},
	},
	{
		ID:     LayerNDVIThreshold,
		Title:  "NDVI 0.65 Threshold",
		Name:   "NDVI Threshold Rice Pixels",
		Asset:  AssetNDVIThreshold,
		Kind:   AssetImage,
		Clip:   true,
		Vis:    VisParams{Min: 0, Max: 1, Palette: []string{"red"}},
		Legend: []LegendEntry{{Label: "Rice", Color: "#FF0000"}},
	},
	{
		ID:     LayerRF,
		Title:  "Random Forest Classification",
		Name:   "RF Classification",
		Asset:  AssetRFClassified,
		Kind:   AssetImage,
		Clip:   true,
		Vis:    VisParams{Min: 0, Max: 4, Palette: []string{"red", "cyan", "green", "grey", "blue"}},
		Legend: classLegend,
	},
	{
		ID:     LayerSVM,
		Title:  "SVM Classification",
		Name:   "SVM Classification",
		Asset:  AssetSVMClassified,
		Kind:   AssetImage,
		Clip:   true,
		Vis:    VisParams{Min: 0, Max: 4, Palette: []string{"red", "cyan", "green", "grey", "blue"}},
		Legend: classLegend,
	},
	{
		ID:     LayerRicePixelsRF,
		Title:  "Rice Pixels (RF)",
		Name:   "RF Rice Pixels",
		Asset:  AssetRicePixelsRF,
		Kind:   AssetImage,
		Clip:   true,
		Vis:    VisParams{Min: 0, Max: 1, Palette: []string{"black"}},
		Legend: []LegendEntry{{Label: "Rice Pixels", Color: "#000000"}},
	},
	{
		ID:     LayerRicePixelsSVM,
		Title:  "Rice Pixels (SVM)",
		Name:   "SVM Rice Pixels",
		Asset:  AssetRicePixelsSVM,
		Kind:   AssetImage,
		Clip:   true,
		Vis:    VisParams{Min: 0, Max: 1, Palette: []string{"blue"}},
		Legend: []LegendEntry{{Label: "Rice Pixels", Color: "#0000FF"}},
	},
}

// Layers returns the layer registry in display order.
func Layers() []LayerSpec {
	out := make([]LayerSpec, len(layers))
	copy(out, layers)
	return out
}

// LayerByID looks up a registry layer.
func LayerByID(id LayerID) (LayerSpec, bool) {
	for _, l := range layers {
		if l.ID == id {
			return l, true
		}
	}
	return LayerSpec{}, false
}

// DefaultLayer is the selection when the page first loads.
const DefaultLayer = LayerBoundary
