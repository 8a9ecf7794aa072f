// Package domain models the paddy-mapping dashboard's view of the imagery
// platform: the fixed study area, the map layer registry, and NDVI time series.
//
// # Study Area
//
// All queries run against one fixed region, the Shaligouraram-Kattangur paddy
// study area in Nalgonda District, Telangana (center near 17.2521 N, 79.3237 E).
// The boundary ships embedded as GeoJSON and can be overridden via config for
// deployments pointing at a different copy of the asset set.
//
// # Platform Assets
//
// Classification results are precomputed assets under
// projects/ee-unipvgee/assets/. The dashboard never trains or classifies
// anything; it only styles and displays:
//
//	Shaligouraram_kattangur_Shapefile  table  study-area boundary
//	NDVI_Threshold_Rice                image  rice mask from NDVI thresholding at 0.65
//	RF_Classified_Image                image  5-class Random Forest result
//	SVM_Classified_Image               image  5-class SVM result
//	RicePixelsRF                       image  rice-only mask from the RF result
//	RicePixelsSVM                      image  rice-only mask from the SVM result
//	GANESH_AREA                        table  paddy fields sampled for the NDVI series
//
// # Classification Classes
//
// The five-class layers encode: 0 rice, 1 lime/tangerine orchards,
// 2 forest/shrubs, 3 built-up/bare land, 4 water. Legend colors follow the
// published maps: rice red, orchards cyan, forest green, built-up grey,
// water blue.
//
// # NDVI Series Conventions
//
// Observations come from COPERNICUS/S2_SR_HARMONIZED scenes intersecting the
// study area with CLOUDY_PIXEL_PERCENTAGE under the configured ceiling
// (default 26). Each scene is cloud-masked server-side (cloud probability
// below 10, scene-classification shadow and cirrus classes excluded), NDVI is
// derived as (B8-B4)/(B8+B4), and the mean is reduced over the study area at
// 20 m scale. Dates use YYYY-MM-DD in UTC. The default window is the 2019
// rabi season (2019-01-01 to 2019-05-31), the season the classifiers were
// trained on.
package domain
