package domain

import (
	_ "embed"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// DefaultZoom is the initial map zoom over the study area.
const DefaultZoom = 11

//go:embed studyarea.geojson
var defaultStudyAreaGeoJSON []byte

// StudyArea is the fixed region every query runs against.
type StudyArea struct {
	Name     string
	Geometry orb.Geometry
}

// DefaultStudyArea returns the embedded Shaligouraram-Kattangur boundary.
func DefaultStudyArea() (StudyArea, error) {
	return ParseStudyArea("Shaligouraram-Kattangur", defaultStudyAreaGeoJSON)
}

// ParseStudyArea reads a GeoJSON FeatureCollection of polygons. A "name"
// property on the first feature overrides the given name. Multiple features
// merge into one multipolygon so the region reduces as a single geometry.
func ParseStudyArea(name string, data []byte) (StudyArea, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return StudyArea{}, fmt.Errorf("parse study area: %w", err)
	}
	if len(fc.Features) == 0 {
		return StudyArea{}, fmt.Errorf("parse study area: no features")
	}

	var mp orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		default:
			return StudyArea{}, fmt.Errorf("parse study area: unsupported geometry %T", g)
		}
	}

	if n := fc.Features[0].Properties.MustString("name", ""); n != "" {
		name = n
	}

	var geom orb.Geometry = mp
	if len(mp) == 1 {
		geom = mp[0]
	}
	return StudyArea{Name: name, Geometry: geom}, nil
}

// Centroid is the map center, as (lon, lat).
func (a StudyArea) Centroid() orb.Point {
	c, _ := planar.CentroidArea(a.Geometry)
	return c
}

// Bound is the bounding box of the boundary.
func (a StudyArea) Bound() orb.Bound {
	return a.Geometry.Bound()
}

// AreaHectares is the geodesic area of the boundary in hectares.
func (a StudyArea) AreaHectares() float64 {
	return math.Abs(geo.Area(a.Geometry)) / 10_000
}

// GeoJSON wraps the boundary for region parameters in platform requests.
func (a StudyArea) GeoJSON() *geojson.Geometry {
	return geojson.NewGeometry(a.Geometry)
}
