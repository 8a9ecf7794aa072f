package earthengine

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
)

// The platform evaluates serialized expression graphs: a table of named value
// nodes plus a result pointer, where each node is either a constant or a
// function invocation referencing other nodes by name. The builders below
// emit the three fixed shapes the dashboard needs (styled layer, drawn
// boundary, per-scene masked NDVI mean). They make no attempt at arbitrary
// expressions; in particular every chain is linear, which keeps lambda nodes
// out of the wire format entirely.

// cloudProbMax is the cloud-probability ceiling of the study's scene mask.
// Pixels at or above it are dropped before NDVI is computed.
const cloudProbMax = 10

// SCL classes excluded by the scene mask.
const (
	sclShadow = 3
	sclCirrus = 10
)

type expression struct {
	Result string               `json:"result"`
	Values map[string]valueNode `json:"values"`
}

type valueNode struct {
	Constant   *any        `json:"constantValue,omitempty"`
	Invocation *invocation `json:"functionInvocationValue,omitempty"`
}

type invocation struct {
	FunctionName string              `json:"functionName"`
	Arguments    map[string]argument `json:"arguments"`
}

type argument struct {
	Constant *any   `json:"constantValue,omitempty"`
	Ref      string `json:"valueReference,omitempty"`
}

func constArg(v any) argument { return argument{Constant: &v} }

func refArg(name string) argument { return argument{Ref: name} }

func invoke(fn string, args map[string]argument) valueNode {
	return valueNode{Invocation: &invocation{FunctionName: fn, Arguments: args}}
}

// layerExpression builds the styled-visualization graph for one registry layer.
func layerExpression(layer domain.LayerSpec) (expression, error) {
	switch layer.Kind {
	case domain.AssetTable:
		return tableExpression(layer), nil
	case domain.AssetImage:
		return imageExpression(layer), nil
	default:
		return expression{}, fmt.Errorf("layer %s: unknown asset kind %q", layer.ID, layer.Kind)
	}
}

// imageExpression loads a raster asset, optionally clips it to the study
// boundary, and stretches it through the layer's palette.
func imageExpression(l domain.LayerSpec) expression {
	values := map[string]valueNode{
		"image": invoke("Image.load", map[string]argument{
			"id": constArg(l.Asset),
		}),
	}

	src := "image"
	if l.Clip {
		values["boundary"] = invoke("Collection.loadTable", map[string]argument{
			"tableId": constArg(domain.AssetBoundary),
		})
		values["clipped"] = invoke("Image.clipToCollection", map[string]argument{
			"input":      refArg(src),
			"collection": refArg("boundary"),
		})
		src = "clipped"
	}

	visArgs := map[string]argument{
		"image": refArg(src),
		"min":   constArg([]float64{l.Vis.Min}),
		"max":   constArg([]float64{l.Vis.Max}),
	}
	if len(l.Vis.Palette) > 0 {
		visArgs["palette"] = constArg(l.Vis.Palette)
	}
	values["vis"] = invoke("Image.visualize", visArgs)

	return expression{Result: "vis", Values: values}
}

// tableExpression draws a table asset as an outline image.
func tableExpression(l domain.LayerSpec) expression {
	color := l.Vis.Color
	if color == "" {
		color = "black"
	}
	return expression{
		Result: "drawn",
		Values: map[string]valueNode{
			"table": invoke("Collection.loadTable", map[string]argument{
				"tableId": constArg(l.Asset),
			}),
			"drawn": invoke("Collection.draw", map[string]argument{
				"collection":  refArg("table"),
				"color":       constArg(color),
				"strokeWidth": constArg(2),
			}),
		},
	}
}

// meanNDVIExpression builds the per-scene reduction: mask clouds and shadows,
// derive NDVI from B8/B4, and reduce its mean over the study area at the
// given scale. The mask matches the published study: cloud probability under
// cloudProbMax, SCL shadow and cirrus classes excluded.
func meanNDVIExpression(sceneID string, area domain.StudyArea, scaleM float64) (expression, error) {
	region, err := geometryNode(area.Geometry)
	if err != nil {
		return expression{}, err
	}

	values := map[string]valueNode{
		"image": invoke("Image.load", map[string]argument{
			"id": constArg(sceneID),
		}),

		"cloudProb": invoke("Image.select", map[string]argument{
			"input":         refArg("image"),
			"bandSelectors": constArg([]string{"MSK_CLDPRB"}),
		}),
		"probLimit": invoke("Image.constant", map[string]argument{
			"value": constArg(cloudProbMax),
		}),
		"clear": invoke("Image.lt", map[string]argument{
			"image1": refArg("cloudProb"),
			"image2": refArg("probLimit"),
		}),

		"scl": invoke("Image.select", map[string]argument{
			"input":         refArg("image"),
			"bandSelectors": constArg([]string{"SCL"}),
		}),
		"shadowClass": invoke("Image.constant", map[string]argument{
			"value": constArg(sclShadow),
		}),
		"cirrusClass": invoke("Image.constant", map[string]argument{
			"value": constArg(sclCirrus),
		}),
		"shadow": invoke("Image.eq", map[string]argument{
			"image1": refArg("scl"),
			"image2": refArg("shadowClass"),
		}),
		"cirrus": invoke("Image.eq", map[string]argument{
			"image1": refArg("scl"),
			"image2": refArg("cirrusClass"),
		}),
		"noCirrus": invoke("Image.not", map[string]argument{
			"value": refArg("cirrus"),
		}),
		"noShadow": invoke("Image.not", map[string]argument{
			"value": refArg("shadow"),
		}),
		"clearNoCirrus": invoke("Image.and", map[string]argument{
			"image1": refArg("clear"),
			"image2": refArg("noCirrus"),
		}),
		"mask": invoke("Image.and", map[string]argument{
			"image1": refArg("clearNoCirrus"),
			"image2": refArg("noShadow"),
		}),
		"masked": invoke("Image.updateMask", map[string]argument{
			"image": refArg("image"),
			"mask":  refArg("mask"),
		}),

		"nd": invoke("Image.normalizedDifference", map[string]argument{
			"input":     refArg("masked"),
			"bandNames": constArg([]string{"B8", "B4"}),
		}),
		"ndvi": invoke("Image.rename", map[string]argument{
			"input": refArg("nd"),
			"names": constArg([]string{"NDVI"}),
		}),

		"region":      region,
		"meanReducer": invoke("Reducer.mean", map[string]argument{}),
		"mean": invoke("Image.reduceRegion", map[string]argument{
			"image":    refArg("ndvi"),
			"reducer":  refArg("meanReducer"),
			"geometry": refArg("region"),
			"scale":    constArg(scaleM),
		}),
	}

	return expression{Result: "mean", Values: values}, nil
}

// geometryNode encodes the study-area geometry as a constructor invocation.
// orb types marshal to plain coordinate arrays, which is exactly what the
// constructors take.
func geometryNode(g orb.Geometry) (valueNode, error) {
	switch geom := g.(type) {
	case orb.Polygon:
		return invoke("GeometryConstructors.Polygon", map[string]argument{
			"coordinates": constArg(geom),
		}), nil
	case orb.MultiPolygon:
		return invoke("GeometryConstructors.MultiPolygon", map[string]argument{
			"coordinates": constArg(geom),
		}), nil
	default:
		return valueNode{}, fmt.Errorf("unsupported region geometry %T", g)
	}
}
