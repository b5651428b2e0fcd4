package geojson

import (
	"encoding/json"
	"fmt"
)

type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Geometry   *Geometry      `json:"geometry"`
}

// Geometry holds one decoded GeoJSON geometry. LineStrings carries one
// entry per line segment regardless of whether the source geometry was a
// LineString or a MultiLineString, so consumers never need to branch on
// the two.
type Geometry struct {
	Type        string
	Point       []float64
	LineStrings [][][]float64
}

type geometryWire struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	var wire geometryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	g.Type = wire.Type

	switch wire.Type {
	case "Point":
		return json.Unmarshal(wire.Coordinates, &g.Point)
	case "LineString":
		var line [][]float64
		if err := json.Unmarshal(wire.Coordinates, &line); err != nil {
			return err
		}
		g.LineStrings = [][][]float64{line}
		return nil
	case "MultiLineString":
		return json.Unmarshal(wire.Coordinates, &g.LineStrings)
	default:
		return fmt.Errorf("unsupported geometry type %s", wire.Type)
	}
}

func (g *Geometry) MarshalJSON() ([]byte, error) {
	var coordinates any

	switch g.Type {
	case "Point":
		coordinates = g.Point
	case "LineString":
		if len(g.LineStrings) == 0 {
			coordinates = [][]float64{}
		} else {
			coordinates = g.LineStrings[0]
		}
	case "MultiLineString":
		coordinates = g.LineStrings
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.Type)
	}

	return json.Marshal(geometryWire{
		Type:        g.Type,
		Coordinates: mustMarshal(coordinates),
	})
}

func mustMarshal(value any) json.RawMessage {
	data, _ := json.Marshal(value)
	return data
}

func NewPoint(coordinate []float64) *Feature {
	return &Feature{
		Type: "Feature",
		Geometry: &Geometry{
			Type:  "Point",
			Point: coordinate,
		},
	}
}

func NewLineString(coordinates [][]float64) *Feature {
	return &Feature{
		Type: "Feature",
		Geometry: &Geometry{
			Type:        "LineString",
			LineStrings: [][][]float64{coordinates},
		},
	}
}

func NewFeatureCollection(features ...*Feature) *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// LineSegments returns every line segment in the collection in feature
// order, ignoring non-line features.
func (fc *FeatureCollection) LineSegments() [][][]float64 {
	var segments [][][]float64

	if fc == nil {
		return segments
	}

	for _, feature := range fc.Features {
		if feature == nil || feature.Geometry == nil {
			continue
		}

		segments = append(segments, feature.Geometry.LineStrings...)
	}

	return segments
}
