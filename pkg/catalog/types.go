package catalog

import (
	"time"

	"github.com/ridemap/ridemap/pkg/geojson"
)

type RouteLabel string

const (
	RouteLabelShort  RouteLabel = "Short"
	RouteLabelMedium            = "Medium"
	RouteLabelLong              = "Long"
	RouteLabelEpic              = "Epic"
)

type Route struct {
	PrimaryIdentifier string     `groups:"basic"`
	Label             RouteLabel `groups:"basic"`
	Colour            string     `groups:"basic"`

	Geometry *geojson.FeatureCollection `groups:"detailed"`

	DistanceMeters      float64 `groups:"basic"`
	ElevationGainMeters float64 `groups:"basic"`

	// Parallel sample series in meters. DistanceSeries is monotonically
	// non-decreasing; both are the same length when present.
	DistanceSeries  []float64 `groups:"detailed"`
	ElevationSeries []float64 `groups:"detailed"`
}

type Event struct {
	PrimaryIdentifier string    `groups:"basic"`
	Name              string    `groups:"basic"`
	Date              time.Time `groups:"basic"`

	Routes []*Route `groups:"basic"`
}

type Catalog struct {
	Name   string   `groups:"basic"`
	Events []*Event `groups:"basic"`
}

// FlattenedCoordinates concatenates every line segment of the route's
// geometry in segment order into a single [lon,lat] vertex sequence.
func (route *Route) FlattenedCoordinates() [][]float64 {
	var coordinates [][]float64

	if route == nil || route.Geometry == nil {
		return coordinates
	}

	for _, segment := range route.Geometry.LineSegments() {
		coordinates = append(coordinates, segment...)
	}

	return coordinates
}

// BoundingBox returns the south-west and north-east corners of the
// route's vertices. ok is false when the route has no usable geometry.
func (route *Route) BoundingBox() (southWest []float64, northEast []float64, ok bool) {
	coordinates := route.FlattenedCoordinates()
	if len(coordinates) == 0 {
		return nil, nil, false
	}

	southWest = []float64{coordinates[0][0], coordinates[0][1]}
	northEast = []float64{coordinates[0][0], coordinates[0][1]}

	for _, coordinate := range coordinates[1:] {
		if coordinate[0] < southWest[0] {
			southWest[0] = coordinate[0]
		}
		if coordinate[1] < southWest[1] {
			southWest[1] = coordinate[1]
		}
		if coordinate[0] > northEast[0] {
			northEast[0] = coordinate[0]
		}
		if coordinate[1] > northEast[1] {
			northEast[1] = coordinate[1]
		}
	}

	return southWest, northEast, true
}

// StartFinish returns the first and last vertex of the route in segment
// order. ok is false when the route yields fewer than 2 usable vertices.
func (route *Route) StartFinish() (start []float64, finish []float64, ok bool) {
	coordinates := route.FlattenedCoordinates()
	if len(coordinates) < 2 {
		return nil, nil, false
	}

	return coordinates[0], coordinates[len(coordinates)-1], true
}

func (event *Event) DefaultRoute() *Route {
	if event == nil || len(event.Routes) == 0 {
		return nil
	}

	return event.Routes[0]
}

func (event *Event) FindRoute(identifier string) *Route {
	if event == nil {
		return nil
	}

	for _, route := range event.Routes {
		if route.PrimaryIdentifier == identifier {
			return route
		}
	}

	return nil
}

func (catalog *Catalog) FindEvent(identifier string) *Event {
	if catalog == nil {
		return nil
	}

	for _, event := range catalog.Events {
		if event.PrimaryIdentifier == identifier {
			return event
		}
	}

	return nil
}
