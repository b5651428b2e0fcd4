package catalog

import (
	"errors"
	"fmt"
)

// ValidateRoute checks the structural invariants of a loaded route: line
// geometry with [lon,lat] vertices, and (when present) parallel
// equal-length sample series with a monotonically non-decreasing distance
// series. A route without sample series is still valid.
func ValidateRoute(route *Route) error {
	if route == nil {
		return errors.New("route is nil")
	}

	if route.Geometry == nil || len(route.Geometry.LineSegments()) == 0 {
		return errors.New("route has no line geometry")
	}

	for segmentIndex, segment := range route.Geometry.LineSegments() {
		for vertexIndex, vertex := range segment {
			if len(vertex) < 2 {
				return fmt.Errorf("segment %d vertex %d is not a [lon,lat] pair", segmentIndex, vertexIndex)
			}

			if vertex[0] < -180 || vertex[0] > 180 || vertex[1] < -90 || vertex[1] > 90 {
				return fmt.Errorf("segment %d vertex %d is outside WGS84 bounds", segmentIndex, vertexIndex)
			}
		}
	}

	if len(route.FlattenedCoordinates()) < 2 {
		return errors.New("route has fewer than 2 vertices")
	}

	if len(route.DistanceSeries) != len(route.ElevationSeries) {
		return fmt.Errorf("sample series length mismatch: %d distance vs %d elevation", len(route.DistanceSeries), len(route.ElevationSeries))
	}

	for sampleIndex := 1; sampleIndex < len(route.DistanceSeries); sampleIndex++ {
		if route.DistanceSeries[sampleIndex] < route.DistanceSeries[sampleIndex-1] {
			return fmt.Errorf("distance series decreases at sample %d", sampleIndex)
		}
	}

	return nil
}

// Validate runs ValidateRoute over every route in the catalog and also
// rejects duplicate event or route identifiers, which would break layer id
// uniqueness downstream.
func Validate(loadedCatalog *Catalog) []error {
	var validationErrors []error

	seenIdentifiers := map[string]bool{}

	for _, event := range loadedCatalog.Events {
		if seenIdentifiers[event.PrimaryIdentifier] {
			validationErrors = append(validationErrors, fmt.Errorf("duplicate event identifier %s", event.PrimaryIdentifier))
		}
		seenIdentifiers[event.PrimaryIdentifier] = true

		for _, route := range event.Routes {
			if seenIdentifiers[route.PrimaryIdentifier] {
				validationErrors = append(validationErrors, fmt.Errorf("duplicate route identifier %s", route.PrimaryIdentifier))
			}
			seenIdentifiers[route.PrimaryIdentifier] = true

			if err := ValidateRoute(route); err != nil {
				validationErrors = append(validationErrors, fmt.Errorf("route %s: %w", route.PrimaryIdentifier, err))
			}
		}
	}

	return validationErrors
}
