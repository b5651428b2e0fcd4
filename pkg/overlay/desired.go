package overlay

import (
	"github.com/ridemap/ridemap/pkg/catalog"
	"github.com/ridemap/ridemap/pkg/geojson"
)

// ComputeDesired derives the full desired overlay set from the current
// selections. Groups whose triggering state is absent (no catalog, no
// active event, no selected route, degenerate geometry) are simply left
// out, which the reconciler turns into removals.
func ComputeDesired(loadedCatalog *catalog.Catalog, activeEvent *catalog.Event, selectedRoute *catalog.Route, config Config) DesiredState {
	var desired DesiredState

	if ghostData := ghostBackdrop(loadedCatalog, activeEvent, config.GhostStride); ghostData != nil {
		desired.Sources = append(desired.Sources, SourceDescriptor{ID: GhostRoutesID, Data: ghostData})
		desired.Layers = append(desired.Layers, LayerDescriptor{
			ID:       GhostRoutesID,
			SourceID: GhostRoutesID,
			Type:     "line",
			Paint: map[string]any{
				"line-color":   config.GhostColour,
				"line-width":   config.GhostWidth,
				"line-opacity": config.GhostOpacity,
			},
			Beneath: EventRoutesID,
		})
	}

	if underlayData := eventUnderlay(activeEvent); underlayData != nil {
		desired.Sources = append(desired.Sources, SourceDescriptor{ID: EventRoutesID, Data: underlayData})
		desired.Layers = append(desired.Layers, LayerDescriptor{
			ID:       EventRoutesID,
			SourceID: EventRoutesID,
			Type:     "line",
			Paint: map[string]any{
				"line-color":   []any{"get", "colour"},
				"line-width":   config.LineWidth,
				"line-opacity": config.EventOpacity,
			},
			Beneath: SelectedRouteGlowID,
		})
	}

	if selectedRoute != nil && selectedRoute.Geometry != nil && len(selectedRoute.Geometry.LineSegments()) > 0 {
		desired.Sources = append(desired.Sources, SourceDescriptor{ID: SelectedRouteID, Data: selectedRoute.Geometry})
		desired.Layers = append(desired.Layers,
			LayerDescriptor{
				ID:       SelectedRouteGlowID,
				SourceID: SelectedRouteID,
				Type:     "line",
				Paint: map[string]any{
					"line-color":   selectedRoute.Colour,
					"line-width":   config.GlowWidth,
					"line-opacity": config.GlowOpacity,
				},
				Beneath: SelectedRouteID,
			},
			LayerDescriptor{
				ID:       SelectedRouteID,
				SourceID: SelectedRouteID,
				Type:     "line",
				Paint: map[string]any{
					"line-color": selectedRoute.Colour,
					"line-width": config.LineWidth,
				},
				Beneath: RouteEndpointsID,
			},
		)

		if endpointData := routeEndpoints(selectedRoute); endpointData != nil {
			desired.Sources = append(desired.Sources, SourceDescriptor{ID: RouteEndpointsID, Data: endpointData})
			desired.Layers = append(desired.Layers, LayerDescriptor{
				ID:       RouteEndpointsID,
				SourceID: RouteEndpointsID,
				Type:     "circle",
				Paint: map[string]any{
					"circle-color":        []any{"get", "colour"},
					"circle-radius":       config.EndpointRadius,
					"circle-stroke-color": "#ffffff",
					"circle-stroke-width": 1.5,
				},
				Beneath: PlaybackPositionID,
			})
		}
	}

	return desired
}

// ghostBackdrop renders every route not belonging to the active event at
// low opacity for spatial context. Coordinates are thinned to bound
// rendering cost, and the active event is excluded so its geometry is not
// drawn at two opacities.
func ghostBackdrop(loadedCatalog *catalog.Catalog, activeEvent *catalog.Event, stride int) *geojson.FeatureCollection {
	if loadedCatalog == nil {
		return nil
	}

	var features []*geojson.Feature

	for _, event := range loadedCatalog.Events {
		if activeEvent != nil && event.PrimaryIdentifier == activeEvent.PrimaryIdentifier {
			continue
		}

		for _, route := range event.Routes {
			if route.Geometry == nil {
				continue
			}

			for _, segment := range route.Geometry.LineSegments() {
				thinned := thinCoordinates(segment, stride)
				if len(thinned) < 2 {
					continue
				}

				features = append(features, geojson.NewLineString(thinned))
			}
		}
	}

	if len(features) == 0 {
		return nil
	}

	return geojson.NewFeatureCollection(features...)
}

func eventUnderlay(activeEvent *catalog.Event) *geojson.FeatureCollection {
	if activeEvent == nil {
		return nil
	}

	var features []*geojson.Feature

	for _, route := range activeEvent.Routes {
		if route.Geometry == nil {
			continue
		}

		segments := route.Geometry.LineSegments()
		if len(segments) == 0 {
			continue
		}

		features = append(features, &geojson.Feature{
			Type: "Feature",
			Properties: map[string]any{
				"route":  route.PrimaryIdentifier,
				"colour": route.Colour,
			},
			Geometry: &geojson.Geometry{
				Type:        "MultiLineString",
				LineStrings: segments,
			},
		})
	}

	if len(features) == 0 {
		return nil
	}

	return geojson.NewFeatureCollection(features...)
}

func routeEndpoints(selectedRoute *catalog.Route) *geojson.FeatureCollection {
	start, finish, ok := selectedRoute.StartFinish()
	if !ok {
		return nil
	}

	startFeature := geojson.NewPoint(start)
	startFeature.Properties = map[string]any{"kind": "start", "colour": "#2d862d"}

	finishFeature := geojson.NewPoint(finish)
	finishFeature.Properties = map[string]any{"kind": "finish", "colour": "#c22929"}

	return geojson.NewFeatureCollection(startFeature, finishFeature)
}

// thinCoordinates keeps every strideth vertex plus the final vertex.
func thinCoordinates(coordinates [][]float64, stride int) [][]float64 {
	if stride <= 1 || len(coordinates) <= 2 {
		return coordinates
	}

	var thinned [][]float64

	for coordinateIndex := 0; coordinateIndex < len(coordinates); coordinateIndex += stride {
		thinned = append(thinned, coordinates[coordinateIndex])
	}

	lastCoordinate := coordinates[len(coordinates)-1]
	if len(thinned) == 0 || !sameCoordinate(thinned[len(thinned)-1], lastCoordinate) {
		thinned = append(thinned, lastCoordinate)
	}

	return thinned
}

func sameCoordinate(a []float64, b []float64) bool {
	return len(a) >= 2 && len(b) >= 2 && a[0] == b[0] && a[1] == b[1]
}
