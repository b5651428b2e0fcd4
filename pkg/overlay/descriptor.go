package overlay

import (
	"github.com/ridemap/ridemap/pkg/geojson"
	"golang.org/x/exp/slices"
)

// Stable ids for the overlay groups this package owns. The playback and
// live-position dots are owned by their engines but named here so layers
// can anchor beneath them.
const (
	GhostRoutesID       = "ghost-routes"
	EventRoutesID       = "event-routes"
	SelectedRouteGlowID = "selected-route-glow"
	SelectedRouteID     = "selected-route"
	RouteEndpointsID    = "route-endpoints"

	PlaybackPositionID = "playback-position"
	LivePositionID     = "live-position"
)

type SourceDescriptor struct {
	ID   string
	Data *geojson.FeatureCollection
}

// LayerDescriptor is the desired form of one named visual overlay. Beneath
// anchors the layer under a sibling to keep the stacking order fixed:
// ghost backdrop beneath event underlay beneath selected highlight beneath
// endpoint markers beneath the position dots.
type LayerDescriptor struct {
	ID       string
	SourceID string
	Type     string
	Paint    map[string]any
	Beneath  string
}

// DesiredState is the full set of sources and layers implied by the
// current selections, in bottom-to-top order.
type DesiredState struct {
	Sources []SourceDescriptor
	Layers  []LayerDescriptor
}

func (state DesiredState) findSource(id string) (SourceDescriptor, bool) {
	sourceIndex := slices.IndexFunc(state.Sources, func(source SourceDescriptor) bool {
		return source.ID == id
	})
	if sourceIndex == -1 {
		return SourceDescriptor{}, false
	}

	return state.Sources[sourceIndex], true
}

func (state DesiredState) findLayer(id string) (LayerDescriptor, bool) {
	layerIndex := slices.IndexFunc(state.Layers, func(layer LayerDescriptor) bool {
		return layer.ID == id
	})
	if layerIndex == -1 {
		return LayerDescriptor{}, false
	}

	return state.Layers[layerIndex], true
}
