package surface

import (
	"time"

	"github.com/ridemap/ridemap/pkg/geojson"
)

type BoundingBox struct {
	SouthWest []float64
	NorthEast []float64
}

type Padding struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// CameraOptions describes a bounded, time-limited camera animation. A zero
// Zoom leaves the current zoom untouched.
type CameraOptions struct {
	Center   []float64
	Zoom     float64
	Padding  Padding
	Duration time.Duration
}

// LayerSpec describes one named visual overlay bound to a source. Beneath
// optionally anchors the layer immediately below a named sibling so the
// stacking order stays fixed regardless of add order.
type LayerSpec struct {
	ID       string
	SourceID string
	Type     string
	Paint    map[string]any
	Beneath  string
}

// RenderSurface is the stateful, asynchronously-initialized rendering
// resource. Mutating sources or layers before the style is ready is
// undefined behaviour; every caller goes through Manager.WhenReady.
type RenderSurface interface {
	StyleReady() bool
	OnStyleReady(fn func()) (cancel func())

	HasSource(id string) bool
	AddSource(id string, data *geojson.FeatureCollection) error
	SetSourceData(id string, data *geojson.FeatureCollection) error
	RemoveSource(id string) error

	HasLayer(id string) bool
	AddLayer(spec LayerSpec) error
	RemoveLayer(id string) error
	SetPaintProperty(layerID string, name string, value any) error

	FitBounds(bounds BoundingBox, options CameraOptions)
	EaseTo(options CameraOptions)
	Zoom() float64

	Release()
}

// Factory instantiates a surface. It returns ErrContainerNotAttached while
// the surface's container is not yet attached, in which case creation is
// silently skipped and retried on a later Create call.
type Factory func() (RenderSurface, error)
