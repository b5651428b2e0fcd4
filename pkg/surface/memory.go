package surface

import (
	"fmt"
	"sync"

	"github.com/ridemap/ridemap/pkg/geojson"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MemorySurface is a full RenderSurface that records every operation. It
// backs the headless simulate command and the package tests, where a real
// rendering surface is unavailable.
type MemorySurface struct {
	mutex sync.Mutex

	styleReady     bool
	readyCallbacks map[int]func()
	nextCallbackID int

	sources    map[string]*geojson.FeatureCollection
	layerOrder []string
	layers     map[string]LayerSpec

	zoom   float64
	Camera []CameraRecord

	Operations []string

	released bool
}

type CameraRecord struct {
	Kind    string
	Bounds  BoundingBox
	Options CameraOptions
}

func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		readyCallbacks: map[int]func(){},
		sources:        map[string]*geojson.FeatureCollection{},
		layers:         map[string]LayerSpec{},
		zoom:           1,
	}
}

func (memorySurface *MemorySurface) StyleReady() bool {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	return memorySurface.styleReady
}

func (memorySurface *MemorySurface) OnStyleReady(fn func()) (cancel func()) {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	callbackID := memorySurface.nextCallbackID
	memorySurface.nextCallbackID++
	memorySurface.readyCallbacks[callbackID] = fn

	return func() {
		memorySurface.mutex.Lock()
		defer memorySurface.mutex.Unlock()

		delete(memorySurface.readyCallbacks, callbackID)
	}
}

// SetStyleReady fires the one-shot style-ready signal, draining every
// deferred callback in registration order.
func (memorySurface *MemorySurface) SetStyleReady() {
	memorySurface.mutex.Lock()

	memorySurface.styleReady = true

	callbackIDs := maps.Keys(memorySurface.readyCallbacks)
	slices.Sort(callbackIDs)

	callbacks := make([]func(), 0, len(callbackIDs))
	for _, callbackID := range callbackIDs {
		callbacks = append(callbacks, memorySurface.readyCallbacks[callbackID])
	}
	memorySurface.readyCallbacks = map[int]func(){}

	memorySurface.mutex.Unlock()

	for _, callback := range callbacks {
		callback()
	}
}

func (memorySurface *MemorySurface) HasSource(id string) bool {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	_, exists := memorySurface.sources[id]
	return exists
}

func (memorySurface *MemorySurface) AddSource(id string, data *geojson.FeatureCollection) error {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	if _, exists := memorySurface.sources[id]; exists {
		return fmt.Errorf("source %s already exists", id)
	}

	memorySurface.sources[id] = data
	memorySurface.record("add-source:%s", id)

	return nil
}

func (memorySurface *MemorySurface) SetSourceData(id string, data *geojson.FeatureCollection) error {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	if _, exists := memorySurface.sources[id]; !exists {
		return fmt.Errorf("source %s does not exist", id)
	}

	memorySurface.sources[id] = data
	memorySurface.record("set-source-data:%s", id)

	return nil
}

func (memorySurface *MemorySurface) RemoveSource(id string) error {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	if _, exists := memorySurface.sources[id]; !exists {
		return fmt.Errorf("source %s does not exist", id)
	}

	delete(memorySurface.sources, id)
	memorySurface.record("remove-source:%s", id)

	return nil
}

func (memorySurface *MemorySurface) SourceData(id string) *geojson.FeatureCollection {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	return memorySurface.sources[id]
}

func (memorySurface *MemorySurface) HasLayer(id string) bool {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	_, exists := memorySurface.layers[id]
	return exists
}

func (memorySurface *MemorySurface) AddLayer(spec LayerSpec) error {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	if _, exists := memorySurface.layers[spec.ID]; exists {
		return fmt.Errorf("layer %s already exists", spec.ID)
	}

	if _, exists := memorySurface.sources[spec.SourceID]; !exists {
		return fmt.Errorf("layer %s references missing source %s", spec.ID, spec.SourceID)
	}

	inserted := false
	if spec.Beneath != "" {
		for orderIndex, layerID := range memorySurface.layerOrder {
			if layerID == spec.Beneath {
				memorySurface.layerOrder = append(memorySurface.layerOrder[:orderIndex], append([]string{spec.ID}, memorySurface.layerOrder[orderIndex:]...)...)
				inserted = true
				break
			}
		}
	}
	if !inserted {
		memorySurface.layerOrder = append(memorySurface.layerOrder, spec.ID)
	}

	memorySurface.layers[spec.ID] = spec
	memorySurface.record("add-layer:%s", spec.ID)

	return nil
}

func (memorySurface *MemorySurface) RemoveLayer(id string) error {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	if _, exists := memorySurface.layers[id]; !exists {
		return fmt.Errorf("layer %s does not exist", id)
	}

	delete(memorySurface.layers, id)

	for orderIndex, layerID := range memorySurface.layerOrder {
		if layerID == id {
			memorySurface.layerOrder = append(memorySurface.layerOrder[:orderIndex], memorySurface.layerOrder[orderIndex+1:]...)
			break
		}
	}

	memorySurface.record("remove-layer:%s", id)

	return nil
}

func (memorySurface *MemorySurface) SetPaintProperty(layerID string, name string, value any) error {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	layer, exists := memorySurface.layers[layerID]
	if !exists {
		return fmt.Errorf("layer %s does not exist", layerID)
	}

	paint := map[string]any{}
	for paintKey, paintValue := range layer.Paint {
		paint[paintKey] = paintValue
	}
	paint[name] = value
	layer.Paint = paint
	memorySurface.layers[layerID] = layer

	memorySurface.record("set-paint:%s:%s", layerID, name)

	return nil
}

func (memorySurface *MemorySurface) Layer(id string) (LayerSpec, bool) {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	layer, exists := memorySurface.layers[id]
	return layer, exists
}

func (memorySurface *MemorySurface) LayerOrder() []string {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	order := make([]string, len(memorySurface.layerOrder))
	copy(order, memorySurface.layerOrder)

	return order
}

func (memorySurface *MemorySurface) FitBounds(bounds BoundingBox, options CameraOptions) {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	memorySurface.Camera = append(memorySurface.Camera, CameraRecord{
		Kind:    "fit-bounds",
		Bounds:  bounds,
		Options: options,
	})
	memorySurface.record("fit-bounds")
}

func (memorySurface *MemorySurface) EaseTo(options CameraOptions) {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	if options.Zoom != 0 {
		memorySurface.zoom = options.Zoom
	}

	memorySurface.Camera = append(memorySurface.Camera, CameraRecord{
		Kind:    "ease-to",
		Options: options,
	})
	memorySurface.record("ease-to")
}

func (memorySurface *MemorySurface) Zoom() float64 {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	return memorySurface.zoom
}

func (memorySurface *MemorySurface) Released() bool {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	return memorySurface.released
}

func (memorySurface *MemorySurface) Release() {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	memorySurface.released = true
	memorySurface.readyCallbacks = map[int]func(){}
	memorySurface.record("release")
}

// OperationCount returns how many mutations have been recorded so far,
// which lets tests assert that a reconciliation pass was a no-op.
func (memorySurface *MemorySurface) OperationCount() int {
	memorySurface.mutex.Lock()
	defer memorySurface.mutex.Unlock()

	return len(memorySurface.Operations)
}

func (memorySurface *MemorySurface) record(format string, args ...any) {
	memorySurface.Operations = append(memorySurface.Operations, fmt.Sprintf(format, args...))
}
