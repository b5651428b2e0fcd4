package tracker

import (
	"sync"
	"time"

	"github.com/ridemap/ridemap/pkg/geojson"
	"github.com/ridemap/ridemap/pkg/overlay"
	"github.com/ridemap/ridemap/pkg/surface"
	"github.com/rs/zerolog/log"
)

type Config struct {
	SensorOptions SensorOptions

	// MinZoom is the zoom the camera is raised to when following fixes.
	// Zoom is only ever increased so a user's zoom-out is not undone.
	MinZoom      float64
	EaseDuration time.Duration
}

func DefaultConfig() Config {
	return Config{
		SensorOptions: SensorOptions{
			HighAccuracy: true,
			MaximumAge:   2 * time.Second,
			Timeout:      30 * time.Second,
		},
		MinZoom:      14,
		EaseDuration: 500 * time.Millisecond,
	}
}

// Tracker wraps the continuous position sensor. While enabled it streams
// fixes into a dedicated marker layer and recenters the camera; disabling
// tears down the subscription, removes the layer and re-frames the
// selected route. At most one subscription is ever active.
type Tracker struct {
	mutex sync.Mutex

	manager *surface.Manager
	sensor  PositionSensor
	config  Config

	active      bool
	cancelWatch func()
	cancelFix   func()
	lastFix     *Fix

	// onDisable is the restorative action run after an explicit disable,
	// typically re-framing the camera on the selected route.
	onDisable func()
}

func NewTracker(manager *surface.Manager, sensor PositionSensor, config Config) *Tracker {
	return &Tracker{
		manager: manager,
		sensor:  sensor,
		config:  config,
	}
}

func (tracker *Tracker) OnDisable(fn func()) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	tracker.onDisable = fn
}

func (tracker *Tracker) Active() bool {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.active
}

func (tracker *Tracker) LastFix() *Fix {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	return tracker.lastFix
}

// Enable starts streaming fixes. An already-active subscription is torn
// down first so at most one session ever exists.
func (tracker *Tracker) Enable() error {
	tracker.mutex.Lock()

	if tracker.active {
		tracker.mutex.Unlock()
		tracker.teardown(false)
		tracker.mutex.Lock()
	}

	cancelWatch, err := tracker.sensor.Watch(tracker.config.SensorOptions, tracker.handleFix, tracker.handleError)
	if err != nil {
		tracker.mutex.Unlock()
		return err
	}

	tracker.active = true
	tracker.cancelWatch = cancelWatch
	tracker.mutex.Unlock()

	log.Info().Msg("Live position tracking enabled")

	return nil
}

// Disable cancels the subscription, removes the marker layer and runs the
// restorative re-frame so the view does not end on an arbitrary
// off-route position.
func (tracker *Tracker) Disable() {
	tracker.teardown(true)
}

// Teardown releases the subscription and marker without the restorative
// camera action. Called on final component teardown so the sensor never
// outlives the surface.
func (tracker *Tracker) Teardown() {
	tracker.teardown(false)
}

func (tracker *Tracker) teardown(restoreCamera bool) {
	tracker.mutex.Lock()

	wasActive := tracker.active
	tracker.active = false
	tracker.lastFix = nil

	if tracker.cancelWatch != nil {
		tracker.cancelWatch()
		tracker.cancelWatch = nil
	}
	if tracker.cancelFix != nil {
		tracker.cancelFix()
		tracker.cancelFix = nil
	}

	onDisable := tracker.onDisable
	tracker.mutex.Unlock()

	if !wasActive {
		return
	}

	tracker.manager.WhenReady(func() {
		liveSurface := tracker.manager.Surface()
		if liveSurface == nil {
			return
		}

		if liveSurface.HasLayer(overlay.LivePositionID) {
			liveSurface.RemoveLayer(overlay.LivePositionID)
		}
		if liveSurface.HasSource(overlay.LivePositionID) {
			liveSurface.RemoveSource(overlay.LivePositionID)
		}
	})

	log.Info().Msg("Live position tracking disabled")

	if restoreCamera && onDisable != nil {
		onDisable()
	}
}

func (tracker *Tracker) handleFix(fix Fix) {
	tracker.mutex.Lock()

	if !tracker.active {
		tracker.mutex.Unlock()
		return
	}

	tracker.lastFix = &fix

	if tracker.cancelFix != nil {
		tracker.cancelFix()
	}

	tracker.cancelFix = tracker.manager.WhenReady(func() {
		tracker.applyFix(fix)
	})

	tracker.mutex.Unlock()
}

func (tracker *Tracker) applyFix(fix Fix) {
	liveSurface := tracker.manager.Surface()
	if liveSurface == nil {
		return
	}

	fixPoint := geojson.NewPoint([]float64{fix.Longitude, fix.Latitude})
	fixData := geojson.NewFeatureCollection(fixPoint)

	if !liveSurface.HasSource(overlay.LivePositionID) {
		liveSurface.AddSource(overlay.LivePositionID, fixData)
	} else {
		liveSurface.SetSourceData(overlay.LivePositionID, fixData)
	}

	if !liveSurface.HasLayer(overlay.LivePositionID) {
		liveSurface.AddLayer(surface.LayerSpec{
			ID:       overlay.LivePositionID,
			SourceID: overlay.LivePositionID,
			Type:     "circle",
			Paint: map[string]any{
				"circle-color":        "#1a73e8",
				"circle-radius":       7,
				"circle-stroke-color": "#ffffff",
				"circle-stroke-width": 2,
			},
		})
	}

	cameraOptions := surface.CameraOptions{
		Center:   []float64{fix.Longitude, fix.Latitude},
		Duration: tracker.config.EaseDuration,
	}

	if liveSurface.Zoom() < tracker.config.MinZoom {
		cameraOptions.Zoom = tracker.config.MinZoom
	}

	liveSurface.EaseTo(cameraOptions)
}

// Sensor errors leave the session enabled; the marker simply stops
// updating until the next successful fix.
func (tracker *Tracker) handleError(err error) {
	log.Warn().Err(err).Msg("Position sensor error")
}
