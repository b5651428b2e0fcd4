package mapview

import (
	"fmt"
	"sync"

	"github.com/ridemap/ridemap/pkg/catalog"
	"github.com/ridemap/ridemap/pkg/elevation"
	"github.com/ridemap/ridemap/pkg/geojson"
	"github.com/ridemap/ridemap/pkg/overlay"
	"github.com/ridemap/ridemap/pkg/playback"
	"github.com/ridemap/ridemap/pkg/surface"
	"github.com/ridemap/ridemap/pkg/tracker"
	"github.com/rs/zerolog/log"
)

// View is the live multi-layer map of the series: one surface manager,
// one overlay reconciler, one playback engine, one live tracker and one
// elevation profile, with every state change routed through the ordering
// and cancellation rules they share.
type View struct {
	mutex sync.Mutex

	config Config

	manager    *surface.Manager
	reconciler *overlay.Reconciler
	engine     *playback.Engine
	tracker    *tracker.Tracker

	routeCatalog  *catalog.Catalog
	activeEvent   *catalog.Event
	selectedRoute *catalog.Route
	profile       elevation.Profile

	cancelDot func()
	closed    bool
}

// NewView wires the subsystems together and creates the surface. A nil
// scheduler gets the wall-clock ticker; tests pass a manual one.
func NewView(config Config, factory surface.Factory, positionSensor tracker.PositionSensor, scheduler playback.FrameScheduler) *View {
	if scheduler == nil {
		scheduler = playback.TickerScheduler{Interval: config.Playback.FrameInterval}
	}

	manager := surface.NewManager(factory)
	manager.Create()

	view := &View{
		config:     config,
		manager:    manager,
		reconciler: overlay.NewReconciler(manager, config.Overlay),
		engine:     playback.NewEngine(scheduler, config.Playback),
		tracker:    tracker.NewTracker(manager, positionSensor, config.Tracker),
	}

	view.engine.OnFrame(view.handlePlaybackFrame)

	view.tracker.OnDisable(func() {
		view.mutex.Lock()
		defer view.mutex.Unlock()

		view.reconciler.Reframe(view.selectedRoute)
	})

	return view
}

// SetCatalog installs the loaded catalog. When nothing is selected yet
// the first event and its default route become active.
func (view *View) SetCatalog(routeCatalog *catalog.Catalog) {
	view.mutex.Lock()
	defer view.mutex.Unlock()

	view.routeCatalog = routeCatalog

	if view.activeEvent == nil && routeCatalog != nil && len(routeCatalog.Events) > 0 {
		view.selectEventLocked(routeCatalog.Events[0])
		return
	}

	view.reconcileLocked()
}

func (view *View) SelectEvent(identifier string) error {
	view.mutex.Lock()
	defer view.mutex.Unlock()

	event := view.routeCatalog.FindEvent(identifier)
	if event == nil {
		return fmt.Errorf("unknown event %s", identifier)
	}

	view.selectEventLocked(event)

	return nil
}

func (view *View) SelectRoute(identifier string) error {
	view.mutex.Lock()
	defer view.mutex.Unlock()

	route := view.activeEvent.FindRoute(identifier)
	if route == nil {
		return fmt.Errorf("unknown route %s in active event", identifier)
	}

	view.selectRouteLocked(route)

	return nil
}

// selectEventLocked switches the active event and selects its default
// route, which also resets playback.
func (view *View) selectEventLocked(event *catalog.Event) {
	view.activeEvent = event
	view.selectRouteLocked(event.DefaultRoute())
}

func (view *View) selectRouteLocked(route *catalog.Route) {
	view.selectedRoute = route
	view.engine.SetRoute(route)
	view.profile = elevation.BuildProfile(route, view.config.Units)

	view.reconcileLocked()
	view.reconciler.FrameSelected(route)

	if route != nil {
		log.Info().Str("route", route.PrimaryIdentifier).Msg("Selected route")
	}
}

func (view *View) reconcileLocked() {
	desired := overlay.ComputeDesired(view.routeCatalog, view.activeEvent, view.selectedRoute, view.config.Overlay)
	view.reconciler.Apply(desired)
}

func (view *View) Play() {
	view.engine.Play()
}

func (view *View) Pause() {
	view.engine.Pause()
}

func (view *View) SetSpeed(speed playback.Speed) {
	view.engine.SetSpeed(speed)
}

func (view *View) Progress() float64 {
	return view.engine.Progress()
}

func (view *View) Running() bool {
	return view.engine.Running()
}

func (view *View) EnableTracking() error {
	return view.tracker.Enable()
}

func (view *View) DisableTracking() {
	view.tracker.Disable()
}

func (view *View) TrackingActive() bool {
	return view.tracker.Active()
}

func (view *View) ActiveEvent() *catalog.Event {
	view.mutex.Lock()
	defer view.mutex.Unlock()

	return view.activeEvent
}

func (view *View) SelectedRoute() *catalog.Route {
	view.mutex.Lock()
	defer view.mutex.Unlock()

	return view.selectedRoute
}

func (view *View) Profile() elevation.Profile {
	view.mutex.Lock()
	defer view.mutex.Unlock()

	return view.profile
}

// ElevationMarker derives the chart marker from the engine's current
// progress, the same value that drives the map dot.
func (view *View) ElevationMarker() (elevation.Marker, bool) {
	view.mutex.Lock()
	profile := view.profile
	view.mutex.Unlock()

	return profile.MarkerAt(view.engine.Progress())
}

// handlePlaybackFrame feeds each interpolated point to the playback
// marker layer and nudges the camera after it, unless live tracking holds
// camera authority.
func (view *View) handlePlaybackFrame(point []float64, progress float64) {
	view.mutex.Lock()

	if view.closed {
		view.mutex.Unlock()
		return
	}

	if view.cancelDot != nil {
		view.cancelDot()
	}

	followCamera := !view.tracker.Active()

	view.cancelDot = view.manager.WhenReady(func() {
		view.applyPlaybackPoint(point, followCamera)
	})

	view.mutex.Unlock()
}

func (view *View) applyPlaybackPoint(point []float64, followCamera bool) {
	liveSurface := view.manager.Surface()
	if liveSurface == nil {
		return
	}

	pointData := geojson.NewFeatureCollection(geojson.NewPoint(point))

	if !liveSurface.HasSource(overlay.PlaybackPositionID) {
		liveSurface.AddSource(overlay.PlaybackPositionID, pointData)
	} else {
		liveSurface.SetSourceData(overlay.PlaybackPositionID, pointData)
	}

	if !liveSurface.HasLayer(overlay.PlaybackPositionID) {
		liveSurface.AddLayer(surface.LayerSpec{
			ID:       overlay.PlaybackPositionID,
			SourceID: overlay.PlaybackPositionID,
			Type:     "circle",
			Paint: map[string]any{
				"circle-color":        "#ff8800",
				"circle-radius":       7,
				"circle-stroke-color": "#ffffff",
				"circle-stroke-width": 2,
			},
		})
	}

	if followCamera {
		liveSurface.EaseTo(surface.CameraOptions{
			Center:   point,
			Duration: view.config.FollowEase,
		})
	}
}

// Close tears everything down exactly once: the frame loop, the sensor
// subscription, any pending ready callbacks, and finally the surface.
func (view *View) Close() {
	view.mutex.Lock()

	if view.closed {
		view.mutex.Unlock()
		return
	}
	view.closed = true

	if view.cancelDot != nil {
		view.cancelDot()
		view.cancelDot = nil
	}

	view.mutex.Unlock()

	view.engine.Pause()
	view.tracker.Teardown()

	view.mutex.Lock()
	view.reconciler.Reset()
	view.manager.Destroy()
	view.mutex.Unlock()

	log.Info().Msg("Map view closed")
}
