package playback

import (
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/ridemap/ridemap/pkg/catalog"
	"github.com/rs/zerolog/log"
)

type Speed string

const (
	SpeedSlow   Speed = "Slow"
	SpeedNormal       = "Normal"
	SpeedFast         = "Fast"
)

// multiplier scales the traversal duration, so a slower speed setting
// takes proportionally longer.
func (speed Speed) multiplier() float64 {
	switch speed {
	case SpeedSlow:
		return 2.0
	case SpeedFast:
		return 0.5
	default:
		return 1.0
	}
}

type Config struct {
	// BaseDuration is how long a route of ReferenceDistanceMeters takes
	// to traverse at normal speed.
	BaseDuration            time.Duration
	ReferenceDistanceMeters float64
	FrameInterval           time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseDuration:            90 * time.Second,
		ReferenceDistanceMeters: 40000,
		FrameInterval:           16 * time.Millisecond,
	}
}

// Engine advances a normalized progress value along the selected route's
// flattened coordinate sequence on a frame-callback loop. Both the map
// dot and the elevation marker are derived from the single progress value
// it emits.
type Engine struct {
	mutex sync.Mutex

	scheduler FrameScheduler
	config    Config

	route          *catalog.Route
	coordinates    [][]float64
	distanceMeters float64

	progress float64
	running  bool
	speed    Speed

	// generation invalidates in-flight frames from a superseded route or
	// event selection.
	generation    int
	cancelFrame   func()
	lastFrameTime time.Time

	onFrame func(point []float64, progress float64)
}

func NewEngine(scheduler FrameScheduler, config Config) *Engine {
	return &Engine{
		scheduler: scheduler,
		config:    config,
		speed:     SpeedNormal,
	}
}

// OnFrame registers the single consumer of emitted positions.
func (engine *Engine) OnFrame(fn func(point []float64, progress float64)) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	engine.onFrame = fn
}

// SetRoute switches the playback subject. Any in-flight frame loop is
// cancelled before state is reset, progress always returns to the start
// regardless of prior pause state, and the flattened coordinate cache is
// rebuilt as an owned deep copy.
func (engine *Engine) SetRoute(route *catalog.Route) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	engine.stopLocked()

	engine.route = route
	engine.progress = 0
	engine.coordinates = nil
	engine.distanceMeters = 0

	if route == nil {
		return
	}

	flattened := route.FlattenedCoordinates()
	if len(flattened) < 2 {
		log.Debug().Str("route", route.PrimaryIdentifier).Msg("Route has fewer than 2 vertices, playback disabled")
		return
	}

	if err := copier.CopyWithOption(&engine.coordinates, flattened, copier.Option{DeepCopy: true}); err != nil {
		engine.coordinates = flattened
	}

	engine.distanceMeters = route.DistanceMeters
}

// Play starts or resumes the frame loop. Resuming continues from the
// paused progress value.
func (engine *Engine) Play() {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	if engine.running {
		return
	}

	if len(engine.coordinates) < 2 {
		log.Debug().Msg("No playable route selected")
		return
	}

	engine.running = true
	engine.lastFrameTime = time.Time{}
	engine.scheduleFrameLocked()
}

// Pause freezes progress at its current value.
func (engine *Engine) Pause() {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	engine.running = false

	if engine.cancelFrame != nil {
		engine.cancelFrame()
		engine.cancelFrame = nil
	}
}

func (engine *Engine) SetSpeed(speed Speed) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	engine.speed = speed
}

func (engine *Engine) Speed() Speed {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	return engine.speed
}

func (engine *Engine) Progress() float64 {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	return engine.progress
}

func (engine *Engine) Running() bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	return engine.running
}

func (engine *Engine) stopLocked() {
	engine.running = false
	engine.generation++

	if engine.cancelFrame != nil {
		engine.cancelFrame()
		engine.cancelFrame = nil
	}
}

func (engine *Engine) scheduleFrameLocked() {
	frameGeneration := engine.generation

	engine.cancelFrame = engine.scheduler.RequestFrame(func(now time.Time) {
		engine.frame(frameGeneration, now)
	})
}

// duration of a full traversal: scales directly with route distance and
// with the speed multiplier.
func (engine *Engine) durationLocked() time.Duration {
	distanceFactor := 1.0
	if engine.distanceMeters > 0 && engine.config.ReferenceDistanceMeters > 0 {
		distanceFactor = engine.distanceMeters / engine.config.ReferenceDistanceMeters
	}

	traversal := time.Duration(float64(engine.config.BaseDuration) * distanceFactor * engine.speed.multiplier())
	if traversal <= 0 {
		traversal = engine.config.BaseDuration
	}

	return traversal
}

func (engine *Engine) frame(frameGeneration int, now time.Time) {
	engine.mutex.Lock()

	// A stale loop from a superseded selection stops rescheduling itself.
	if frameGeneration != engine.generation || !engine.running {
		engine.mutex.Unlock()
		return
	}

	if engine.lastFrameTime.IsZero() {
		engine.lastFrameTime = now
		engine.scheduleFrameLocked()
		engine.mutex.Unlock()
		return
	}

	delta := now.Sub(engine.lastFrameTime)
	engine.lastFrameTime = now
	if delta < 0 {
		delta = 0
	}

	engine.progress += delta.Seconds() / engine.durationLocked().Seconds()

	if engine.progress >= 1 {
		// Completion: emit the final vertex once, then wrap back to the
		// start with the loop stopped.
		finalPoint := engine.coordinates[len(engine.coordinates)-1]
		emit := engine.onFrame

		engine.running = false
		engine.progress = 0
		engine.cancelFrame = nil

		engine.mutex.Unlock()

		if emit != nil && finiteCoordinate(finalPoint) {
			emit(finalPoint, 1)
		}
		return
	}

	point := InterpolatePoint(engine.coordinates, engine.progress)
	progress := engine.progress
	emit := engine.onFrame

	engine.scheduleFrameLocked()
	engine.mutex.Unlock()

	// Non-finite interpolation results drop the frame without emitting.
	if emit != nil && finiteCoordinate(point) {
		emit(point, progress)
	}
}
