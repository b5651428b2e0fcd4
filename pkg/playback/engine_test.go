package playback

import (
	"math"
	"testing"
	"time"

	"github.com/ridemap/ridemap/pkg/catalog"
	"github.com/ridemap/ridemap/pkg/geojson"
)

func testRoute(identifier string, coordinates [][]float64) *catalog.Route {
	return &catalog.Route{
		PrimaryIdentifier: identifier,
		Geometry:          geojson.NewFeatureCollection(geojson.NewLineString(coordinates)),
	}
}

func testEngineConfig() Config {
	return Config{
		BaseDuration:            100 * time.Second,
		ReferenceDistanceMeters: 40000,
	}
}

type emittedFrame struct {
	point    []float64
	progress float64
}

func TestEngineAdvancesProgress(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	var frames []emittedFrame
	engine.OnFrame(func(point []float64, progress float64) {
		frames = append(frames, emittedFrame{point: point, progress: progress})
	})

	engine.SetRoute(testRoute("route-a", [][]float64{{0, 0}, {0, 10}}))
	engine.Play()

	start := time.Now()
	scheduler.Step(start)                      // first frame only records the timestamp
	scheduler.Step(start.Add(50 * time.Second)) // half the traversal at normal speed

	if progress := engine.Progress(); progress < 0.499 || progress > 0.501 {
		t.Fatalf("expected progress 0.5, got %f", progress)
	}

	if len(frames) != 1 {
		t.Fatalf("expected 1 emitted frame, got %d", len(frames))
	}

	if frames[0].point[1] < 4.99 || frames[0].point[1] > 5.01 {
		t.Errorf("expected emitted point near [0,5], got %v", frames[0].point)
	}
}

func TestEngineSpeedScalesDuration(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	engine.SetRoute(testRoute("route-a", [][]float64{{0, 0}, {0, 10}}))
	engine.SetSpeed(SpeedSlow)
	engine.Play()

	start := time.Now()
	scheduler.Step(start)
	scheduler.Step(start.Add(50 * time.Second))

	// Slow doubles the traversal duration, so 50s of 200s is a quarter.
	if progress := engine.Progress(); progress < 0.249 || progress > 0.251 {
		t.Errorf("expected progress 0.25 at slow speed, got %f", progress)
	}
}

func TestEngineCompletionWrapsOnce(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	var completions []float64
	engine.OnFrame(func(point []float64, progress float64) {
		if progress == 1 {
			completions = append(completions, progress)
		}
	})

	engine.SetRoute(testRoute("route-a", [][]float64{{0, 0}, {0, 10}}))
	engine.Play()

	start := time.Now()
	scheduler.Step(start)
	scheduler.Step(start.Add(60 * time.Second))
	scheduler.Step(start.Add(120 * time.Second))

	if engine.Running() {
		t.Error("expected running=false after completion")
	}
	if progress := engine.Progress(); progress != 0 {
		t.Errorf("expected progress reset to 0, got %f", progress)
	}
	if len(completions) != 1 {
		t.Fatalf("expected exactly one completion emission, got %d", len(completions))
	}

	// The loop must not have rescheduled itself after completing.
	if pending := scheduler.PendingFrames(); pending != 0 {
		t.Errorf("expected no pending frames after completion, got %d", pending)
	}
}

func TestEngineResetOnRouteSwitch(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	var frames []emittedFrame
	engine.OnFrame(func(point []float64, progress float64) {
		frames = append(frames, emittedFrame{point: point, progress: progress})
	})

	engine.SetRoute(testRoute("route-a", [][]float64{{0, 0}, {0, 10}}))
	engine.Play()

	start := time.Now()
	scheduler.Step(start)
	scheduler.Step(start.Add(70 * time.Second))

	if progress := engine.Progress(); progress < 0.69 {
		t.Fatalf("expected progress near 0.7 before the switch, got %f", progress)
	}

	engine.SetRoute(testRoute("route-b", [][]float64{{5, 5}, {6, 6}}))

	if engine.Running() {
		t.Error("expected running=false after route switch")
	}
	if progress := engine.Progress(); progress != 0 {
		t.Errorf("expected progress 0 after route switch, got %f", progress)
	}

	// Any frame still queued from the old route must be a cancelled
	// no-op: no emission, no progress movement.
	emittedBefore := len(frames)
	scheduler.Step(start.Add(80 * time.Second))

	if len(frames) != emittedBefore {
		t.Error("stale frame from the previous route emitted after the switch")
	}
	if progress := engine.Progress(); progress != 0 {
		t.Errorf("stale frame advanced progress to %f", progress)
	}
}

func TestEnginePausePreservesProgressButSwitchResets(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	engine.SetRoute(testRoute("route-a", [][]float64{{0, 0}, {0, 10}}))
	engine.Play()

	start := time.Now()
	scheduler.Step(start)
	scheduler.Step(start.Add(30 * time.Second))

	engine.Pause()
	pausedProgress := engine.Progress()
	if pausedProgress < 0.29 || pausedProgress > 0.31 {
		t.Fatalf("expected paused progress near 0.3, got %f", pausedProgress)
	}

	// Resume continues from the paused point.
	engine.Play()
	scheduler.Step(start.Add(40 * time.Second))
	scheduler.Step(start.Add(50 * time.Second))

	if progress := engine.Progress(); progress < 0.39 || progress > 0.41 {
		t.Errorf("expected resumed progress near 0.4, got %f", progress)
	}

	engine.SetRoute(testRoute("route-a-again", [][]float64{{0, 0}, {0, 10}}))
	if progress := engine.Progress(); progress != 0 {
		t.Errorf("route switch while paused must reset progress, got %f", progress)
	}
}

func TestEngineDropsNonFiniteFrames(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	emitted := 0
	engine.OnFrame(func(point []float64, progress float64) {
		emitted++
	})

	engine.SetRoute(testRoute("route-a", [][]float64{{0, 0}, {math.NaN(), 5}, {0, 10}}))
	engine.Play()

	start := time.Now()
	scheduler.Step(start)
	scheduler.Step(start.Add(25 * time.Second)) // lands between the first two vertices

	if emitted != 0 {
		t.Fatalf("expected the non-finite frame dropped, got %d emissions", emitted)
	}
	if progress := engine.Progress(); progress < 0.249 || progress > 0.251 {
		t.Errorf("a dropped frame must still advance progress, got %f", progress)
	}
	if !engine.Running() {
		t.Error("a dropped frame must not stop the loop")
	}
}

func TestEngineCompletionDropsNonFiniteFinalVertex(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	emitted := 0
	engine.OnFrame(func(point []float64, progress float64) {
		emitted++
	})

	engine.SetRoute(testRoute("route-a", [][]float64{{0, 0}, {0, 5}, {math.NaN(), 10}}))
	engine.Play()

	start := time.Now()
	scheduler.Step(start)
	scheduler.Step(start.Add(120 * time.Second))

	if emitted != 0 {
		t.Fatalf("expected no emission for a non-finite final vertex, got %d", emitted)
	}

	// Completion state still settles even though the emission was dropped.
	if engine.Running() {
		t.Error("expected running=false after completion")
	}
	if progress := engine.Progress(); progress != 0 {
		t.Errorf("expected progress reset to 0, got %f", progress)
	}
}

func TestEngineRefusesDegenerateRoute(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	engine.SetRoute(testRoute("route-a", [][]float64{{3, 4}}))
	engine.Play()

	if engine.Running() {
		t.Error("a route with fewer than 2 vertices must never drive playback")
	}
	if pending := scheduler.PendingFrames(); pending != 0 {
		t.Errorf("expected no scheduled frames, got %d", pending)
	}
}

func TestEngineDistanceScalesDuration(t *testing.T) {
	scheduler := &ManualScheduler{}
	engine := NewEngine(scheduler, testEngineConfig())

	longRoute := testRoute("route-long", [][]float64{{0, 0}, {0, 10}})
	longRoute.DistanceMeters = 80000 // double the reference distance

	engine.SetRoute(longRoute)
	engine.Play()

	start := time.Now()
	scheduler.Step(start)
	scheduler.Step(start.Add(50 * time.Second))

	// 50s of a 200s traversal.
	if progress := engine.Progress(); progress < 0.249 || progress > 0.251 {
		t.Errorf("expected progress 0.25 for a double-distance route, got %f", progress)
	}
}
