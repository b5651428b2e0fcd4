package playback

import (
	"sync"
	"time"
)

// FrameScheduler schedules a callback for the next animation frame. The
// returned cancel invalidates the request synchronously; a cancelled
// frame never fires.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// TickerScheduler drives frames off the wall clock at a fixed interval.
type TickerScheduler struct {
	Interval time.Duration
}

func (scheduler TickerScheduler) RequestFrame(fn func(now time.Time)) (cancel func()) {
	interval := scheduler.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	timer := time.AfterFunc(interval, func() {
		fn(time.Now())
	})

	return func() {
		timer.Stop()
	}
}

// ManualScheduler lets tests drive frames deterministically.
type ManualScheduler struct {
	mutex   sync.Mutex
	pending []*manualFrame
}

type manualFrame struct {
	fn        func(now time.Time)
	cancelled bool
}

func (scheduler *ManualScheduler) RequestFrame(fn func(now time.Time)) (cancel func()) {
	scheduler.mutex.Lock()
	defer scheduler.mutex.Unlock()

	frame := &manualFrame{fn: fn}
	scheduler.pending = append(scheduler.pending, frame)

	return func() {
		scheduler.mutex.Lock()
		defer scheduler.mutex.Unlock()

		frame.cancelled = true
	}
}

// Step fires every frame pending at the time of the call. Frames the
// callbacks reschedule land in the next Step.
func (scheduler *ManualScheduler) Step(now time.Time) {
	scheduler.mutex.Lock()
	frames := scheduler.pending
	scheduler.pending = nil
	scheduler.mutex.Unlock()

	for _, frame := range frames {
		scheduler.mutex.Lock()
		cancelled := frame.cancelled
		scheduler.mutex.Unlock()

		if !cancelled {
			frame.fn(now)
		}
	}
}

// PendingFrames reports how many uncancelled frames are queued.
func (scheduler *ManualScheduler) PendingFrames() int {
	scheduler.mutex.Lock()
	defer scheduler.mutex.Unlock()

	pendingCount := 0
	for _, frame := range scheduler.pending {
		if !frame.cancelled {
			pendingCount++
		}
	}

	return pendingCount
}
