package tracker

import (
	"errors"
	"sync"
	"time"
)

// ReplaySensor is a PositionSensor that replays a recorded coordinate
// track at a fixed cadence. It stands in for the device sensor in the
// headless simulate command and in tests.
type ReplaySensor struct {
	// Points are [lon,lat] vertices replayed in order.
	Points   [][]float64
	Interval time.Duration
	Loop     bool
}

func (sensor *ReplaySensor) Watch(options SensorOptions, onFix func(Fix), onError func(error)) (cancel func(), err error) {
	if len(sensor.Points) == 0 {
		return nil, errors.New("replay track is empty")
	}

	interval := sensor.Interval
	if interval <= 0 {
		interval = time.Second
	}

	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		pointIndex := 0

		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				if pointIndex >= len(sensor.Points) {
					if !sensor.Loop {
						return
					}
					pointIndex = 0
				}

				point := sensor.Points[pointIndex]
				pointIndex++

				onFix(Fix{
					Longitude:  point[0],
					Latitude:   point[1],
					RecordedAt: now,
				})
			}
		}
	}()

	var cancelOnce sync.Once

	return func() {
		cancelOnce.Do(func() {
			close(done)
		})
	}, nil
}
