package tracker

import "time"

// Fix is a single reported position sample from the device's position
// sensor.
type Fix struct {
	Latitude   float64
	Longitude  float64
	RecordedAt time.Time
}

// SensorOptions configure a position subscription. The tracker favours
// accuracy over power: high accuracy, a short maximum fix age and a
// generous timeout.
type SensorOptions struct {
	HighAccuracy bool
	MaximumAge   time.Duration
	Timeout      time.Duration
}

// PositionSensor is the device's continuous position stream. Watch pushes
// fixes at sensor cadence until the returned cancel is called; errors are
// reported on the error callback and do not end the subscription.
type PositionSensor interface {
	Watch(options SensorOptions, onFix func(Fix), onError func(error)) (cancel func(), err error)
}
