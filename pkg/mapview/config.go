package mapview

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/ridemap/ridemap/pkg/elevation"
	"github.com/ridemap/ridemap/pkg/overlay"
	"github.com/ridemap/ridemap/pkg/playback"
	"github.com/ridemap/ridemap/pkg/surface"
	"github.com/ridemap/ridemap/pkg/tracker"
	iso8601 "github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Overlay  overlay.Config
	Playback playback.Config
	Tracker  tracker.Config
	Units    elevation.Units

	// FollowEase bounds the short camera nudge that follows the playback
	// dot while the engine is running.
	FollowEase time.Duration
}

func DefaultConfig() Config {
	return Config{
		Overlay:    overlay.DefaultConfig(),
		Playback:   playback.DefaultConfig(),
		Tracker:    tracker.DefaultConfig(),
		Units:      elevation.UnitsMetric,
		FollowEase: 300 * time.Millisecond,
	}
}

// ISODuration decodes an ISO 8601 duration string from YAML.
type ISODuration struct {
	time.Duration
}

func (isoDuration *ISODuration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := iso8601.ParseISO8601(raw)
	if err != nil {
		return fmt.Errorf("invalid ISO 8601 duration %s: %w", raw, err)
	}

	reference := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	isoDuration.Duration = parsed.Shift(reference).Sub(reference)

	return nil
}

type configFile struct {
	Units string `yaml:"units"`

	FollowEase ISODuration `yaml:"follow_ease"`

	Playback struct {
		BaseDuration            ISODuration `yaml:"base_duration"`
		ReferenceDistanceMeters float64     `yaml:"reference_distance_meters"`
		FrameInterval           ISODuration `yaml:"frame_interval"`
	} `yaml:"playback"`

	Overlay struct {
		overlay.Config `yaml:",inline"`
		CameraPadding  float64     `yaml:"camera_padding"`
		FitDuration    ISODuration `yaml:"fit_duration"`
	} `yaml:"overlay"`

	Tracker struct {
		MinZoom       float64     `yaml:"min_zoom"`
		EaseDuration  ISODuration `yaml:"ease_duration"`
		MaximumFixAge ISODuration `yaml:"maximum_fix_age"`
		Timeout       ISODuration `yaml:"timeout"`
	} `yaml:"tracker"`
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults untouched.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	configYaml, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	var file configFile
	decoder := yaml.NewDecoder(bytes.NewReader(configYaml))
	if err := decoder.Decode(&file); err != nil {
		return config, fmt.Errorf("failed to decode config file: %w", err)
	}

	if file.Units != "" {
		switch file.Units {
		case "metric":
			config.Units = elevation.UnitsMetric
		case "imperial":
			config.Units = elevation.UnitsImperial
		default:
			return config, fmt.Errorf("unknown units %s", file.Units)
		}
	}

	if file.FollowEase.Duration > 0 {
		config.FollowEase = file.FollowEase.Duration
	}

	if file.Playback.BaseDuration.Duration > 0 {
		config.Playback.BaseDuration = file.Playback.BaseDuration.Duration
	}
	if file.Playback.ReferenceDistanceMeters > 0 {
		config.Playback.ReferenceDistanceMeters = file.Playback.ReferenceDistanceMeters
	}
	if file.Playback.FrameInterval.Duration > 0 {
		config.Playback.FrameInterval = file.Playback.FrameInterval.Duration
	}

	if file.Overlay.GhostStride > 0 {
		config.Overlay.GhostStride = file.Overlay.GhostStride
	}
	if file.Overlay.GhostColour != "" {
		config.Overlay.GhostColour = file.Overlay.GhostColour
	}
	if file.Overlay.GhostWidth > 0 {
		config.Overlay.GhostWidth = file.Overlay.GhostWidth
	}
	if file.Overlay.GhostOpacity > 0 {
		config.Overlay.GhostOpacity = file.Overlay.GhostOpacity
	}
	if file.Overlay.EventOpacity > 0 {
		config.Overlay.EventOpacity = file.Overlay.EventOpacity
	}
	if file.Overlay.LineWidth > 0 {
		config.Overlay.LineWidth = file.Overlay.LineWidth
	}
	if file.Overlay.GlowWidth > 0 {
		config.Overlay.GlowWidth = file.Overlay.GlowWidth
	}
	if file.Overlay.GlowOpacity > 0 {
		config.Overlay.GlowOpacity = file.Overlay.GlowOpacity
	}
	if file.Overlay.EndpointRadius > 0 {
		config.Overlay.EndpointRadius = file.Overlay.EndpointRadius
	}
	if file.Overlay.CameraPadding > 0 {
		config.Overlay.CameraPadding = surface.Padding{
			Top:    file.Overlay.CameraPadding,
			Bottom: file.Overlay.CameraPadding,
			Left:   file.Overlay.CameraPadding,
			Right:  file.Overlay.CameraPadding,
		}
	}
	if file.Overlay.FitDuration.Duration > 0 {
		config.Overlay.FitDuration = file.Overlay.FitDuration.Duration
	}

	if file.Tracker.MinZoom > 0 {
		config.Tracker.MinZoom = file.Tracker.MinZoom
	}
	if file.Tracker.EaseDuration.Duration > 0 {
		config.Tracker.EaseDuration = file.Tracker.EaseDuration.Duration
	}
	if file.Tracker.MaximumFixAge.Duration > 0 {
		config.Tracker.SensorOptions.MaximumAge = file.Tracker.MaximumFixAge.Duration
	}
	if file.Tracker.Timeout.Duration > 0 {
		config.Tracker.SensorOptions.Timeout = file.Tracker.Timeout.Duration
	}

	return config, nil
}
