package overlay

import (
	"time"

	"github.com/ridemap/ridemap/pkg/surface"
)

type Config struct {
	GhostStride  int     `yaml:"ghost_stride"`
	GhostColour  string  `yaml:"ghost_colour"`
	GhostWidth   float64 `yaml:"ghost_width"`
	GhostOpacity float64 `yaml:"ghost_opacity"`

	EventOpacity float64 `yaml:"event_opacity"`

	LineWidth   float64 `yaml:"line_width"`
	GlowWidth   float64 `yaml:"glow_width"`
	GlowOpacity float64 `yaml:"glow_opacity"`

	EndpointRadius float64 `yaml:"endpoint_radius"`

	CameraPadding surface.Padding `yaml:"-"`
	FitDuration   time.Duration   `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		GhostStride:  5,
		GhostColour:  "#888888",
		GhostWidth:   1.5,
		GhostOpacity: 0.25,

		EventOpacity: 0.45,

		LineWidth:   3,
		GlowWidth:   9,
		GlowOpacity: 0.3,

		EndpointRadius: 6,

		CameraPadding: surface.Padding{Top: 48, Bottom: 48, Left: 48, Right: 48},
		FitDuration:   800 * time.Millisecond,
	}
}
