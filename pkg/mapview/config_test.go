package mapview

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ridemap/ridemap/pkg/elevation"
	"gopkg.in/yaml.v3"
)

func TestISODurationUnmarshal(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "PT1M30S", expected: 90 * time.Second},
		{input: "PT45S", expected: 45 * time.Second},
		{input: "PT2H", expected: 2 * time.Hour},
		{input: "P1D", expected: 24 * time.Hour},
		{input: "90s", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			var isoDuration ISODuration
			err := yaml.Unmarshal([]byte("\""+testCase.input+"\""), &isoDuration)

			if testCase.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if isoDuration.Duration != testCase.expected {
				t.Errorf("expected %v, got %v", testCase.expected, isoDuration.Duration)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Units != elevation.UnitsMetric {
		t.Errorf("expected metric units by default, got %v", config.Units)
	}
	if config.Playback.BaseDuration != 90*time.Second {
		t.Errorf("expected the default base duration, got %v", config.Playback.BaseDuration)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	configYaml := `units: imperial
follow_ease: PT0.5S
playback:
  base_duration: PT2M
  reference_distance_meters: 50000
overlay:
  ghost_stride: 10
  camera_padding: 64
tracker:
  min_zoom: 15
`

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configYaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Units != elevation.UnitsImperial {
		t.Errorf("expected imperial units, got %v", config.Units)
	}
	if config.FollowEase != 500*time.Millisecond {
		t.Errorf("expected follow ease 500ms, got %v", config.FollowEase)
	}
	if config.Playback.BaseDuration != 2*time.Minute {
		t.Errorf("expected base duration 2m, got %v", config.Playback.BaseDuration)
	}
	if config.Playback.ReferenceDistanceMeters != 50000 {
		t.Errorf("expected reference distance 50000, got %f", config.Playback.ReferenceDistanceMeters)
	}
	if config.Overlay.GhostStride != 10 {
		t.Errorf("expected ghost stride 10, got %d", config.Overlay.GhostStride)
	}
	if config.Overlay.CameraPadding.Left != 64 {
		t.Errorf("expected camera padding 64, got %f", config.Overlay.CameraPadding.Left)
	}
	if config.Tracker.MinZoom != 15 {
		t.Errorf("expected min zoom 15, got %f", config.Tracker.MinZoom)
	}

	// Unset fields keep their defaults.
	if config.Overlay.GhostOpacity != DefaultConfig().Overlay.GhostOpacity {
		t.Error("expected the default ghost opacity to survive a partial config")
	}
	if config.Playback.FrameInterval != DefaultConfig().Playback.FrameInterval {
		t.Error("expected the default frame interval to survive a partial config")
	}
}

func TestLoadConfigRejectsUnknownUnits(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("units: nautical\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected an error for unknown units")
	}
}
