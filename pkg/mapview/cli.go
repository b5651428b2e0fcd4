package mapview

import (
	"context"
	"fmt"
	"time"

	"github.com/ridemap/ridemap/pkg/catalog"
	"github.com/ridemap/ridemap/pkg/overlay"
	"github.com/ridemap/ridemap/pkg/playback"
	"github.com/ridemap/ridemap/pkg/surface"
	"github.com/ridemap/ridemap/pkg/tracker"
	"github.com/ridemap/ridemap/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Run a headless playback of a route against the in-memory surface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "index",
				Usage:    "path to the series index file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the view config file",
			},
			&cli.StringFlag{
				Name:  "event",
				Usage: "event identifier (defaults to the first event)",
			},
			&cli.StringFlag{
				Name:  "route",
				Usage: "route identifier (defaults to the event's first route)",
			},
			&cli.StringFlag{
				Name:  "speed",
				Usage: "playback speed tier: slow, normal or fast",
				Value: "normal",
			},
			&cli.BoolFlag{
				Name:  "track",
				Usage: "also enable live tracking, replaying the selected route as the sensor",
			},
		},
		Action: runSimulate,
	}
}

func runSimulate(c *cli.Context) error {
	env := util.GetEnvironmentVariables()

	configPath := c.String("config")
	if configPath == "" {
		configPath = env["RIDEMAP_CONFIG"]
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	loader := &catalog.Loader{}
	loadedCatalog, err := loader.Load(context.Background(), c.String("index"))
	if err != nil {
		return err
	}

	memorySurface := surface.NewMemorySurface()

	replaySensor := &tracker.ReplaySensor{
		Interval: time.Second,
	}

	view := NewView(config, func() (surface.RenderSurface, error) {
		return memorySurface, nil
	}, replaySensor, nil)
	defer view.Close()

	view.SetCatalog(loadedCatalog)

	// The style-ready signal fires after the catalog lands, exercising
	// the deferred reconciliation path end to end.
	memorySurface.SetStyleReady()

	if eventIdentifier := c.String("event"); eventIdentifier != "" {
		if err := view.SelectEvent(eventIdentifier); err != nil {
			return err
		}
	}
	if routeIdentifier := c.String("route"); routeIdentifier != "" {
		if err := view.SelectRoute(routeIdentifier); err != nil {
			return err
		}
	}

	selectedRoute := view.SelectedRoute()
	if selectedRoute == nil {
		return fmt.Errorf("no playable route in catalog")
	}

	switch c.String("speed") {
	case "slow":
		view.SetSpeed(playback.SpeedSlow)
	case "fast":
		view.SetSpeed(playback.SpeedFast)
	case "normal":
		view.SetSpeed(playback.SpeedNormal)
	default:
		return fmt.Errorf("unknown speed %s", c.String("speed"))
	}

	if c.Bool("track") {
		replaySensor.Points = selectedRoute.FlattenedCoordinates()
		replaySensor.Loop = true

		if err := view.EnableTracking(); err != nil {
			return err
		}
	}

	log.Info().
		Str("route", selectedRoute.PrimaryIdentifier).
		Float64("distance_meters", selectedRoute.DistanceMeters).
		Msg("Starting playback")

	view.Play()

	reportTicker := time.NewTicker(time.Second)
	defer reportTicker.Stop()

	for range reportTicker.C {
		progress := view.Progress()

		logEvent := log.Info().Float64("progress", progress)

		if marker, markerAvailable := view.ElevationMarker(); markerAvailable {
			logEvent = logEvent.
				Float64("distance", marker.Distance).
				Float64("elevation", marker.Elevation)
		}

		if dotData := memorySurface.SourceData(overlay.PlaybackPositionID); dotData != nil && len(dotData.Features) > 0 {
			point := dotData.Features[0].Geometry.Point
			logEvent = logEvent.Floats64("position", point)
		}

		logEvent.Msg("Playback")

		if !view.Running() {
			break
		}
	}

	log.Info().Msg("Playback complete")

	return nil
}
