package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/ridemap/ridemap/pkg/catalog"
	"github.com/ridemap/ridemap/pkg/mapview"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("RIDEMAP_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("RIDEMAP_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "ridemap",
		Description: "Live multi-layer map engine for the ride series - catalog tools and headless playback",

		Commands: []*cli.Command{
			catalog.RegisterCLI(),
			mapview.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
