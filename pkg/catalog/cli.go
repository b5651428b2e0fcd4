package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kr/pretty"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Load and inspect the series route catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "load the catalog and report structural problems",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Usage:    "path to the series index file",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					loader := &Loader{}

					loadedCatalog, err := loader.Load(context.Background(), c.String("index"))
					if err != nil {
						return err
					}

					validationErrors := Validate(loadedCatalog)
					for _, validationError := range validationErrors {
						log.Error().Err(validationError).Msg("Catalog validation failure")
					}

					if len(validationErrors) > 0 {
						return fmt.Errorf("catalog has %d validation failures", len(validationErrors))
					}

					log.Info().
						Int("events", len(loadedCatalog.Events)).
						Msg("Catalog is valid")

					return nil
				},
			},
			{
				Name:  "show",
				Usage: "load the catalog and print it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Usage:    "path to the series index file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "detailed",
						Usage: "include geometry and sample series",
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "dump the in-memory objects instead of JSON",
					},
				},
				Action: func(c *cli.Context) error {
					loader := &Loader{}

					loadedCatalog, err := loader.Load(context.Background(), c.String("index"))
					if err != nil {
						return err
					}

					if c.Bool("raw") {
						pretty.Println(loadedCatalog)
						return nil
					}

					groups := []string{"basic"}
					if c.Bool("detailed") {
						groups = append(groups, "detailed")
					}

					catalogReduced, err := sheriff.Marshal(&sheriff.Options{
						Groups: groups,
					}, loadedCatalog)
					if err != nil {
						return err
					}

					output, err := json.MarshalIndent(catalogReduced, "", "  ")
					if err != nil {
						return err
					}

					fmt.Println(string(output))

					return nil
				},
			},
		},
	}
}
