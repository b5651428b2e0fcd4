package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ridemap/ridemap/pkg/geojson"
	"github.com/ridemap/ridemap/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"
)

const maxConcurrentRouteFetches = 8

type Loader struct {
	HTTPClient *http.Client

	// NewBackOff builds the retry policy for one snapshot fetch. Defaults
	// to a capped exponential backoff.
	NewBackOff func() backoff.BackOff
}

type indexFile struct {
	Name   string       `yaml:"name"`
	Events []indexEvent `yaml:"events"`
}

type indexEvent struct {
	Identifier string       `yaml:"identifier"`
	Name       string       `yaml:"name"`
	Date       time.Time    `yaml:"date"`
	Routes     []indexRoute `yaml:"routes"`
}

type indexRoute struct {
	Identifier string `yaml:"identifier"`
	Label      string `yaml:"label"`
	Colour     string `yaml:"colour"`
	Geometry   string `yaml:"geometry"`
	Stats      string `yaml:"stats"`
}

type routeStats struct {
	DistanceMeters      float64   `json:"distance_meters"`
	ElevationGainMeters float64   `json:"elevation_gain_meters"`
	DistanceSeries      []float64 `json:"distance_series"`
	ElevationSeries     []float64 `json:"elevation_series"`
}

// Load reads the series index file and fetches every route's geometry and
// stats snapshot. Routes that fail to fetch or validate are skipped with a
// warning so that partial event data still produces a usable catalog.
func (loader *Loader) Load(ctx context.Context, indexPath string) (*Catalog, error) {
	indexYaml, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog index: %w", err)
	}

	var index indexFile
	decoder := yaml.NewDecoder(bytes.NewReader(indexYaml))
	if err := decoder.Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode catalog index: %w", err)
	}

	loadedCatalog := &Catalog{
		Name: index.Name,
	}

	for _, eventDefinition := range index.Events {
		event := &Event{
			PrimaryIdentifier: eventDefinition.Identifier,
			Name:              eventDefinition.Name,
			Date:              eventDefinition.Date,
			Routes:            make([]*Route, len(eventDefinition.Routes)),
		}

		p := pool.New().WithMaxGoroutines(maxConcurrentRouteFetches)

		for routeIndex, routeDefinition := range eventDefinition.Routes {
			p.Go(func() {
				route, err := loader.loadRoute(ctx, routeDefinition)
				if err != nil {
					log.Warn().Err(err).
						Str("event", eventDefinition.Identifier).
						Str("route", routeDefinition.Identifier).
						Msg("Skipping route")
					return
				}

				event.Routes[routeIndex] = route
			})
		}

		p.Wait()

		util.InPlaceFilter(&event.Routes, func(route *Route) bool {
			return route != nil
		})

		loadedCatalog.Events = append(loadedCatalog.Events, event)
	}

	return loadedCatalog, nil
}

func (loader *Loader) loadRoute(ctx context.Context, index indexRoute) (*Route, error) {
	route := &Route{
		PrimaryIdentifier: index.Identifier,
		Label:             parseRouteLabel(index.Label),
		Colour:            index.Colour,
	}

	var featureCollection geojson.FeatureCollection
	if err := loader.fetchJSON(ctx, index.Geometry, &featureCollection); err != nil {
		return nil, fmt.Errorf("failed to fetch geometry: %w", err)
	}
	route.Geometry = &featureCollection

	var stats routeStats
	if err := loader.fetchJSON(ctx, index.Stats, &stats); err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}

	route.DistanceMeters = stats.DistanceMeters
	route.ElevationGainMeters = stats.ElevationGainMeters
	route.DistanceSeries = stats.DistanceSeries
	route.ElevationSeries = stats.ElevationSeries

	if err := ValidateRoute(route); err != nil {
		return nil, err
	}

	return route, nil
}

// fetchJSON retrieves a static snapshot file. A cache-busting query
// parameter forces a fresh copy once per session.
func (loader *Loader) fetchJSON(ctx context.Context, fileURL string, target any) error {
	bustedURL, err := cacheBust(fileURL)
	if err != nil {
		return err
	}

	httpClient := loader.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	operation := func() error {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, bustedURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		response, err := httpClient.Do(request)
		if err != nil {
			return err
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d for %s", response.StatusCode, fileURL)
		}

		body, err := io.ReadAll(response.Body)
		if err != nil {
			return err
		}

		return json.Unmarshal(body, target)
	}

	var retryBackoff backoff.BackOff
	if loader.NewBackOff != nil {
		retryBackoff = loader.NewBackOff()
	} else {
		retryBackoff = backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	}

	return backoff.Retry(operation, backoff.WithContext(retryBackoff, ctx))
}

func cacheBust(fileURL string) (string, error) {
	parsedURL, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid snapshot url %s: %w", fileURL, err)
	}

	query := parsedURL.Query()
	query.Set("v", fmt.Sprintf("%d", time.Now().UnixNano()))
	parsedURL.RawQuery = query.Encode()

	return parsedURL.String(), nil
}

func parseRouteLabel(label string) RouteLabel {
	switch strings.ToLower(label) {
	case "short":
		return RouteLabelShort
	case "medium":
		return RouteLabelMedium
	case "long":
		return RouteLabelLong
	case "epic":
		return RouteLabelEpic
	default:
		log.Debug().Str("label", label).Msg("Unknown route label, defaulting to Medium")
		return RouteLabelMedium
	}
}
