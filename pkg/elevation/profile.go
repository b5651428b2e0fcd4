package elevation

import (
	"math"

	"github.com/ridemap/ridemap/pkg/catalog"
	"github.com/ridemap/ridemap/pkg/playback"
)

type Units string

const (
	UnitsMetric   Units = "Metric"
	UnitsImperial       = "Imperial"
)

const (
	metersPerKilometer = 1000.0
	metersPerMile      = 1609.344
	feetPerMeter       = 3.28084
)

// Profile is the selected route's elevation-vs-distance series converted
// to display units. Available is false when the route has no valid
// two-point-or-longer series, in which case the view shows an empty state
// instead of a degenerate chart.
type Profile struct {
	Available bool
	Units     Units

	// Distance in kilometers (metric) or miles (imperial), Elevation in
	// meters or feet, rounded to the display unit.
	Distance  []float64
	Elevation []float64
}

type Marker struct {
	Distance  float64
	Elevation float64
}

func BuildProfile(route *catalog.Route, units Units) Profile {
	profile := Profile{
		Units: units,
	}

	if route == nil || len(route.DistanceSeries) < 2 || len(route.DistanceSeries) != len(route.ElevationSeries) {
		return profile
	}

	profile.Available = true
	profile.Distance = make([]float64, len(route.DistanceSeries))
	profile.Elevation = make([]float64, len(route.ElevationSeries))

	for sampleIndex := range route.DistanceSeries {
		profile.Distance[sampleIndex] = convertDistance(route.DistanceSeries[sampleIndex], units)
		profile.Elevation[sampleIndex] = math.Round(convertElevation(route.ElevationSeries[sampleIndex], units))
	}

	return profile
}

// MarkerAt places the chart marker for a playback progress value using
// the same fractional-index interpolation rule as the map dot, which is
// the synchronization contract between the two.
func (profile Profile) MarkerAt(progress float64) (Marker, bool) {
	if !profile.Available {
		return Marker{}, false
	}

	return Marker{
		Distance:  playback.InterpolateSeries(profile.Distance, progress),
		Elevation: playback.InterpolateSeries(profile.Elevation, progress),
	}, true
}

func convertDistance(meters float64, units Units) float64 {
	if units == UnitsImperial {
		return meters / metersPerMile
	}

	return meters / metersPerKilometer
}

func convertElevation(meters float64, units Units) float64 {
	if units == UnitsImperial {
		return meters * feetPerMeter
	}

	return meters
}
