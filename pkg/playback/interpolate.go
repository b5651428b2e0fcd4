package playback

import "math"

// InterpolatePoint maps a normalized progress value onto a flattened
// vertex sequence: progress scales to a fractional index, and the point
// is linearly interpolated between the floor and ceiling vertex by the
// fractional remainder. Progress 0 yields exactly the first vertex and
// progress 1 exactly the last. Fewer than 2 vertices never interpolate.
func InterpolatePoint(coordinates [][]float64, progress float64) []float64 {
	if len(coordinates) == 0 {
		return nil
	}
	if len(coordinates) < 2 {
		return coordinates[0]
	}

	progress = clamp(progress, 0, 1)

	fractionalIndex := progress * float64(len(coordinates)-1)
	lowerIndex := int(math.Floor(fractionalIndex))

	if lowerIndex >= len(coordinates)-1 {
		return coordinates[len(coordinates)-1]
	}

	fraction := fractionalIndex - float64(lowerIndex)
	lower := coordinates[lowerIndex]
	upper := coordinates[lowerIndex+1]

	return []float64{
		lower[0] + (upper[0]-lower[0])*fraction,
		lower[1] + (upper[1]-lower[1])*fraction,
	}
}

// InterpolateSeries applies the identical fractional-index rule to a
// scalar sample series, so the elevation marker and the map dot can never
// disagree for the same progress value.
func InterpolateSeries(series []float64, progress float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	if len(series) < 2 {
		return series[0]
	}

	progress = clamp(progress, 0, 1)

	fractionalIndex := progress * float64(len(series)-1)
	lowerIndex := int(math.Floor(fractionalIndex))

	if lowerIndex >= len(series)-1 {
		return series[len(series)-1]
	}

	fraction := fractionalIndex - float64(lowerIndex)

	return series[lowerIndex] + (series[lowerIndex+1]-series[lowerIndex])*fraction
}

func clamp(value float64, minimum float64, maximum float64) float64 {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}

func finiteCoordinate(coordinate []float64) bool {
	if len(coordinate) < 2 {
		return false
	}

	for _, component := range coordinate[:2] {
		if math.IsNaN(component) || math.IsInf(component, 0) {
			return false
		}
	}

	return true
}
