package playback

import (
	"math"
	"testing"
)

func TestInterpolatePoint(t *testing.T) {
	twoPoint := [][]float64{{0, 0}, {0, 10}}
	fourPoint := [][]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	testCases := []struct {
		name        string
		coordinates [][]float64
		progress    float64
		expected    []float64
	}{
		{"start of two point route", twoPoint, 0, []float64{0, 0}},
		{"middle of two point route", twoPoint, 0.5, []float64{0, 5}},
		{"end of two point route", twoPoint, 1, []float64{0, 10}},
		{"start of four point route", fourPoint, 0, []float64{0, 0}},
		{"first segment midpoint", fourPoint, 1.0 / 6.0, []float64{5, 0}},
		{"second vertex exactly", fourPoint, 1.0 / 3.0, []float64{10, 0}},
		{"end of four point route", fourPoint, 1, []float64{0, 10}},
		{"progress clamped below", twoPoint, -0.5, []float64{0, 0}},
		{"progress clamped above", twoPoint, 1.5, []float64{0, 10}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			point := InterpolatePoint(testCase.coordinates, testCase.progress)

			if len(point) != 2 {
				t.Fatalf("expected a [lon,lat] pair, got %v", point)
			}

			if math.Abs(point[0]-testCase.expected[0]) > 1e-9 || math.Abs(point[1]-testCase.expected[1]) > 1e-9 {
				t.Errorf("expected %v, got %v", testCase.expected, point)
			}
		})
	}
}

func TestInterpolatePointStaysOnBracketingSegment(t *testing.T) {
	coordinates := [][]float64{{0, 0}, {4, 0}, {4, 4}, {8, 4}, {8, 8}}

	for step := 0; step <= 100; step++ {
		progress := float64(step) / 100

		point := InterpolatePoint(coordinates, progress)

		fractionalIndex := progress * float64(len(coordinates)-1)
		lowerIndex := int(math.Floor(fractionalIndex))
		if lowerIndex >= len(coordinates)-1 {
			lowerIndex = len(coordinates) - 2
		}

		lower := coordinates[lowerIndex]
		upper := coordinates[lowerIndex+1]

		for axis := 0; axis < 2; axis++ {
			minimum := math.Min(lower[axis], upper[axis])
			maximum := math.Max(lower[axis], upper[axis])

			if point[axis] < minimum-1e-9 || point[axis] > maximum+1e-9 {
				t.Fatalf("progress %f: point %v escapes segment %v -> %v", progress, point, lower, upper)
			}
		}
	}
}

func TestInterpolatePointDegenerateGeometry(t *testing.T) {
	if point := InterpolatePoint(nil, 0.5); point != nil {
		t.Errorf("expected nil for empty geometry, got %v", point)
	}

	singleVertex := [][]float64{{3, 4}}
	point := InterpolatePoint(singleVertex, 0.5)
	if point[0] != 3 || point[1] != 4 {
		t.Errorf("single vertex should return the vertex, got %v", point)
	}
}

func TestInterpolateSeries(t *testing.T) {
	series := []float64{0, 100, 200, 400}

	testCases := []struct {
		name     string
		progress float64
		expected float64
	}{
		{"first sample", 0, 0},
		{"last sample", 1, 400},
		{"midway between samples", 0.5, 150},
		{"final segment midpoint", 5.0 / 6.0, 300},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			value := InterpolateSeries(series, testCase.progress)

			if math.Abs(value-testCase.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", testCase.expected, value)
			}
		})
	}

	if !math.IsNaN(InterpolateSeries(nil, 0.5)) {
		t.Error("expected NaN for an empty series")
	}
}
