package regrid

import (
	"fmt"
	"sort"

	"go.ngs.io/harmonize/internal/domain"
)

// InferResolution estimates the grid spacing as the median of successive coordinate differences.
// The median tolerates a single irregular edge cell (poles, antimeridian) where a mean would not.
func InferResolution(g *domain.Grid) (domain.Resolution, error) {
	lat, err := medianStep(g.Latitude)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := medianStep(g.Longitude)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("longitude: %w", err)
	}
	return domain.Resolution{Lat: lat, Lon: lon}, nil
}

func medianStep(coords []float64) (float64, error) {
	if len(coords) < 2 {
		return 0, fmt.Errorf("%w (got %d)", ErrTooFewSamples, len(coords))
	}
	diffs := make([]float64, len(coords)-1)
	for i := range diffs {
		diffs[i] = coords[i+1] - coords[i]
	}
	sort.Float64s(diffs)
	n := len(diffs)
	if n%2 == 1 {
		return diffs[n/2], nil
	}
	return (diffs[n/2-1] + diffs[n/2]) / 2, nil
}
