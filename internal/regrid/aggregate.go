package regrid

import (
	"fmt"
	"math"

	"go.ngs.io/harmonize/internal/domain"
)

// DefaultMaxMissingFraction is the share of missing source cells a target cell tolerates.
// It mirrors the na_thres=0.1 convention of conservative regridders.
const DefaultMaxMissingFraction = 0.10

// AggregateOptions tunes binned aggregation.
type AggregateOptions struct {
	// MaxMissingFraction is the tolerated share of missing contributions per target cell.
	MaxMissingFraction float64
}

// DefaultAggregateOptions returns the 10% missing-data tolerance.
func DefaultAggregateOptions() AggregateOptions {
	return AggregateOptions{MaxMissingFraction: DefaultMaxMissingFraction}
}

// MinValidFraction is the share of contributions that must be valid.
func (o AggregateOptions) MinValidFraction() float64 {
	return 1 - o.MaxMissingFraction
}

// MinCount returns the number of valid source cells a target cell needs,
// floor((res/srcLat) * (res/srcLon) * MinValidFraction).
func (o AggregateOptions) MinCount(src domain.Resolution, res float64) int {
	n := (res / src.Lat) * (res / src.Lon)
	return int(math.Floor(n * o.MinValidFraction()))
}

// Aggregate coarsens g onto the grid south..north x west..east at res by
// averaging the source cells that fall into each target bin.
//
// Missing values are skipped in the mean. A target cell with no valid
// contributions, or fewer than MinCount, is NaN. The output keeps the
// canonical (time, latitude, longitude, extra...) order.
func Aggregate(g *domain.Grid, b domain.SpatialBounds, res float64, opts AggregateOptions) (*domain.Grid, error) {
	src, err := InferResolution(g)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	minCount := opts.MinCount(src, res)

	latBins := BuildBins(b.South, b.North, res)
	lonBins := BuildBins(b.West, b.East, res)
	latIdx := latBins.Assign(g.Latitude)
	lonIdx := lonBins.Assign(g.Longitude)

	out := &domain.Grid{
		Time:      append(g.Time[:0:0], g.Time...),
		Latitude:  latBins.Labels(),
		Longitude: lonBins.Labels(),
		Attrs:     copyAttrs(g.Attrs),
	}

	for _, v := range g.Variables {
		in := g.Layout(v)
		dst := out.Layout(v)
		sums := make([]float64, dst.Size())
		counts := make([]int, dst.Size())

		for t := 0; t < in.NTime; t++ {
			for i := 0; i < in.NLat; i++ {
				bi := latIdx[i]
				if bi < 0 {
					continue
				}
				for j := 0; j < in.NLon; j++ {
					bj := lonIdx[j]
					if bj < 0 {
						continue
					}
					from := in.Index(t, i, j, 0)
					to := dst.Index(t, bi, bj, 0)
					for e := 0; e < in.NExtra; e++ {
						val := v.Data[from+e]
						if math.IsNaN(val) {
							continue
						}
						sums[to+e] += val
						counts[to+e]++
					}
				}
			}
		}

		data := sums
		for k := range data {
			if counts[k] == 0 || counts[k] < minCount {
				data[k] = math.NaN()
				continue
			}
			data[k] = sums[k] / float64(counts[k])
		}
		out.Variables = append(out.Variables, derive(v, data))
	}
	return out, nil
}

// derive copies the metadata of v around new data.
func derive(v *domain.Variable, data []float64) *domain.Variable {
	return &domain.Variable{
		Name:      v.Name,
		Attrs:     copyAttrs(v.Attrs),
		ExtraDims: append([]domain.Dim(nil), v.ExtraDims...),
		Data:      data,
	}
}

func copyAttrs(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
