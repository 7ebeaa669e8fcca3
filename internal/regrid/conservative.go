package regrid

import (
	"fmt"
	"math"
	"sort"

	"go.ngs.io/harmonize/internal/domain"
)

// DefaultConservativeMinValid is the share of overlap weight that must come from valid cells.
const DefaultConservativeMinValid = 1 - DefaultMaxMissingFraction

// Conservative is the area-weighted backend. Coarsening averages every
// overlapping source cell weighted by its spherical overlap area; refining
// falls back to bilinear interpolation.
//
// It is opt-in: Available reports ErrBackendUnavailable until Enabled is set.
type Conservative struct {
	Enabled  bool
	MinValid float64
}

// NewConservative returns the backend with the default 90% valid-weight threshold.
func NewConservative(enabled bool) *Conservative {
	return &Conservative{Enabled: enabled, MinValid: DefaultConservativeMinValid}
}

// Name implements Backend.
func (c *Conservative) Name() string {
	return MethodConservative
}

// Available implements Backend.
func (c *Conservative) Available() error {
	if !c.Enabled {
		return fmt.Errorf("%w: the conservative backend is disabled; set regrid.conservative_enabled: true "+
			"in config.yaml or HARMONIZE_REGRID_CONSERVATIVE_ENABLED=true, or use method 'adaptive'", ErrBackendUnavailable)
	}
	return nil
}

// ConservativeAxes returns the target coordinates Arange(south, north+0.9*res, res)
// and the same for longitude.
func ConservativeAxes(b domain.SpatialBounds, res float64) (lat, lon []float64) {
	return Arange(b.South, b.North+0.9*res, res), Arange(b.West, b.East+0.9*res, res)
}

// Regrid implements Backend.
func (c *Conservative) Regrid(g *domain.Grid, b domain.SpatialBounds, res float64) (*domain.Grid, error) {
	src, err := InferResolution(g)
	if err != nil {
		return nil, fmt.Errorf("conservative: %w", err)
	}
	lat, lon := ConservativeAxes(b, res)
	if res < src.Min() {
		return resampleOnto(g, lat, lon), nil
	}

	latOv := overlaps(cellEdges(g.Latitude), lat, res, latitudeWeight)
	lonOv := overlaps(cellEdges(g.Longitude), lon, res, func(lo, hi float64) float64 { return hi - lo })

	out := &domain.Grid{
		Time:      append(g.Time[:0:0], g.Time...),
		Latitude:  lat,
		Longitude: lon,
		Attrs:     copyAttrs(g.Attrs),
	}
	for _, v := range g.Variables {
		in := g.Layout(v)
		dst := out.Layout(v)
		data := make([]float64, dst.Size())
		for t := 0; t < dst.NTime; t++ {
			for i := 0; i < dst.NLat; i++ {
				for j := 0; j < dst.NLon; j++ {
					for e := 0; e < dst.NExtra; e++ {
						var total, valid, sum float64
						for _, oi := range latOv[i] {
							for _, oj := range lonOv[j] {
								w := oi.weight * oj.weight
								total += w
								val := v.Data[in.Index(t, oi.index, oj.index, e)]
								if math.IsNaN(val) {
									continue
								}
								valid += w
								sum += w * val
							}
						}
						k := dst.Index(t, i, j, e)
						if total == 0 || valid < c.MinValid*total {
							data[k] = math.NaN()
							continue
						}
						data[k] = sum / valid
					}
				}
			}
		}
		out.Variables = append(out.Variables, derive(v, data))
	}
	return out, nil
}

type overlap struct {
	index  int
	weight float64
}

// cellEdges returns the n+1 boundaries of the cells centred on coords.
func cellEdges(coords []float64) []float64 {
	n := len(coords)
	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		edges[i] = (coords[i-1] + coords[i]) / 2
	}
	edges[0] = coords[0] - (edges[1] - coords[0])
	edges[n] = coords[n-1] + (coords[n-1] - edges[n-1])
	return edges
}

// overlaps lists, for each target cell of width res centred on targets[k],
// the source cells it intersects and the weight of each intersection.
func overlaps(edges, targets []float64, res float64, weight func(lo, hi float64) float64) [][]overlap {
	out := make([][]overlap, len(targets))
	for k, c := range targets {
		lo, hi := c-res/2, c+res/2
		first := sort.Search(len(edges)-1, func(i int) bool { return edges[i+1] > lo })
		for i := first; i < len(edges)-1 && edges[i] < hi; i++ {
			a, b := math.Max(lo, edges[i]), math.Min(hi, edges[i+1])
			if b <= a {
				continue
			}
			if w := weight(a, b); w > 0 {
				out[k] = append(out[k], overlap{index: i, weight: w})
			}
		}
	}
	return out
}

// latitudeWeight is proportional to the area of a latitude band on the sphere.
func latitudeWeight(lo, hi float64) float64 {
	clamp := func(x float64) float64 { return math.Max(-90, math.Min(90, x)) * math.Pi / 180 }
	return math.Sin(clamp(hi)) - math.Sin(clamp(lo))
}
