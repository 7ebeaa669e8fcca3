package regrid

import (
	"math"
	"sort"
)

// Bins is a partition of one axis into half-open intervals [Edges[k], Edges[k+1]).
type Bins struct {
	Edges  []float64
	Origin float64 // Midpoint of the first bin.
}

// BuildBins returns the bins whose midpoints are lo, lo+res, ..., hi.
//
// The bin count is round((hi-lo)/res)+1. When res does not divide hi-lo the
// bins are stretched evenly over [lo-res/2, hi+res/2], so the labels only
// approximate the requested spacing.
func BuildBins(lo, hi, res float64) Bins {
	n := int(math.Round((hi-lo)/res)) + 1
	start := lo - 0.5*res
	end := hi + 0.5*res
	edges := make([]float64, n+1)
	width := (end - start) / float64(n)
	for k := range edges {
		edges[k] = start + float64(k)*width
	}
	edges[n] = end
	return Bins{Edges: edges, Origin: lo}
}

// Len returns the number of bins.
func (b Bins) Len() int {
	return len(b.Edges) - 1
}

// Width returns the common bin width.
func (b Bins) Width() float64 {
	return (b.Edges[len(b.Edges)-1] - b.Edges[0]) / float64(b.Len())
}

// Locate returns the bin holding x, or -1 when x is outside every bin.
func (b Bins) Locate(x float64) int {
	if math.IsNaN(x) {
		return -1
	}
	k := sort.Search(len(b.Edges), func(i int) bool { return b.Edges[i] > x }) - 1
	if k < 0 || k >= b.Len() {
		return -1
	}
	return k
}

// Assign locates every coordinate.
func (b Bins) Assign(coords []float64) []int {
	idx := make([]int, len(coords))
	for i, c := range coords {
		idx[i] = b.Locate(c)
	}
	return idx
}

// Labels returns the bin midpoints as Origin + k*width, so an exact fit
// reproduces lo, lo+res, ..., hi without edge rounding noise.
func (b Bins) Labels() []float64 {
	w := b.Width()
	labels := make([]float64, b.Len())
	for k := range labels {
		labels[k] = b.Origin + float64(k)*w
	}
	return labels
}

// Arange returns start, start+step, ... up to but excluding stop.
// The count is ceil((stop-start)/step), so stop itself may appear through rounding.
func Arange(start, stop, step float64) []float64 {
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
