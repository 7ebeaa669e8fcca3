// Package interp provides linear interpolation on regular rectilinear grids.
package interp

import (
	"math"
	"sort"
)

// weighted sums w[k]*v[k] over the corners. Corners whose weight is exactly
// zero do not contribute, so a NaN corner only propagates when the point
// actually depends on it.
func weighted(w, v [4]float64) float64 {
	var sum float64
	for k := range w {
		if w[k] == 0 {
			continue
		}
		sum += w[k] * v[k]
	}
	return sum
}

// Locate returns the index i of the interval [coords[i], coords[i+1]] containing x.
// coords must be strictly increasing with at least two entries.
func Locate(coords []float64, x float64) (int, bool) {
	n := len(coords)
	if n < 2 || math.IsNaN(x) || x < coords[0] || x > coords[n-1] {
		return 0, false
	}
	// First index with coords[i] > x, minus one.
	i := sort.Search(n, func(k int) bool { return coords[k] > x }) - 1
	if i >= n-1 {
		i = n - 2
	}
	return i, true
}

// Axis precomputes the interval and weight of each target coordinate along one axis.
type Axis struct {
	Index  []int     // Lower bracketing source index, -1 when outside.
	Weight []float64 // Fractional distance towards Index+1.
}

// NewAxis maps targets onto a strictly increasing source axis.
// A single-sample source only matches targets equal to that sample.
func NewAxis(source, targets []float64) Axis {
	ax := Axis{Index: make([]int, len(targets)), Weight: make([]float64, len(targets))}
	for k, x := range targets {
		if len(source) == 1 {
			ax.Index[k] = -1
			if x == source[0] {
				ax.Index[k] = 0
			}
			continue
		}
		i, ok := Locate(source, x)
		if !ok {
			ax.Index[k] = -1
			continue
		}
		w := (x - source[i]) / (source[i+1] - source[i])
		ax.Index[k] = i
		ax.Weight[k] = math.Max(0, math.Min(1, w))
	}
	return ax
}

// Resample2D bilinearly resamples a plane stored row-major as values[i*nx+j]:
//
//	f(x,y) ≈ (1-t)(1-u)f(x0,y0) + t(1-u)f(x1,y0) + (1-t)u*f(x0,y1) + tu*f(x1,y1)
//
// with t and u the axis weights. Targets outside the source extent become NaN.
func Resample2D(values []float64, nx int, xAxis, yAxis Axis, out []float64) {
	at := func(i, j int) float64 { return values[i*nx+j] }
	nxOut := len(xAxis.Index)
	for a, i := range yAxis.Index {
		for b, j := range xAxis.Index {
			k := a*nxOut + b
			if i < 0 || j < 0 {
				out[k] = math.NaN()
				continue
			}
			t, u := xAxis.Weight[b], yAxis.Weight[a]
			i1, j1 := i+1, j+1
			if u == 0 || i1 >= len(values)/nx {
				i1 = i
			}
			if t == 0 || j1 >= nx {
				j1 = j
			}
			out[k] = weighted(
				[4]float64{(1 - t) * (1 - u), t * (1 - u), (1 - t) * u, t * u},
				[4]float64{at(i, j), at(i, j1), at(i1, j), at(i1, j1)},
			)
		}
	}
}
