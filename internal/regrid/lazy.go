package regrid

import (
	"fmt"
	"sync"

	"go.ngs.io/harmonize/internal/domain"
)

// Lazy is a deferred regrid. Nothing is computed until Materialize or Chunks is called.
type Lazy struct {
	backend Backend
	grid    *domain.Grid
	bounds  domain.SpatialBounds
	res     float64

	once   sync.Once
	result *domain.Grid
	err    error
}

// Defer validates the request and returns a handle for computing it later.
// Configuration errors (unknown or unavailable method, invalid input) surface here.
func (r *Registry) Defer(g *domain.Grid, b domain.SpatialBounds, res float64, method string) (*Lazy, error) {
	backend, err := r.prepare(g, b, res, method)
	if err != nil {
		return nil, err
	}
	return &Lazy{backend: backend, grid: g, bounds: b, res: res}, nil
}

// Backend returns the backend the request resolved to.
func (l *Lazy) Backend() Backend {
	return l.backend
}

// Materialize computes the full result once and returns it on every call.
func (l *Lazy) Materialize() (*domain.Grid, error) {
	l.once.Do(func() {
		l.result, l.err = l.backend.Regrid(l.grid, l.bounds, l.res)
	})
	return l.result, l.err
}

// Chunks regrids size time steps at a time and passes each result to fn in order.
// Grids without a time axis, or size <= 0, produce a single chunk.
// Chunk results are not retained.
func (l *Lazy) Chunks(size int, fn func(*domain.Grid) error) error {
	n := len(l.grid.Time)
	if n == 0 || size <= 0 || size >= n {
		out, err := l.Materialize()
		if err != nil {
			return err
		}
		return fn(out)
	}
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		part, err := l.grid.SliceTime(start, end)
		if err != nil {
			return err
		}
		out, err := l.backend.Regrid(part, l.bounds, l.res)
		if err != nil {
			return fmt.Errorf("time steps [%d, %d): %w", start, end, err)
		}
		if err := fn(out); err != nil {
			return err
		}
	}
	return nil
}
