package regrid

import (
	"math"

	"go.ngs.io/harmonize/internal/domain"
)

// DefaultMaxTargetCells caps the latitude x longitude size of any grid built during a regrid.
const DefaultMaxTargetCells = 25_000_000

// GridCells returns ceil((N-S)/res+1) * ceil((E-W)/res+1), the number of
// latitude x longitude cells a grid over b at res holds. The product is kept
// in float64 so that tiny resolutions saturate instead of overflowing int.
func GridCells(b domain.SpatialBounds, res float64) float64 {
	nLat := math.Ceil((b.North-b.South)/res + 1)
	nLon := math.Ceil((b.East-b.West)/res + 1)
	return nLat * nLon
}

// PeakCells returns the largest latitude x longitude grid the engine builds
// for strategy. The hybrid strategy first interpolates onto a grid refined to
// src/RefineFactor, which is usually larger than the target.
func (e *Engine) PeakCells(strategy Strategy, src domain.Resolution, b domain.SpatialBounds, res float64) float64 {
	cells := GridCells(b, res)
	if strategy == StrategyHybrid {
		cells = math.Max(cells, GridCells(b, src.Min()/e.Policy.RefineFactor))
	}
	return cells
}
