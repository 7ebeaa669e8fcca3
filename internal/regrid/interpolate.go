package regrid

import (
	"go.ngs.io/harmonize/internal/adapter/interp"
	"go.ngs.io/harmonize/internal/domain"
)

// TargetAxes returns the interpolation targets Arange(south, north+res, res)
// and Arange(west, east+res, res).
func TargetAxes(b domain.SpatialBounds, res float64) (lat, lon []float64) {
	return Arange(b.South, b.North+res, res), Arange(b.West, b.East+res, res)
}

// Interpolate resamples g linearly along latitude and longitude onto the
// coordinates from TargetAxes. Time and extra dimensions pass through.
// Targets beyond the native extent are NaN; there is no extrapolation.
func Interpolate(g *domain.Grid, b domain.SpatialBounds, res float64) (*domain.Grid, error) {
	lat, lon := TargetAxes(b, res)
	return resampleOnto(g, lat, lon), nil
}

// resampleOnto bilinearly samples every plane of g at the given coordinates.
func resampleOnto(g *domain.Grid, lat, lon []float64) *domain.Grid {
	latAx := interp.NewAxis(g.Latitude, lat)
	lonAx := interp.NewAxis(g.Longitude, lon)

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
		plane := make([]float64, in.NLat*in.NLon)
		resampled := make([]float64, dst.NLat*dst.NLon)

		for t := 0; t < in.NTime; t++ {
			for e := 0; e < in.NExtra; e++ {
				for i := 0; i < in.NLat; i++ {
					for j := 0; j < in.NLon; j++ {
						plane[i*in.NLon+j] = v.Data[in.Index(t, i, j, e)]
					}
				}
				interp.Resample2D(plane, in.NLon, lonAx, latAx, resampled)
				for i := 0; i < dst.NLat; i++ {
					for j := 0; j < dst.NLon; j++ {
						data[dst.Index(t, i, j, e)] = resampled[i*dst.NLon+j]
					}
				}
			}
		}
		out.Variables = append(out.Variables, derive(v, data))
	}
	return out
}
