package regrid

import (
	"time"

	"go.ngs.io/harmonize/internal/domain"
)

// axis returns start, start+step, ..., n samples, built by multiplication.
func axis(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// fieldGrid fills a single variable with f(lat, lon) on a grid without time.
func fieldGrid(lat, lon []float64, f func(lat, lon float64) float64) *domain.Grid {
	data := make([]float64, 0, len(lat)*len(lon))
	for _, y := range lat {
		for _, x := range lon {
			data = append(data, f(y, x))
		}
	}
	return &domain.Grid{
		Latitude:  lat,
		Longitude: lon,
		Variables: []*domain.Variable{{
			Name:  "altitude",
			Attrs: map[string]string{"units": "meter"},
			Data:  data,
		}},
	}
}

// timeGrid stacks nt copies of fieldGrid, each offset by the step index.
func timeGrid(nt int, lat, lon []float64, f func(lat, lon float64) float64) *domain.Grid {
	g := fieldGrid(lat, lon, f)
	plane := g.Variables[0].Data
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	var data []float64
	for t := 0; t < nt; t++ {
		g.Time = append(g.Time, base.Add(time.Duration(t)*time.Hour))
		for _, v := range plane {
			data = append(data, v+float64(t))
		}
	}
	g.Variables[0].Data = data
	return g
}

func constant(c float64) func(float64, float64) float64 {
	return func(float64, float64) float64 { return c }
}

func mustBounds(north, east, south, west float64) domain.SpatialBounds {
	b, err := domain.NewSpatialBounds(north, east, south, west)
	if err != nil {
		panic(err)
	}
	return b
}

// at reads element (i, j) of the first variable of a grid without time or extra dims.
func at(g *domain.Grid, i, j int) float64 {
	return g.Variables[0].Data[i*len(g.Longitude)+j]
}
