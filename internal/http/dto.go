package http

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"go.ngs.io/harmonize/internal/domain"
)

// Values is a float array whose missing entries travel as JSON null.
type Values []float64

// MarshalJSON writes NaN and infinities as null.
func (v Values) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, x := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, x, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// UnmarshalJSON reads null entries as NaN.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	*v = out
	return nil
}

// VariableDTO is the wire form of domain.Variable.
type VariableDTO struct {
	Name      string            `json:"name"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	ExtraDims []domain.Dim      `json:"extra_dims,omitempty"`
	Data      Values            `json:"data"`
}

// GridDTO is the wire form of domain.Grid. Data is row-major in
// (time?, latitude, longitude, extra...) order.
type GridDTO struct {
	Time      []time.Time       `json:"time,omitempty"`
	Latitude  []float64         `json:"latitude"`
	Longitude []float64         `json:"longitude"`
	Variables []VariableDTO     `json:"variables"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// ToDomain converts the wire grid; shape checks are left to Grid.Validate.
func (g *GridDTO) ToDomain() *domain.Grid {
	out := &domain.Grid{
		Time:      g.Time,
		Latitude:  g.Latitude,
		Longitude: g.Longitude,
		Attrs:     g.Attrs,
	}
	for _, v := range g.Variables {
		out.Variables = append(out.Variables, &domain.Variable{
			Name:      v.Name,
			Attrs:     v.Attrs,
			ExtraDims: v.ExtraDims,
			Data:      v.Data,
		})
	}
	return out
}

// NewGridDTO converts a domain grid for output.
func NewGridDTO(g *domain.Grid) GridDTO {
	out := GridDTO{
		Time:      g.Time,
		Latitude:  g.Latitude,
		Longitude: g.Longitude,
		Variables: make([]VariableDTO, 0, len(g.Variables)),
		Attrs:     g.Attrs,
	}
	for _, v := range g.Variables {
		out.Variables = append(out.Variables, VariableDTO{
			Name:      v.Name,
			Attrs:     v.Attrs,
			ExtraDims: v.ExtraDims,
			Data:      v.Data,
		})
	}
	return out
}

// RegridRequest is the body of POST /v1/regrid.
type RegridRequest struct {
	Grid       *GridDTO              `json:"grid" binding:"required"`
	Bounds     *domain.SpatialBounds `json:"bounds" binding:"required"`
	Resolution float64               `json:"resolution"`
	Method     string                `json:"method,omitempty"`
	ChunkSize  int                   `json:"chunk_size,omitempty"`
}

// ResolutionDTO is a grid spacing in degrees.
type ResolutionDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RegridResponse is the body returned by POST /v1/regrid.
type RegridResponse struct {
	Method           string        `json:"method"`
	Strategy         string        `json:"strategy"`
	SourceResolution ResolutionDTO `json:"source_resolution"`
	MaskedCells      int           `json:"masked_cells"`
	ElapsedMS        float64       `json:"elapsed_ms"`
	Grid             GridDTO       `json:"grid"`
}
