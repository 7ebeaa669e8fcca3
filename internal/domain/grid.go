package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Canonical dimension names.
const (
	DimTime      = "time"
	DimLatitude  = "latitude"
	DimLongitude = "longitude"
)

// ErrInvalidGrid is returned by Grid.Validate.
var ErrInvalidGrid = errors.New("invalid grid")

// Dim is a named trailing dimension of a variable (e.g. a band or a level).
type Dim struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
}

// Variable is a named data array on a Grid.
//
// Data is stored row-major in the canonical order (time?, latitude, longitude, extra...).
// The time axis is present exactly when the owning grid has time samples.
// NaN marks a missing observation.
type Variable struct {
	Name      string
	Attrs     map[string]string
	ExtraDims []Dim
	Data      []float64
}

// ExtraSize returns the product of the trailing dimension lengths (1 when there are none).
func (v *Variable) ExtraSize() int {
	n := 1
	for _, d := range v.ExtraDims {
		n *= d.Len
	}
	return n
}

// Clone returns a deep copy of the variable.
func (v *Variable) Clone() *Variable {
	out := &Variable{
		Name:      v.Name,
		Attrs:     cloneAttrs(v.Attrs),
		ExtraDims: append([]Dim(nil), v.ExtraDims...),
		Data:      append([]float64(nil), v.Data...),
	}
	return out
}

// Grid is a labeled array set on a regular latitude/longitude raster.
// Coordinates are strictly increasing. A Grid is treated as immutable:
// every transformation returns a new value.
type Grid struct {
	Time      []time.Time
	Latitude  []float64
	Longitude []float64
	Variables []*Variable
	Attrs     map[string]string
}

// Layout describes the shape of one variable on a grid.
type Layout struct {
	NTime  int
	NLat   int
	NLon   int
	NExtra int
}

// Index returns the flat offset of element (t, i, j, e).
func (l Layout) Index(t, i, j, e int) int {
	return ((t*l.NLat+i)*l.NLon+j)*l.NExtra + e
}

// Size returns the number of elements.
func (l Layout) Size() int {
	return l.NTime * l.NLat * l.NLon * l.NExtra
}

// HasTime reports whether the grid carries a time dimension.
func (g *Grid) HasTime() bool {
	return len(g.Time) > 0
}

// Layout returns the shape of v on this grid. Grids without a time axis use NTime=1.
func (g *Grid) Layout(v *Variable) Layout {
	nt := len(g.Time)
	if nt == 0 {
		nt = 1
	}
	return Layout{NTime: nt, NLat: len(g.Latitude), NLon: len(g.Longitude), NExtra: v.ExtraSize()}
}

// Dims returns the dimension names of v in storage order.
func (g *Grid) Dims(v *Variable) []string {
	dims := make([]string, 0, 3+len(v.ExtraDims))
	if g.HasTime() {
		dims = append(dims, DimTime)
	}
	dims = append(dims, DimLatitude, DimLongitude)
	for _, d := range v.ExtraDims {
		dims = append(dims, d.Name)
	}
	return dims
}

// Variable returns the named variable or nil.
func (g *Grid) Variable(name string) *Variable {
	for _, v := range g.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// VariableNames lists the variable names in order.
func (g *Grid) VariableNames() []string {
	names := make([]string, len(g.Variables))
	for i, v := range g.Variables {
		names[i] = v.Name
	}
	return names
}

// Validate checks coordinate ordering and data lengths.
func (g *Grid) Validate() error {
	if len(g.Latitude) == 0 || len(g.Longitude) == 0 {
		return fmt.Errorf("%w: grid must have at least one latitude and one longitude", ErrInvalidGrid)
	}
	if err := checkIncreasing(g.Latitude); err != nil {
		return fmt.Errorf("%w: latitude %v", ErrInvalidGrid, err)
	}
	if err := checkIncreasing(g.Longitude); err != nil {
		return fmt.Errorf("%w: longitude %v", ErrInvalidGrid, err)
	}
	for i := 1; i < len(g.Time); i++ {
		if !g.Time[i].After(g.Time[i-1]) {
			return fmt.Errorf("%w: time coordinates must be strictly increasing", ErrInvalidGrid)
		}
	}
	seen := make(map[string]bool, len(g.Variables))
	for _, v := range g.Variables {
		if v.Name == "" {
			return fmt.Errorf("%w: variable without a name", ErrInvalidGrid)
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: duplicate variable %q", ErrInvalidGrid, v.Name)
		}
		seen[v.Name] = true
		for _, d := range v.ExtraDims {
			if d.Len <= 0 {
				return fmt.Errorf("%w: variable %q has empty dimension %q", ErrInvalidGrid, v.Name, d.Name)
			}
		}
		if want := g.Layout(v).Size(); len(v.Data) != want {
			return fmt.Errorf("%w: variable %q has %d values, expected %d", ErrInvalidGrid, v.Name, len(v.Data), want)
		}
	}
	return nil
}

func checkIncreasing(coords []float64) error {
	for i, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coordinate %d is not finite", i)
		}
		if i > 0 && c <= coords[i-1] {
			return fmt.Errorf("coordinates must be strictly increasing (index %d)", i)
		}
	}
	return nil
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := g.shell()
	out.Latitude = append([]float64(nil), g.Latitude...)
	out.Longitude = append([]float64(nil), g.Longitude...)
	out.Variables = make([]*Variable, len(g.Variables))
	for i, v := range g.Variables {
		out.Variables[i] = v.Clone()
	}
	return out
}

// shell copies time and attributes but no coordinates or variables.
func (g *Grid) shell() *Grid {
	return &Grid{
		Time:  append([]time.Time(nil), g.Time...),
		Attrs: cloneAttrs(g.Attrs),
	}
}

// SliceTime returns the time steps [start, end). Grids without time are returned as a copy.
func (g *Grid) SliceTime(start, end int) (*Grid, error) {
	if !g.HasTime() {
		return g.Clone(), nil
	}
	if start < 0 || end > len(g.Time) || start >= end {
		return nil, fmt.Errorf("time slice [%d, %d) out of range for %d steps", start, end, len(g.Time))
	}
	out := &Grid{
		Time:      append([]time.Time(nil), g.Time[start:end]...),
		Latitude:  append([]float64(nil), g.Latitude...),
		Longitude: append([]float64(nil), g.Longitude...),
		Attrs:     cloneAttrs(g.Attrs),
	}
	for _, v := range g.Variables {
		l := g.Layout(v)
		step := l.NLat * l.NLon * l.NExtra
		nv := &Variable{
			Name:      v.Name,
			Attrs:     cloneAttrs(v.Attrs),
			ExtraDims: append([]Dim(nil), v.ExtraDims...),
			Data:      append([]float64(nil), v.Data[start*step:end*step]...),
		}
		out.Variables = append(out.Variables, nv)
	}
	return out, nil
}

// SelectTime keeps the time steps inside tb. Grids without time are returned as a copy.
func (g *Grid) SelectTime(tb TimeBounds) (*Grid, error) {
	if !g.HasTime() {
		return g.Clone(), nil
	}
	first, last := -1, -1
	for i, t := range g.Time {
		if tb.Contains(t) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil, fmt.Errorf("no time steps between %s and %s",
			tb.Start.Format(time.RFC3339), tb.End.Format(time.RFC3339))
	}
	return g.SliceTime(first, last+1)
}

// ConcatTime joins grids that share coordinates and variables along the time axis.
func ConcatTime(parts []*Grid) (*Grid, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrInvalidGrid)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	first := parts[0]
	out := &Grid{
		Latitude:  append([]float64(nil), first.Latitude...),
		Longitude: append([]float64(nil), first.Longitude...),
		Attrs:     cloneAttrs(first.Attrs),
	}
	for _, p := range parts {
		if !p.HasTime() {
			return nil, fmt.Errorf("%w: cannot concatenate grids without a time axis", ErrInvalidGrid)
		}
		if len(p.Latitude) != len(first.Latitude) || len(p.Longitude) != len(first.Longitude) ||
			len(p.Variables) != len(first.Variables) {
			return nil, fmt.Errorf("%w: grids to concatenate differ in shape", ErrInvalidGrid)
		}
		out.Time = append(out.Time, p.Time...)
	}
	for k, v := range first.Variables {
		nv := &Variable{
			Name:      v.Name,
			Attrs:     cloneAttrs(v.Attrs),
			ExtraDims: append([]Dim(nil), v.ExtraDims...),
		}
		for _, p := range parts {
			if p.Variables[k].Name != v.Name {
				return nil, fmt.Errorf("%w: variable order differs (%q vs %q)", ErrInvalidGrid, p.Variables[k].Name, v.Name)
			}
			nv.Data = append(nv.Data, p.Variables[k].Data...)
		}
		out.Variables = append(out.Variables, nv)
	}
	return out, nil
}

// MergeVariables combines grids that share coordinates into one grid holding
// the variables of all of them. Attributes of the first grid win.
func MergeVariables(grids []*Grid) (*Grid, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("%w: nothing to merge", ErrInvalidGrid)
	}
	out := grids[0].Clone()
	for _, g := range grids[1:] {
		if !sameCoords(out, g) {
			return nil, fmt.Errorf("%w: grids to merge differ in coordinates", ErrInvalidGrid)
		}
		for _, v := range g.Variables {
			if out.Variable(v.Name) != nil {
				return nil, fmt.Errorf("%w: duplicate variable %q", ErrInvalidGrid, v.Name)
			}
			out.Variables = append(out.Variables, v.Clone())
		}
		for k, v := range g.Attrs {
			if out.Attrs == nil {
				out.Attrs = make(map[string]string)
			}
			if _, ok := out.Attrs[k]; !ok {
				out.Attrs[k] = v
			}
		}
	}
	return out, nil
}

func sameCoords(a, b *Grid) bool {
	if len(a.Time) != len(b.Time) || !sameFloats(a.Latitude, b.Latitude) || !sameFloats(a.Longitude, b.Longitude) {
		return false
	}
	for i := range a.Time {
		if !a.Time[i].Equal(b.Time[i]) {
			return false
		}
	}
	return true
}

func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneAttrs(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
