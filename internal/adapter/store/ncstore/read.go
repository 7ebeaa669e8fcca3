// Package ncstore reads and writes gridded datasets as NetCDF files.
package ncstore

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/harmonize/internal/domain"
)

// ErrVariableNotFound is returned when a requested data variable is missing from a file.
var ErrVariableNotFound = errors.New("variable not found")

// ReadOptions selects what ReadGrid loads.
type ReadOptions struct {
	// Variables to load. Required.
	Variables []string

	// Candidate coordinate variable names, tried in order.
	LatNames  []string
	LonNames  []string
	TimeNames []string

	// Window, when set, limits the read to the coordinates inside the box.
	Window *domain.SpatialBounds
	// WindowPad keeps this many extra coordinates beyond each side of Window.
	WindowPad int
}

// DefaultReadOptions returns the coordinate name candidates used by common
// reanalysis and satellite products.
func DefaultReadOptions(variables ...string) ReadOptions {
	return ReadOptions{
		Variables: variables,
		LatNames:  []string{"latitude", "lat", "y"},
		LonNames:  []string{"longitude", "lon", "x"},
		TimeNames: []string{"time", "valid_time"},
	}
}

// textAttrs are copied from each data variable into Variable.Attrs.
var textAttrs = []string{"units", "long_name", "standard_name"}

// axis is a coordinate variable as found in the file.
type axis struct {
	dim    string    // dimension name the coordinate runs along
	values []float64 // file order, restricted to [start, start+count)
	start  int
	count  int
	desc   bool // stored in decreasing order
}

// ReadGrid loads the requested variables from a NetCDF file into the
// canonical (time?, latitude, longitude, extra...) layout.
//
// Latitude and longitude are returned in increasing order whatever the file
// order. _FillValue and missing_value become NaN; scale_factor and add_offset
// are applied.
//
//nolint:gocyclo // Dimension matching has many small branches.
func ReadGrid(path string, opts ReadOptions) (*domain.Grid, error) {
	if len(opts.Variables) == 0 {
		return nil, fmt.Errorf("no variables requested from %s", path)
	}
	defaults := DefaultReadOptions()
	if len(opts.LatNames) == 0 {
		opts.LatNames = defaults.LatNames
	}
	if len(opts.LonNames) == 0 {
		opts.LonNames = defaults.LonNames
	}
	if len(opts.TimeNames) == 0 {
		opts.TimeNames = defaults.TimeNames
	}

	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	lat, err := readAxis(nc, opts.LatNames)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := readAxis(nc, opts.LonNames)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	if opts.Window != nil {
		if err := lat.restrict(opts.Window.South, opts.Window.North, opts.WindowPad); err != nil {
			return nil, fmt.Errorf("latitude: %w", err)
		}
		if err := lon.restrict(opts.Window.West, opts.Window.East, opts.WindowPad); err != nil {
			return nil, fmt.Errorf("longitude: %w", err)
		}
	}

	g := &domain.Grid{
		Latitude:  lat.ascending(),
		Longitude: lon.ascending(),
		Attrs:     readTextAttrs(nc.Attr, []string{"title", "source", "Conventions"}),
	}

	var timeDim string
	if tv, name, ok := findVar(nc, opts.TimeNames); ok {
		times, dim, err := readTime(tv)
		if err != nil {
			return nil, fmt.Errorf("time coordinate %q: %w", name, err)
		}
		g.Time = times
		timeDim = dim
	}

	for _, name := range opts.Variables {
		v, err := nc.Var(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q in %s", ErrVariableNotFound, name, path)
		}
		variable, err := readVariable(v, name, timeDim, len(g.Time), lat, lon)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		g.Variables = append(g.Variables, variable)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func findVar(nc netcdf.Dataset, names []string) (netcdf.Var, string, bool) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, name, true
		}
	}
	return netcdf.Var{}, "", false
}

func readAxis(nc netcdf.Dataset, names []string) (*axis, error) {
	v, _, ok := findVar(nc, names)
	if !ok {
		return nil, fmt.Errorf("coordinate variable not found (tried: %v)", names)
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D coordinate, got %dD", len(dims))
	}
	dim, err := dims[0].Name()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimension name: %w", err)
	}
	values, err := readFloat64Var(v)
	if err != nil {
		return nil, err
	}
	a := &axis{dim: dim, values: values, count: len(values)}
	if len(values) > 1 && values[0] > values[len(values)-1] {
		a.desc = true
	}
	return a, nil
}

// restrict narrows the axis to the contiguous run of coordinates inside
// [lo, hi], widened by pad coordinates on both sides where the file has them.
func (a *axis) restrict(lo, hi float64, pad int) error {
	first, last := -1, -1
	for i, c := range a.values {
		if c >= lo && c <= hi {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return fmt.Errorf("no coordinates inside [%.6f, %.6f]", lo, hi)
	}
	first = max(first-pad, 0)
	last = min(last+pad, len(a.values)-1)
	a.start = first
	a.count = last - first + 1
	a.values = a.values[first : last+1]
	return nil
}

// ascending returns a copy of the coordinates in increasing order.
func (a *axis) ascending() []float64 {
	out := make([]float64, len(a.values))
	for i, v := range a.values {
		if a.desc {
			out[len(out)-1-i] = v
		} else {
			out[i] = v
		}
	}
	return out
}

// role of a file dimension within the canonical layout.
type role int

const (
	roleTime role = iota
	roleLat
	roleLon
	roleExtra
)

// readVariable reads v and reorders it into (time?, lat, lon, extra...).
func readVariable(v netcdf.Var, name, timeDim string, nTime int, lat, lon *axis) (*domain.Variable, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}

	roles := make([]role, len(dims))
	start := make([]uint64, len(dims))
	count := make([]uint64, len(dims))
	pos := map[role]int{}
	out := &domain.Variable{Name: name}

	for k, d := range dims {
		dimName, err := d.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension name: %w", err)
		}
		n, err := d.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension length: %w", err)
		}
		count[k] = n
		switch dimName {
		case timeDim:
			roles[k] = roleTime
		case lat.dim:
			roles[k] = roleLat
			start[k], count[k] = uint64(lat.start), uint64(lat.count) //nolint:gosec // Indices are non-negative.
		case lon.dim:
			roles[k] = roleLon
			start[k], count[k] = uint64(lon.start), uint64(lon.count) //nolint:gosec // Indices are non-negative.
		default:
			roles[k] = roleExtra
			out.ExtraDims = append(out.ExtraDims, domain.Dim{Name: dimName, Len: int(n)})
		}
		if roles[k] != roleExtra {
			pos[roles[k]] = k
		}
	}
	if _, ok := pos[roleLat]; !ok {
		return nil, fmt.Errorf("no %q dimension", lat.dim)
	}
	if _, ok := pos[roleLon]; !ok {
		return nil, fmt.Errorf("no %q dimension", lon.dim)
	}
	_, hasTime := pos[roleTime]
	if nTime > 0 && !hasTime {
		return nil, fmt.Errorf("no %q dimension", timeDim)
	}

	raw, err := readValues(v, start, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	unpack(v, raw)

	// Canonical axis order expressed as file dimension positions.
	var order []int
	if hasTime {
		order = append(order, pos[roleTime])
	}
	order = append(order, pos[roleLat], pos[roleLon])
	for k, r := range roles {
		if r == roleExtra {
			order = append(order, k)
		}
	}
	flip := make([]bool, len(dims))
	flip[pos[roleLat]] = lat.desc
	flip[pos[roleLon]] = lon.desc

	out.Data = reorder(raw, count, order, flip)
	out.Attrs = readTextAttrs(v.Attr, textAttrs)
	return out, nil
}

// reorder permutes a row-major array with the given shape so that the axes
// appear in order, reversing the axes marked in flip.
func reorder(src []float64, shape []uint64, order []int, flip []bool) []float64 {
	strides := make([]int, len(shape))
	s := 1
	for k := len(shape) - 1; k >= 0; k-- {
		strides[k] = s
		s *= int(shape[k])
	}
	dst := make([]float64, len(src))
	idx := make([]int, len(order)) // position along each output axis
	for n := range dst {
		off := 0
		for a, k := range order {
			i := idx[a]
			if flip[k] {
				i = int(shape[k]) - 1 - i
			}
			off += i * strides[k]
		}
		dst[n] = src[off]
		for a := len(order) - 1; a >= 0; a-- {
			idx[a]++
			if idx[a] < int(shape[order[a]]) {
				break
			}
			idx[a] = 0
		}
	}
	return dst
}

// readValues reads the hyperslab [start, start+count) as float64.
func readValues(v netcdf.Var, start, count []uint64) ([]float64, error) {
	total := 1
	for _, c := range count {
		total *= int(c)
	}
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}

	out := make([]float64, total)
	switch varType {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64Slice(out, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64: %w", err)
		}
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32: %w", err)
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int32: %w", err)
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16: %w", err)
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.BYTE, netcdf.UBYTE, netcdf.CHAR, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return nil, fmt.Errorf("unsupported data type: %v (expected DOUBLE, FLOAT, INT, or SHORT)", varType)
	default:
		return nil, fmt.Errorf("unsupported data type: %v", varType)
	}
	return out, nil
}

// readFloat64Var reads a whole 1D variable as float64.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	n, err := v.Len()
	if err != nil {
		return nil, fmt.Errorf("failed to get length: %w", err)
	}
	return readValues(v, []uint64{0}, []uint64{n})
}

// unpack masks fill values and applies scale_factor/add_offset in place.
func unpack(v netcdf.Var, data []float64) {
	fill, hasFill := fillValue(v)
	scale, hasScale := numericAttr(v.Attr("scale_factor"))
	offset, hasOffset := numericAttr(v.Attr("add_offset"))
	if !hasScale || scale == 0 {
		scale = 1
	}
	if !hasOffset {
		offset = 0
	}
	for i, val := range data {
		if hasFill && val == fill {
			data[i] = math.NaN()
			continue
		}
		data[i] = val*scale + offset
	}
}

// fillValue returns the _FillValue or missing_value attribute if present.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		if fv, ok := numericAttr(v.Attr(name)); ok {
			return fv, true
		}
	}
	return 0, false
}

// numericAttr reads the first element of a numeric attribute of any common type.
func numericAttr(a netcdf.Attr) (float64, bool) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, n)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, n)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, n)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	bufs := make([]int16, n)
	if err := a.ReadInt16s(bufs); err == nil {
		return float64(bufs[0]), true
	}
	return 0, false
}

// textAttr reads a character attribute.
func textAttr(a netcdf.Attr) (string, bool) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return strings.TrimRight(string(buf), "\x00"), true
}

func readTextAttrs(get func(string) netcdf.Attr, names []string) map[string]string {
	var out map[string]string
	for _, name := range names {
		if s, ok := textAttr(get(name)); ok {
			if out == nil {
				out = make(map[string]string)
			}
			out[name] = s
		}
	}
	return out
}

func readTime(v netcdf.Var) ([]time.Time, string, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, "", fmt.Errorf("expected 1D coordinate, got %dD", len(dims))
	}
	dim, err := dims[0].Name()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get dimension name: %w", err)
	}
	units, ok := textAttr(v.Attr("units"))
	if !ok {
		return nil, "", fmt.Errorf("missing units attribute")
	}
	unit, epoch, err := ParseTimeUnits(units)
	if err != nil {
		return nil, "", err
	}
	values, err := readFloat64Var(v)
	if err != nil {
		return nil, "", err
	}
	times := make([]time.Time, len(values))
	for i, val := range values {
		times[i] = epoch.Add(time.Duration(math.Round(val * float64(unit))))
	}
	return times, dim, nil
}

var epochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimeUnits parses CF time units such as "hours since 1900-01-01 00:00:00".
// Epochs without a zone are UTC.
func ParseTimeUnits(units string) (time.Duration, time.Time, error) {
	unitPart, epochPart, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unsupported time units %q", units)
	}
	var unit time.Duration
	switch strings.ToLower(strings.TrimSpace(unitPart)) {
	case "seconds", "second", "s":
		unit = time.Second
	case "minutes", "minute":
		unit = time.Minute
	case "hours", "hour", "h":
		unit = time.Hour
	case "days", "day", "d":
		unit = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("unsupported time unit %q", unitPart)
	}
	epochPart = strings.TrimSpace(epochPart)
	for _, layout := range epochLayouts {
		if t, err := time.ParseInLocation(layout, epochPart, time.UTC); err == nil {
			return unit, t.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("unsupported time epoch %q", epochPart)
}
