package ncstore

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/harmonize/internal/domain"
)

// TimeUnits is the encoding used for the time coordinate of written files.
const TimeUnits = "seconds since 1970-01-01 00:00:00"

// WriteGrid writes g to path as a classic NetCDF file, replacing any existing file.
// Missing values are written as NaN and flagged through _FillValue.
//
//nolint:gocyclo // Define mode needs every dimension and attribute up front.
func WriteGrid(path string, g *domain.Grid) (err error) {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	nc, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create NetCDF file: %w", err)
	}
	defer func() {
		if cerr := nc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close NetCDF file: %w", cerr)
		}
	}()

	dims := map[string]netcdf.Dim{}
	dimLens := map[string]int{}
	addDim := func(name string, n int) (netcdf.Dim, error) {
		if d, ok := dims[name]; ok {
			if dimLens[name] != n {
				return netcdf.Dim{}, fmt.Errorf("dimension %q has conflicting lengths %d and %d", name, dimLens[name], n)
			}
			return d, nil
		}
		d, err := nc.AddDim(name, uint64(n)) //nolint:gosec // Lengths are positive.
		if err != nil {
			return netcdf.Dim{}, fmt.Errorf("failed to add dimension %q: %w", name, err)
		}
		dims[name], dimLens[name] = d, n
		return d, nil
	}

	type pending struct {
		v    netcdf.Var
		data []float64
	}
	var writes []pending

	addCoord := func(name, units string, values []float64) error {
		d, err := addDim(name, len(values))
		if err != nil {
			return err
		}
		v, err := nc.AddVar(name, netcdf.DOUBLE, []netcdf.Dim{d})
		if err != nil {
			return fmt.Errorf("failed to add variable %q: %w", name, err)
		}
		if err := v.Attr("units").WriteBytes([]byte(units)); err != nil {
			return fmt.Errorf("failed to write units of %q: %w", name, err)
		}
		writes = append(writes, pending{v: v, data: values})
		return nil
	}

	if g.HasTime() {
		seconds := make([]float64, len(g.Time))
		for i, t := range g.Time {
			seconds[i] = float64(t.UnixNano()) / 1e9
		}
		if err := addCoord(domain.DimTime, TimeUnits, seconds); err != nil {
			return err
		}
	}
	if err := addCoord(domain.DimLatitude, "degrees_north", g.Latitude); err != nil {
		return err
	}
	if err := addCoord(domain.DimLongitude, "degrees_east", g.Longitude); err != nil {
		return err
	}

	for _, variable := range g.Variables {
		var vdims []netcdf.Dim
		for _, name := range g.Dims(variable) {
			n := len(g.Latitude)
			switch name {
			case domain.DimTime:
				n = len(g.Time)
			case domain.DimLongitude:
				n = len(g.Longitude)
			case domain.DimLatitude:
			default:
				n = extraLen(variable, name)
			}
			d, err := addDim(name, n)
			if err != nil {
				return err
			}
			vdims = append(vdims, d)
		}
		v, err := nc.AddVar(variable.Name, netcdf.DOUBLE, vdims)
		if err != nil {
			return fmt.Errorf("failed to add variable %q: %w", variable.Name, err)
		}
		if err := v.Attr("_FillValue").WriteFloat64s([]float64{math.NaN()}); err != nil {
			return fmt.Errorf("failed to write _FillValue of %q: %w", variable.Name, err)
		}
		if err := writeTextAttrs(v.Attr, variable.Attrs); err != nil {
			return fmt.Errorf("variable %q: %w", variable.Name, err)
		}
		writes = append(writes, pending{v: v, data: variable.Data})
	}
	if err := writeTextAttrs(nc.Attr, g.Attrs); err != nil {
		return fmt.Errorf("global attributes: %w", err)
	}

	if err := nc.EndDef(); err != nil {
		return fmt.Errorf("failed to leave define mode: %w", err)
	}
	for _, w := range writes {
		if err := w.v.WriteFloat64s(w.data); err != nil {
			name, _ := w.v.Name()
			return fmt.Errorf("failed to write %q: %w", name, err)
		}
	}
	return nil
}

func extraLen(v *domain.Variable, name string) int {
	for _, d := range v.ExtraDims {
		if d.Name == name {
			return d.Len
		}
	}
	return 0
}

// writeTextAttrs writes attrs in key order so files are reproducible.
func writeTextAttrs(get func(string) netcdf.Attr, attrs map[string]string) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if k == "_FillValue" || k == "missing_value" || attrs[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := get(k).WriteBytes([]byte(attrs[k])); err != nil {
			return fmt.Errorf("failed to write attribute %q: %w", k, err)
		}
	}
	return nil
}
