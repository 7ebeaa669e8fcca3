package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidBounds is returned when a bounding box is inverted or not finite.
	ErrInvalidBounds = errors.New("invalid spatial bounds")

	// ErrInvalidTimeBounds is returned when a time range ends before it starts.
	ErrInvalidTimeBounds = errors.New("invalid time bounds")

	// ErrInvalidResolution is returned for non-positive or non-finite resolutions.
	ErrInvalidResolution = errors.New("invalid resolution")
)

// SpatialBounds is a closed lat/lon bounding box in degrees.
// Construct it with NewSpatialBounds so the ordering invariant holds.
type SpatialBounds struct {
	North float64 `json:"north"`
	East  float64 `json:"east"`
	South float64 `json:"south"`
	West  float64 `json:"west"`
}

// NewSpatialBounds validates and returns a bounding box.
// The argument order (north, east, south, west) matches recipe bbox lists.
func NewSpatialBounds(north, east, south, west float64) (SpatialBounds, error) {
	for _, v := range []float64{north, east, south, west} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return SpatialBounds{}, fmt.Errorf("%w: bounds must be finite, got (%v, %v, %v, %v)",
				ErrInvalidBounds, north, east, south, west)
		}
	}
	if south > north {
		return SpatialBounds{}, fmt.Errorf("%w: southern bound %.6f is greater than northern bound %.6f",
			ErrInvalidBounds, south, north)
	}
	if west > east {
		return SpatialBounds{}, fmt.Errorf("%w: western bound %.6f is greater than eastern bound %.6f",
			ErrInvalidBounds, west, east)
	}
	return SpatialBounds{North: north, East: east, South: south, West: west}, nil
}

// Validate re-checks the invariant for values that were decoded rather than constructed.
func (b SpatialBounds) Validate() error {
	_, err := NewSpatialBounds(b.North, b.East, b.South, b.West)
	return err
}

// Expand widens the box by margin degrees on every side. The result is not
// clamped to valid latitudes; it is meant for selecting source data.
func (b SpatialBounds) Expand(margin float64) SpatialBounds {
	return SpatialBounds{
		North: b.North + margin,
		East:  b.East + margin,
		South: b.South - margin,
		West:  b.West - margin,
	}
}

// Contains reports whether (lat, lon) lies inside the closed box.
func (b SpatialBounds) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// TimeBounds is a closed time range.
type TimeBounds struct {
	Start time.Time
	End   time.Time
}

// NewTimeBounds validates and returns a time range.
func NewTimeBounds(start, end time.Time) (TimeBounds, error) {
	if end.Before(start) {
		return TimeBounds{}, fmt.Errorf("%w: start time %s should be before end time %s",
			ErrInvalidTimeBounds, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeBounds{Start: start, End: end}, nil
}

// Contains reports whether t lies inside the closed range.
func (b TimeBounds) Contains(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}

// Resolution is a grid spacing in degrees along latitude and longitude.
type Resolution struct {
	Lat float64
	Lon float64
}

// CheckResolution rejects zero, negative and non-finite spacings.
func CheckResolution(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) || deg <= 0 {
		return fmt.Errorf("%w: resolution must be a positive number of degrees, got %v", ErrInvalidResolution, deg)
	}
	return nil
}

// Min returns the finer of the two axis spacings.
func (r Resolution) Min() float64 {
	return math.Min(r.Lat, r.Lon)
}

// DatasetInfo describes what an ingested dataset covers.
type DatasetInfo struct {
	Name          string
	Spatial       SpatialBounds
	Time          TimeBounds
	VariableNames []string
}

// HasVariable reports whether name is one of the dataset variables.
func (d DatasetInfo) HasVariable(name string) bool {
	for _, v := range d.VariableNames {
		if v == name {
			return true
		}
	}
	return false
}
