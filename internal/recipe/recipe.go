// Package recipe loads recipe files and runs them against ingested datasets.
package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go.ngs.io/harmonize/internal/domain"
)

// ErrInvalidRecipe is returned when a recipe is missing a section or holds bad values.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe is the content of a recipe file.
//
//	name: "era5 netherlands"
//	download:
//	  years: [2020, 2020]
//	  bbox: [54, 6, 50, 3] # NESW
//	  datasets:
//	    era5:
//	      variables: [eastward_component_of_wind]
//	convert:
//	  convention: ALMA
//	  frequency: 1H
//	  resolution: 0.5
type Recipe struct {
	Name     string    `yaml:"name"`
	Download *Download `yaml:"download"`
	Convert  *Convert  `yaml:"convert"`
}

// Download selects the datasets, period and area.
type Download struct {
	Years    []int                     `yaml:"years"`
	BBox     []float64                 `yaml:"bbox"`
	Datasets map[string]DatasetRequest `yaml:"datasets"`
}

// DatasetRequest lists the variables wanted from one dataset.
type DatasetRequest struct {
	Variables []string `yaml:"variables"`
}

// Convert describes the output grid and conventions.
type Convert struct {
	Convention string  `yaml:"convention"`
	Frequency  string  `yaml:"frequency"`
	Resolution float64 `yaml:"resolution"`
	// Method overrides the configured regrid method for this recipe.
	Method string `yaml:"method,omitempty"`
}

// Load reads and validates a recipe file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Recipe path is user supplied on purpose.
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecipe, path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks that every section is present and usable.
func (r *Recipe) Validate() error {
	if r.Name == "" || r.Download == nil || r.Convert == nil {
		return fmt.Errorf("%w: one of the following items are missing from the recipe: name, download, convert", ErrInvalidRecipe)
	}
	if len(r.Download.Datasets) == 0 {
		return fmt.Errorf("%w: no dataset entry found in the recipe", ErrInvalidRecipe)
	}
	for name, ds := range r.Download.Datasets {
		if len(ds.Variables) == 0 {
			return fmt.Errorf("%w: dataset %q has no variables", ErrInvalidRecipe, name)
		}
	}
	if len(r.Download.Years) != 2 {
		return fmt.Errorf("%w: years must be [start, end], got %v", ErrInvalidRecipe, r.Download.Years)
	}
	if r.Download.Years[0] > r.Download.Years[1] {
		return fmt.Errorf("%w: start year %d is after end year %d", ErrInvalidRecipe, r.Download.Years[0], r.Download.Years[1])
	}
	if len(r.Download.BBox) != 4 {
		return fmt.Errorf("%w: bbox must be [north, east, south, west], got %v", ErrInvalidRecipe, r.Download.BBox)
	}
	if _, err := r.SpatialBounds(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	if r.Convert.Convention == "" || r.Convert.Frequency == "" {
		return fmt.Errorf("%w: convert needs convention, frequency and resolution", ErrInvalidRecipe)
	}
	if err := domain.CheckResolution(r.Convert.Resolution); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	return nil
}

// SpatialBounds returns the recipe bbox.
func (r *Recipe) SpatialBounds() (domain.SpatialBounds, error) {
	b := r.Download.BBox
	return domain.NewSpatialBounds(b[0], b[1], b[2], b[3])
}

// TimeBounds covers the recipe years, from January 1st of the first year to the
// last minute of December 31st of the last.
func (r *Recipe) TimeBounds() domain.TimeBounds {
	return domain.TimeBounds{
		Start: time.Date(r.Download.Years[0], time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(r.Download.Years[1], time.December, 31, 23, 59, 0, 0, time.UTC),
	}
}

// DatasetNames returns the dataset keys, lowercased and sorted.
func (r *Recipe) DatasetNames() []string {
	names := make([]string, 0, len(r.Download.Datasets))
	for name := range r.Download.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputName is the file name of a dataset result, e.g. "era5_2010-2020.nc".
func (r *Recipe) OutputName(dataset string) string {
	return fmt.Sprintf("%s_%d-%d.nc", strings.ToLower(dataset), r.Download.Years[0], r.Download.Years[1])
}

// OutputDir is where results of this recipe are written.
func (r *Recipe) OutputDir(workDir string) string {
	return filepath.Join(workDir, "output", r.Name)
}
