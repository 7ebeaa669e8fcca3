// Package properties persists the extent of a downloaded or ingested dataset
// as a properties.json file next to the data.
package properties

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.ngs.io/harmonize/internal/domain"
)

// FileName is the name of the properties file inside a dataset folder.
const FileName = "properties.json"

// file is the on-disk form.
type file struct {
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	North         float64  `json:"north"`
	East          float64  `json:"east"`
	South         float64  `json:"south"`
	West          float64  `json:"west"`
	VariableNames []string `json:"variable_names"`
}

// Write stores the bounds and variable names of a dataset in dir.
func Write(dir string, spatial domain.SpatialBounds, tb domain.TimeBounds, variables []string) error {
	f := file{
		StartTime:     tb.Start.UTC().Format(time.RFC3339),
		EndTime:       tb.End.UTC().Format(time.RFC3339),
		North:         spatial.North,
		East:          spatial.East,
		South:         spatial.South,
		West:          spatial.West,
		VariableNames: variables,
	}
	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dataset folder: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil { //nolint:gosec // Not sensitive.
		return fmt.Errorf("failed to write properties: %w", err)
	}
	return nil
}

// Read loads the properties file from dir. The dataset is named after the folder.
func Read(dir string) (domain.DatasetInfo, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path) //nolint:gosec // Path is built from the configured working directory.
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("failed to read properties: %w", err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	spatial, err := domain.NewSpatialBounds(f.North, f.East, f.South, f.West)
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	start, err := parseTime(f.StartTime)
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("%s: start_time: %w", path, err)
	}
	end, err := parseTime(f.EndTime)
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("%s: end_time: %w", path, err)
	}
	tb, err := domain.NewTimeBounds(start, end)
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return domain.DatasetInfo{
		Name:          filepath.Base(dir),
		Spatial:       spatial,
		Time:          tb,
		VariableNames: f.VariableNames,
	}, nil
}

// timeLayouts accepts RFC 3339 and the zone-less ISO form numpy writes.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time %q", s)
}
