package recipe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"go.ngs.io/harmonize/internal/adapter/store/ncstore"
	"go.ngs.io/harmonize/internal/adapter/store/properties"
	"go.ngs.io/harmonize/internal/domain"
	"go.ngs.io/harmonize/internal/usecase"
	"go.ngs.io/harmonize/internal/validation"
)

// Runner executes recipes against the ingested data below a working directory.
// Downloading and ingesting are done beforehand; Runner only loads, regrids and writes.
type Runner struct {
	dirs      *UserConfig
	regrid    *usecase.RegridUseCase
	chunkSize int
	logger    *zap.Logger
}

// NewRunner creates a runner. chunkSize is the number of time steps regridded at once.
func NewRunner(cfg *UserConfig, uc *usecase.RegridUseCase, chunkSize int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{dirs: cfg, regrid: uc, chunkSize: chunkSize, logger: logger}
}

// Run processes every dataset of the recipe and returns the written files.
func (r *Runner) Run(ctx context.Context, rc *Recipe) ([]string, error) {
	sb, err := rc.SpatialBounds()
	if err != nil {
		return nil, err
	}
	tb := rc.TimeBounds()

	logger := r.logger.With(zap.String("recipe", rc.Name))
	logger.Info("running recipe",
		zap.Strings("datasets", rc.DatasetNames()),
		zap.Float64("resolution", rc.Convert.Resolution),
		zap.String("convention", rc.Convert.Convention),
		zap.String("frequency", rc.Convert.Frequency),
	)

	var written []string
	for _, name := range rc.DatasetNames() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := r.runDataset(rc, name, sb, tb, logger.With(zap.String("dataset", name)))
		if err != nil {
			return written, fmt.Errorf("dataset %s: %w", name, err)
		}
		written = append(written, path)
	}

	logger.Info("finished running the recipe", zap.String("output_dir", rc.OutputDir(r.dirs.WorkingDirectory)))
	return written, nil
}

func (r *Runner) runDataset(rc *Recipe, name string, sb domain.SpatialBounds, tb domain.TimeBounds, logger *zap.Logger) (string, error) {
	_, ingestRoot, _ := r.dirs.Dirs()
	ingestDir := filepath.Join(ingestRoot, strings.ToLower(name))
	variables := rc.Download.Datasets[name].Variables

	info, err := properties.Read(ingestDir)
	if err != nil {
		return "", err
	}
	if err := validation.ValidateRequest(info, tb, variables); err != nil {
		return "", err
	}

	// Aggregation bins reach half a target cell past the box; the extra
	// sample per side gives interpolation its neighbours.
	window := sb.Expand(rc.Convert.Resolution)
	g, err := LoadIngested(ingestDir, variables, &window)
	if err != nil {
		return "", err
	}
	g, err = g.SelectTime(tb)
	if err != nil {
		return "", err
	}
	logger.Debug("loaded ingested data",
		zap.Int("time", len(g.Time)),
		zap.Int("lat", len(g.Latitude)),
		zap.Int("lon", len(g.Longitude)),
	)

	resp, err := r.regrid.Execute(usecase.RegridRequest{
		Grid:       g,
		Bounds:     sb,
		Resolution: rc.Convert.Resolution,
		Method:     rc.Convert.Method,
		ChunkSize:  r.chunkSize,
	})
	if err != nil {
		return "", err
	}

	out := resp.Grid
	if out.Attrs == nil {
		out.Attrs = make(map[string]string)
	}
	out.Attrs["regrid_method"] = resp.Method
	out.Attrs["regrid_strategy"] = resp.Strategy
	out.FillReferenceUnits()

	path := filepath.Join(rc.OutputDir(r.dirs.WorkingDirectory), rc.OutputName(name))
	if err := ncstore.WriteGrid(path, out); err != nil {
		return "", err
	}
	logger.Info("wrote dataset",
		zap.String("path", path),
		zap.String("strategy", resp.Strategy),
		zap.Strings("variables", out.VariableNames()),
	)
	return path, nil
}

// LoadIngested reads the variables from the NetCDF files in dir. Files may
// split the data by variable, by time or both; the parts are joined along
// time per variable and then merged. A non-nil window limits the read to the
// box plus one coordinate on each side.
func LoadIngested(dir string, variables []string, window *domain.SpatialBounds) (*domain.Grid, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.nc"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no NetCDF files found in %s", dir)
	}
	sort.Strings(files)

	merged := make([]*domain.Grid, 0, len(variables))
	for _, v := range variables {
		var parts []*domain.Grid
		for _, f := range files {
			opts := ncstore.DefaultReadOptions(v)
			if window != nil {
				opts.Window = window
				opts.WindowPad = 1
			}
			g, err := ncstore.ReadGrid(f, opts)
			if errors.Is(err, ncstore.ErrVariableNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
			}
			parts = append(parts, g)
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("%w: no ingested file provides %q", ncstore.ErrVariableNotFound, v)
		}
		sort.SliceStable(parts, func(i, j int) bool {
			return parts[i].HasTime() && parts[j].HasTime() && parts[i].Time[0].Before(parts[j].Time[0])
		})
		joined, err := domain.ConcatTime(parts)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v, err)
		}
		merged = append(merged, joined)
	}
	return domain.MergeVariables(merged)
}
