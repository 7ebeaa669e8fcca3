package usecase

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"go.ngs.io/harmonize/internal/domain"
	"go.ngs.io/harmonize/internal/observability"
	"go.ngs.io/harmonize/internal/regrid"
)

// Error reasons used as metric labels.
const (
	ReasonUnknownMethod = "unknown_method"
	ReasonUnavailable   = "unavailable"
	ReasonInvalidInput  = "invalid_input"
	ReasonInternal      = "internal"
)

// ErrInvalidRequest is returned for requests that are malformed before any grid check.
var ErrInvalidRequest = errors.New("invalid regrid request")

// RegridRequest encapsulates a regrid request
type RegridRequest struct {
	Grid       *domain.Grid
	Bounds     domain.SpatialBounds
	Resolution float64

	// Method is a registry token; empty uses the configured default.
	Method string

	// ChunkSize regrids this many time steps at a time; 0 regrids in one go.
	ChunkSize int
}

// Validate checks if the request is valid
func (r *RegridRequest) Validate() error {
	if r.Grid == nil {
		return fmt.Errorf("%w: no grid given", ErrInvalidRequest)
	}
	if err := r.Bounds.Validate(); err != nil {
		return err
	}
	if err := domain.CheckResolution(r.Resolution); err != nil {
		return err
	}
	if r.ChunkSize < 0 {
		return fmt.Errorf("%w: chunk size must not be negative, got %d", ErrInvalidRequest, r.ChunkSize)
	}
	return nil
}

// RegridResponse contains the regridded grid and how it was produced
type RegridResponse struct {
	Grid             *domain.Grid
	Method           string
	Strategy         string
	SourceResolution domain.Resolution
	MaskedCells      int
	Elapsed          time.Duration
}

// RegridUseCase orchestrates regridding
type RegridUseCase struct {
	registry       *regrid.Registry
	defaultMethod  string
	maxTargetCells int
	logger         *zap.Logger
}

// NewRegridUseCase creates a new regrid use case with the default cell cap.
func NewRegridUseCase(registry *regrid.Registry, defaultMethod string, logger *zap.Logger) *RegridUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegridUseCase{
		registry:       registry,
		defaultMethod:  defaultMethod,
		maxTargetCells: regrid.DefaultMaxTargetCells,
		logger:         logger,
	}
}

// WithMaxTargetCells sets the largest latitude x longitude grid a request may
// build. n <= 0 removes the cap.
func (uc *RegridUseCase) WithMaxTargetCells(n int) *RegridUseCase {
	uc.maxTargetCells = n
	return uc
}

// DefaultMethod is the method used when a request names none.
func (uc *RegridUseCase) DefaultMethod() string {
	if uc.defaultMethod == "" {
		return regrid.MethodAdaptive
	}
	return uc.defaultMethod
}

// Methods lists the registered backends.
func (uc *RegridUseCase) Methods() []regrid.MethodInfo {
	return uc.registry.Methods()
}

// Execute regrids the request grid and records metrics for the call.
func (uc *RegridUseCase) Execute(req RegridRequest) (*RegridResponse, error) {
	method := req.Method
	if method == "" {
		method = uc.defaultMethod
	}
	label := method
	if label == "" {
		label = regrid.MethodAdaptive
	}

	resp, err := uc.execute(req, method)
	if err != nil {
		reason := Reason(err)
		if reason == ReasonUnknownMethod {
			// Keep arbitrary user tokens out of the label set.
			label = "unknown"
		}
		observability.RecordRegridError(label, reason)
		uc.logger.Warn("regrid failed",
			zap.String("method", label),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return nil, err
	}

	observability.RecordRegrid(resp.Method, resp.Strategy, resp.Elapsed, resp.MaskedCells)
	uc.logger.Info("regrid complete",
		zap.String("method", resp.Method),
		zap.String("strategy", resp.Strategy),
		zap.Float64("source_resolution", resp.SourceResolution.Min()),
		zap.Float64("target_resolution", req.Resolution),
		zap.Int("lat", len(resp.Grid.Latitude)),
		zap.Int("lon", len(resp.Grid.Longitude)),
		zap.Int("masked_cells", resp.MaskedCells),
		zap.Duration("elapsed", resp.Elapsed),
	)
	return resp, nil
}

func (uc *RegridUseCase) execute(req RegridRequest, method string) (*RegridResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lazy, err := uc.registry.Defer(req.Grid, req.Bounds, req.Resolution, method)
	if err != nil {
		return nil, err
	}

	backend := lazy.Backend()
	resp := &RegridResponse{Method: backend.Name(), Strategy: backend.Name()}
	cells := regrid.GridCells(req.Bounds, req.Resolution)
	if engine, ok := backend.(*regrid.Engine); ok {
		strategy, src, err := engine.Plan(req.Grid, req.Resolution)
		if err != nil {
			return nil, err
		}
		resp.Strategy = strategy.String()
		resp.SourceResolution = src
		cells = engine.PeakCells(strategy, src, req.Bounds, req.Resolution)
	} else if src, err := regrid.InferResolution(req.Grid); err == nil {
		resp.SourceResolution = src
	}
	if uc.maxTargetCells > 0 && cells > float64(uc.maxTargetCells) {
		return nil, fmt.Errorf("%w: %s at %v degrees needs %.3g grid cells, limit is %d",
			ErrInvalidRequest, resp.Strategy, req.Resolution, cells, uc.maxTargetCells)
	}

	start := time.Now()
	var parts []*domain.Grid
	err = lazy.Chunks(req.ChunkSize, func(part *domain.Grid) error {
		parts = append(parts, part)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out, err := domain.ConcatTime(parts)
	if err != nil {
		return nil, err
	}
	resp.Elapsed = time.Since(start)
	resp.Grid = out
	resp.MaskedCells = CountMasked(out)
	return resp, nil
}

// CountMasked returns the number of NaN values over all variables.
func CountMasked(g *domain.Grid) int {
	n := 0
	for _, v := range g.Variables {
		for _, x := range v.Data {
			if math.IsNaN(x) {
				n++
			}
		}
	}
	return n
}

// Reason classifies a regrid error for metrics and HTTP status mapping.
func Reason(err error) string {
	switch {
	case errors.Is(err, regrid.ErrUnknownMethod):
		return ReasonUnknownMethod
	case errors.Is(err, regrid.ErrBackendUnavailable):
		return ReasonUnavailable
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidBounds),
		errors.Is(err, domain.ErrInvalidResolution),
		errors.Is(err, domain.ErrInvalidGrid),
		errors.Is(err, regrid.ErrTooFewSamples):
		return ReasonInvalidInput
	default:
		return ReasonInternal
	}
}
