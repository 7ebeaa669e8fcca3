package regrid

import (
	"fmt"

	"go.ngs.io/harmonize/internal/domain"
)

// Strategy tags the resampling path chosen for a call.
type Strategy int

const (
	// StrategyAggregate coarsens by binned averaging.
	StrategyAggregate Strategy = iota
	// StrategyInterpolate refines by linear interpolation.
	StrategyInterpolate
	// StrategyHybrid interpolates to a finer grid, then aggregates.
	StrategyHybrid
)

func (s Strategy) String() string {
	switch s {
	case StrategyAggregate:
		return "aggregate"
	case StrategyInterpolate:
		return "interpolate"
	case StrategyHybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Policy holds the tunable thresholds of the adaptive engine.
// The defaults are empirical; they are kept for compatibility, not derived.
type Policy struct {
	// CoarsenRatio: aggregate directly when target >= CoarsenRatio * source.
	CoarsenRatio float64
	// RefineRatio: interpolate directly when target <= RefineRatio * source.
	RefineRatio float64
	// RefineFactor: the hybrid path first interpolates to source / RefineFactor.
	RefineFactor float64
}

// DefaultPolicy returns the 4x / 0.25x / 4x policy.
func DefaultPolicy() Policy {
	return Policy{CoarsenRatio: 4, RefineRatio: 0.25, RefineFactor: 4}
}

// Validate checks that the thresholds leave a sensible band between them.
func (p Policy) Validate() error {
	if p.CoarsenRatio < 1 {
		return fmt.Errorf("coarsen ratio must be >= 1, got %v", p.CoarsenRatio)
	}
	if p.RefineRatio <= 0 || p.RefineRatio > 1 {
		return fmt.Errorf("refine ratio must be in (0, 1], got %v", p.RefineRatio)
	}
	if p.RefineFactor <= 1 {
		return fmt.Errorf("refine factor must be > 1, got %v", p.RefineFactor)
	}
	return nil
}

// ChooseStrategy picks the resampling path for a source and target resolution.
func ChooseStrategy(source, target float64, p Policy) Strategy {
	switch {
	case target >= p.CoarsenRatio*source:
		return StrategyAggregate
	case target <= p.RefineRatio*source:
		return StrategyInterpolate
	default:
		return StrategyHybrid
	}
}

// AggregateFunc matches Aggregate.
type AggregateFunc func(*domain.Grid, domain.SpatialBounds, float64, AggregateOptions) (*domain.Grid, error)

// InterpolateFunc matches Interpolate.
type InterpolateFunc func(*domain.Grid, domain.SpatialBounds, float64) (*domain.Grid, error)

// Engine is the adaptive regridder. The zero value is not usable; see NewEngine.
//
// Engine assumes validated input: bounds from domain.NewSpatialBounds and a
// positive resolution. Registry.Regrid performs those checks.
type Engine struct {
	Policy      Policy
	Options     AggregateOptions
	Aggregate   AggregateFunc
	Interpolate InterpolateFunc

	// Observe, when set, is called with the strategy of every Regrid call.
	Observe func(Strategy)
}

// NewEngine returns an engine with the default policy and tolerance.
func NewEngine() *Engine {
	return &Engine{
		Policy:      DefaultPolicy(),
		Options:     DefaultAggregateOptions(),
		Aggregate:   Aggregate,
		Interpolate: Interpolate,
	}
}

// Name implements Backend.
func (e *Engine) Name() string {
	return MethodAdaptive
}

// Available implements Backend; the adaptive engine has no external requirements.
func (e *Engine) Available() error {
	return nil
}

// Plan infers the source resolution of g and returns the strategy for res.
func (e *Engine) Plan(g *domain.Grid, res float64) (Strategy, domain.Resolution, error) {
	src, err := InferResolution(g)
	if err != nil {
		return 0, domain.Resolution{}, err
	}
	return ChooseStrategy(src.Min(), res, e.Policy), src, nil
}

// Regrid resamples g onto b at res.
func (e *Engine) Regrid(g *domain.Grid, b domain.SpatialBounds, res float64) (*domain.Grid, error) {
	strategy, src, err := e.Plan(g, res)
	if err != nil {
		return nil, fmt.Errorf("infer source resolution: %w", err)
	}
	if e.Observe != nil {
		e.Observe(strategy)
	}

	switch strategy {
	case StrategyAggregate:
		return e.Aggregate(g, b, res, e.Options)
	case StrategyInterpolate:
		return e.Interpolate(g, b, res)
	default:
		fine, err := e.Interpolate(g, b, src.Min()/e.Policy.RefineFactor)
		if err != nil {
			return nil, fmt.Errorf("refine before aggregation: %w", err)
		}
		return e.Aggregate(fine, b, res, e.Options)
	}
}
