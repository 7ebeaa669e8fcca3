package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"go.ngs.io/harmonize/internal/config"
	"go.ngs.io/harmonize/internal/regrid"
)

// NewRegridUseCaseFromConfig builds the backends described by cfg and checks
// that the configured default method can run.
func NewRegridUseCaseFromConfig(cfg config.RegridConfig, logger *zap.Logger) (*RegridUseCase, error) {
	engine := regrid.NewEngine()
	engine.Policy = cfg.Policy()
	engine.Options = cfg.AggregateOptions()

	conservative := regrid.NewConservative(cfg.ConservativeEnabled)
	conservative.MinValid = cfg.AggregateOptions().MinValidFraction()

	registry := regrid.DefaultRegistry(engine, conservative)
	if _, err := registry.Lookup(cfg.Method); err != nil {
		return nil, fmt.Errorf("regrid.method: %w", err)
	}
	return NewRegridUseCase(registry, cfg.Method, logger).WithMaxTargetCells(cfg.MaxTargetCells), nil
}
