package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go.ngs.io/harmonize/internal/config"
	"go.ngs.io/harmonize/internal/regrid"
)

func regridConfig() config.RegridConfig {
	p := regrid.DefaultPolicy()
	return config.RegridConfig{
		Method:             regrid.MethodAdaptive,
		CoarsenRatio:       p.CoarsenRatio,
		RefineRatio:        p.RefineRatio,
		RefineFactor:       p.RefineFactor,
		MaxMissingFraction: regrid.DefaultMaxMissingFraction,
		MaxTargetCells:     regrid.DefaultMaxTargetCells,
	}
}

func TestNewRegridUseCaseFromConfig(t *testing.T) {
	uc, err := NewRegridUseCaseFromConfig(regridConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, regrid.MethodAdaptive, uc.DefaultMethod())
	assert.Len(t, uc.Methods(), 2)
}

func TestNewRegridUseCaseFromConfig_DisabledDefault(t *testing.T) {
	cfg := regridConfig()
	cfg.Method = "esmf"

	_, err := NewRegridUseCaseFromConfig(cfg, zap.NewNop())
	assert.ErrorIs(t, err, regrid.ErrBackendUnavailable)

	cfg.ConservativeEnabled = true
	uc, err := NewRegridUseCaseFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "esmf", uc.DefaultMethod())
}

func TestNewRegridUseCaseFromConfig_Policy(t *testing.T) {
	cfg := regridConfig()
	cfg.CoarsenRatio = 2

	uc, err := NewRegridUseCaseFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	// A 2x coarsening is hybrid by default, aggregate with the tuned policy.
	resp, err := uc.Execute(RegridRequest{Grid: quarterDegree(0), Bounds: bounds(t), Resolution: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "aggregate", resp.Strategy)
}

func TestNewRegridUseCaseFromConfig_MaxTargetCells(t *testing.T) {
	cfg := regridConfig()
	cfg.MaxTargetCells = 100

	uc, err := NewRegridUseCaseFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	// 81x61 interpolation targets.
	_, err = uc.Execute(RegridRequest{Grid: quarterDegree(0), Bounds: bounds(t), Resolution: 0.05})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = uc.Execute(RegridRequest{Grid: quarterDegree(0), Bounds: bounds(t), Resolution: 1})
	assert.NoError(t, err)
}
