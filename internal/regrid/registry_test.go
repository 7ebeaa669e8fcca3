package regrid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/harmonize/internal/domain"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))

	for _, method := range []string{"", "adaptive", "FLOX", " Adaptive "} {
		b, err := reg.Lookup(method)
		require.NoError(t, err, "method %q", method)
		assert.Equal(t, MethodAdaptive, b.Name())
	}

	_, err := reg.Lookup("esmf")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "conservative_enabled")

	enabled := DefaultRegistry(NewEngine(), NewConservative(true))
	b, err := enabled.Lookup("esmf")
	require.NoError(t, err)
	assert.Equal(t, MethodConservative, b.Name())
}

func TestRegistry_UnknownMethod(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	g := fieldGrid(axis(0, 1, 3), axis(0, 1, 3), constant(1))

	out, err := reg.Regrid(g, mustBounds(2, 2, 0, 0), 1.0, "bogus")
	assert.Nil(t, out)
	require.ErrorIs(t, err, ErrUnknownMethod)

	var me *MethodError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "bogus", me.Method)
	assert.Contains(t, me.Known, "adaptive")
	assert.Contains(t, me.Known, "esmf")
	assert.Contains(t, err.Error(), "'bogus'")
}

func TestRegistry_RejectsInvalidInput(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	g := fieldGrid(axis(0, 1, 3), axis(0, 1, 3), constant(1))

	_, err := reg.Regrid(g, domain.SpatialBounds{North: 0, East: 2, South: 2, West: 0}, 1.0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidBounds)

	_, err = reg.Regrid(g, mustBounds(2, 2, 0, 0), 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidResolution)

	broken := g.Clone()
	broken.Variables[0].Data = broken.Variables[0].Data[:4]
	_, err = reg.Regrid(broken, mustBounds(2, 2, 0, 0), 1.0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidGrid)
}

func TestRegistry_Methods(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	methods := reg.Methods()
	require.Len(t, methods, 2)

	assert.Equal(t, MethodAdaptive, methods[0].Name)
	assert.Equal(t, []string{"flox"}, methods[0].Aliases)
	assert.True(t, methods[0].Available)

	assert.Equal(t, MethodConservative, methods[1].Name)
	assert.False(t, methods[1].Available)
	assert.NotEmpty(t, methods[1].Reason)
}

type fixedBackend struct{ name string }

func (f fixedBackend) Name() string     { return f.name }
func (f fixedBackend) Available() error { return nil }
func (f fixedBackend) Regrid(g *domain.Grid, _ domain.SpatialBounds, _ float64) (*domain.Grid, error) {
	return g.Clone(), nil
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	reg.Register(fixedBackend{name: "Adaptive"})

	require.Len(t, reg.Methods(), 2)
	b, err := reg.Lookup("flox")
	require.NoError(t, err)
	assert.IsType(t, fixedBackend{}, b)
}
