package regrid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/harmonize/internal/domain"
)

func linear(lat, lon float64) float64 { return lat + 10*lon }

func TestLazy_MaterializeIsMemoized(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	l, err := reg.Defer(timeGrid(3, axis(0, 1, 5), axis(0, 1, 5), linear), mustBounds(3, 3, 1, 1), 0.2, "")
	require.NoError(t, err)

	a, err := l.Materialize()
	require.NoError(t, err)
	b, err := l.Materialize()
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Len(t, a.Time, 3)
}

func TestLazy_ChunksMatchFullResult(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	src := timeGrid(5, axis(0, 1, 5), axis(0, 1, 5), linear)

	full, err := reg.Regrid(src, mustBounds(3, 3, 1, 1), 0.2, "adaptive")
	require.NoError(t, err)

	l, err := reg.Defer(src, mustBounds(3, 3, 1, 1), 0.2, "adaptive")
	require.NoError(t, err)
	var parts []*domain.Grid
	var sizes []int
	err = l.Chunks(2, func(g *domain.Grid) error {
		parts = append(parts, g)
		sizes = append(sizes, len(g.Time))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)

	joined, err := domain.ConcatTime(parts)
	require.NoError(t, err)
	assert.Equal(t, full.Time, joined.Time)
	assert.Equal(t, full.Variables[0].Data, joined.Variables[0].Data)
}

func TestLazy_SingleChunk(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	for _, g := range []*domain.Grid{
		fieldGrid(axis(0, 1, 5), axis(0, 1, 5), linear),
		timeGrid(3, axis(0, 1, 5), axis(0, 1, 5), linear),
	} {
		l, err := reg.Defer(g, mustBounds(3, 3, 1, 1), 0.2, "")
		require.NoError(t, err)
		calls := 0
		require.NoError(t, l.Chunks(0, func(*domain.Grid) error { calls++; return nil }))
		assert.Equal(t, 1, calls)
	}
}

func TestLazy_ChunkErrorStops(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	l, err := reg.Defer(timeGrid(4, axis(0, 1, 5), axis(0, 1, 5), linear), mustBounds(3, 3, 1, 1), 0.2, "")
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	err = l.Chunks(1, func(*domain.Grid) error { calls++; return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRegistry_DeferRejectsConfigurationErrors(t *testing.T) {
	reg := DefaultRegistry(NewEngine(), NewConservative(false))
	g := fieldGrid(axis(0, 1, 5), axis(0, 1, 5), linear)

	l, err := reg.Defer(g, mustBounds(3, 3, 1, 1), 0.2, "bogus")
	assert.Nil(t, l)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = reg.Defer(g, mustBounds(3, 3, 1, 1), 0.2, "conservative")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}
