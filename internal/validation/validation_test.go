package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/harmonize/internal/domain"
)

func canopyHeight(t *testing.T) domain.DatasetInfo {
	t.Helper()
	tb, err := domain.NewTimeBounds(
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	sb, err := domain.NewSpatialBounds(90, 180, -90, -180)
	require.NoError(t, err)
	return domain.DatasetInfo{
		Name:          "eth-canopy-height",
		Spatial:       sb,
		Time:          tb,
		VariableNames: []string{"height_of_vegetation", "height_of_vegetation_standard_deviation"},
	}
}

func period(t *testing.T, start, end string) domain.TimeBounds {
	t.Helper()
	s, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	e, err := time.Parse("2006-01-02", end)
	require.NoError(t, err)
	tb, err := domain.NewTimeBounds(s, e)
	require.NoError(t, err)
	return tb
}

func TestCompareVariables_NotMatch(t *testing.T) {
	err := CompareVariables(canopyHeight(t), []string{"fake_var"})
	assert.ErrorIs(t, err, ErrInvalidVariable)
	assert.Contains(t, err.Error(), "fake_var")
}

func TestCompareTimeBounds_NotCoverStart(t *testing.T) {
	err := CompareTimeBounds(canopyHeight(t), period(t, "1900-01-01", "2020-12-31"))
	assert.ErrorIs(t, err, ErrInvalidTimeBounds)
	assert.Contains(t, err.Error(), "not cover the start")
	assert.NotContains(t, err.Error(), "not cover the end")
}

func TestCompareTimeBounds_NotCoverEnd(t *testing.T) {
	err := CompareTimeBounds(canopyHeight(t), period(t, "2020-01-01", "2100-12-31"))
	assert.ErrorIs(t, err, ErrInvalidTimeBounds)
	assert.Contains(t, err.Error(), "not cover the end")
}

func TestValidateRequest(t *testing.T) {
	ds := canopyHeight(t)
	assert.NoError(t, ValidateRequest(ds, period(t, "2020-01-01", "2020-12-31"), []string{"height_of_vegetation"}))
	assert.ErrorIs(t, ValidateRequest(ds, period(t, "2020-01-01", "2020-12-31"), []string{"altitude"}), ErrInvalidVariable)
}
