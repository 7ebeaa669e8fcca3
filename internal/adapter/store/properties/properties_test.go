package properties

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/harmonize/internal/domain"
)

func TestWriteRead(t *testing.T) {
	ingest := filepath.Join(t.TempDir(), "ingest", "era5")

	spatial, err := domain.NewSpatialBounds(54, 6, 51, 3)
	require.NoError(t, err)
	tb, err := domain.NewTimeBounds(
		time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2010, 12, 31, 23, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	require.NoError(t, Write(ingest, spatial, tb, []string{"air-temperature"}))

	info, err := Read(ingest)
	require.NoError(t, err)
	assert.Equal(t, "era5", info.Name)
	assert.Equal(t, spatial, info.Spatial)
	assert.True(t, info.Time.Start.Equal(tb.Start))
	assert.True(t, info.Time.End.Equal(tb.End))
	assert.Equal(t, []string{"air-temperature"}, info.VariableNames)
}

func TestRead_NumpyTimestamps(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "eth-canopy-height")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := `{
    "start_time": "2020-01-01T00:00:00.000000000",
    "end_time": "2020-12-31",
    "north": 54, "east": 6, "south": 51, "west": 3,
    "variable_names": ["height_of_vegetation"]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	info, err := Read(dir)
	require.NoError(t, err)
	assert.True(t, info.Time.Start.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, info.HasVariable("height_of_vegetation"))
}

func TestRead_InvalidBounds(t *testing.T) {
	dir := t.TempDir()
	content := `{"start_time": "2020-01-01", "end_time": "2020-12-31",
 "north": 50, "east": 6, "south": 51, "west": 3, "variable_names": []}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	_, err := Read(dir)
	assert.ErrorIs(t, err, domain.ErrInvalidBounds)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
