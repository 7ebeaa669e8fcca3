package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/harmonize/internal/regrid"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, regrid.MethodAdaptive, cfg.Regrid.Method)
	assert.Equal(t, regrid.DefaultPolicy(), cfg.Regrid.Policy())
	assert.Equal(t, regrid.DefaultAggregateOptions(), cfg.Regrid.AggregateOptions())
	assert.False(t, cfg.Regrid.ConservativeEnabled)
	assert.Equal(t, regrid.DefaultMaxTargetCells, cfg.Regrid.MaxTargetCells)
	assert.Empty(t, cfg.Server.CORSAllowedOrigins)
	assert.Zero(t, cfg.Server.RegridRateLimit)
	assert.Equal(t, 4, cfg.Server.RegridBurst)
	assert.Equal(t, int64(64<<20), cfg.Server.MaxBodyBytes)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "harmonize.yaml")
	content := `
server:
  port: 9090
regrid:
  method: conservative
  conservative_enabled: true
  chunk_size: 24
  max_target_cells: 1000000
work:
  directory: /data/work
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	t.Setenv("HARMONIZE_SERVER_PORT", "9191")
	t.Setenv("HARMONIZE_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "environment overrides file")
	assert.Equal(t, "conservative", cfg.Regrid.Method)
	assert.True(t, cfg.Regrid.ConservativeEnabled)
	assert.Equal(t, 24, cfg.Regrid.ChunkSize)
	assert.Equal(t, 1000000, cfg.Regrid.MaxTargetCells)
	assert.Equal(t, "/data/work", cfg.Work.Directory)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{Port: 0, RegridRateLimit: -1},
		Log:    LogConfig{Level: "loud"},
		Regrid: RegridConfig{CoarsenRatio: 4, RefineRatio: 0.25, RefineFactor: 4, MaxMissingFraction: 1.5, ChunkSize: -1},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "regrid_rate_limit", "max_body_bytes", "log.level", "work.directory", "max_missing_fraction", "chunk_size", "max_target_cells"} {
		assert.Contains(t, err.Error(), want)
	}
}
