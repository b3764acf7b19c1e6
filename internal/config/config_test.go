package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvDataPath, "")
	t.Setenv(EnvListenAddr, "")
	t.Setenv(EnvVerbose, "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ucdp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  path: /srv/ucdp/organizedviolencecy_v25_1.csv
dashboard:
  default_start: 1995
  top_n: 5
verbose: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ucdp/organizedviolencecy_v25_1.csv", cfg.Data.Path)
	assert.Equal(t, 1995, cfg.Dashboard.DefaultStart)
	assert.Equal(t, 2020, cfg.Dashboard.DefaultEnd)
	assert.Equal(t, 5, cfg.Dashboard.TopN)
	assert.Equal(t, 4, cfg.Dashboard.StepsPerYear)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.True(t, cfg.Verbose)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDataPath, "/data/ucdp.csv")
	t.Setenv(EnvListenAddr, "127.0.0.1:9000")
	t.Setenv(EnvVerbose, "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/ucdp.csv", cfg.Data.Path)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.True(t, cfg.Verbose)

	t.Setenv(EnvVerbose, "loud")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvVerbose)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dashboard: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse config file")

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("dashboard:\n  default_start: 2030\n  top_n: 0\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "default_start 2030 is after default_end 2020")
	assert.ErrorContains(t, err, "top_n must be positive")

	frames := filepath.Join(t.TempDir(), "frames.yaml")
	require.NoError(t, os.WriteFile(frames, []byte("dashboard:\n  steps_per_year: 200000000\n"), 0o644))
	_, err = Load(frames)
	assert.ErrorContains(t, err, "steps_per_year must be between 1 and 60")
}

func TestDefaultWindow(t *testing.T) {
	d := Default().Dashboard

	tests := []struct {
		name       string
		lo, hi     int
		start, end int
	}{
		{"inside data", 1989, 2024, 2000, 2020},
		{"data starts late", 2010, 2024, 2010, 2020},
		{"data ends early", 1989, 2005, 2000, 2005},
		{"no overlap", 1950, 1960, 1960, 1960},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := d.DefaultWindow(tt.lo, tt.hi)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}
