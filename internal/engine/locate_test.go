package engine

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestResolveOrder(t *testing.T) {
	t.Setenv(DefaultEnvVar, "")

	explicit := writeTemp(t, "explicit.csv", ucdpCSV)
	fromEnv := writeTemp(t, "env.csv", ucdpCSV)

	installDir := t.TempDir()
	installed := filepath.Join(installDir, DefaultRelPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(installed), 0o755))
	require.NoError(t, os.WriteFile(installed, []byte(ucdpCSV), 0o644))

	missing := filepath.Join(t.TempDir(), "nope.csv")

	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv(DefaultEnvVar, fromEnv)
		got, err := Source{Path: explicit, InstallDir: installDir}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, explicit, got)
	})

	t.Run("missing explicit path falls through to env", func(t *testing.T) {
		t.Setenv(DefaultEnvVar, fromEnv)
		got, err := Source{Path: missing, InstallDir: installDir}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, fromEnv, got)
	})

	t.Run("custom env var", func(t *testing.T) {
		t.Setenv("CONFLICT_CSV", fromEnv)
		got, err := Source{EnvVar: "CONFLICT_CSV", InstallDir: installDir}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, fromEnv, got)
	})

	t.Run("install dir default", func(t *testing.T) {
		got, err := Source{InstallDir: installDir}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, installed, got)
	})

	t.Run("extra fallback", func(t *testing.T) {
		got, err := Source{InstallDir: t.TempDir(), Fallbacks: []string{explicit}}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, explicit, got)
	})
}

func TestResolveNotFound(t *testing.T) {
	t.Setenv(DefaultEnvVar, "")
	missing := filepath.Join(t.TempDir(), "nope.csv")
	installDir := t.TempDir()

	_, err := Source{Path: missing, InstallDir: installDir}.Resolve()
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	assert.Equal(t, missing, nf.Tried[0])
	assert.Contains(t, nf.Tried, filepath.Join(installDir, DefaultRelPath))
	assert.Len(t, nf.Tried, 2+len(defaultFallbacks))
	for _, p := range nf.Tried {
		assert.Contains(t, err.Error(), p)
	}
	assert.Contains(t, err.Error(), DefaultEnvVar)
}

func TestCandidatesDeduplicated(t *testing.T) {
	t.Setenv(DefaultEnvVar, "")
	c := Source{Path: DefaultRelPath, InstallDir: t.TempDir()}.Candidates()
	seen := make(map[string]bool)
	for _, p := range c {
		assert.False(t, seen[p], "duplicate candidate %s", p)
		seen[p] = true
	}
}

func TestLoadSource(t *testing.T) {
	t.Run("stream", func(t *testing.T) {
		ds, err := LoadSource(Source{Reader: strings.NewReader(ucdpCSV), Logger: quietLogger()})
		require.NoError(t, err)
		assert.Equal(t, 5, ds.Len())
	})

	t.Run("file", func(t *testing.T) {
		path := writeTemp(t, "ucdp.csv", ucdpCSV)
		ds, err := LoadSource(Source{Path: path, InstallDir: t.TempDir(), Logger: quietLogger()})
		require.NoError(t, err)
		assert.Equal(t, 5, ds.Len())
	})

	t.Run("schema error is returned", func(t *testing.T) {
		path := writeTemp(t, "bad.csv", "country\nPeru\n")
		_, err := LoadSource(Source{Path: path, InstallDir: t.TempDir(), Logger: quietLogger()})
		var schemaErr *SchemaError
		assert.ErrorAs(t, err, &schemaErr)
	})
}
