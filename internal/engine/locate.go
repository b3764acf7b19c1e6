package engine

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultEnvVar names the environment variable holding the dataset path.
	DefaultEnvVar = "UCDP_DATA_PATH"
	// DefaultRelPath is where the dataset lives relative to the install directory.
	DefaultRelPath = "Dataset/organizedviolencecy_v25_1.csv"
)

var defaultFallbacks = []string{
	DefaultRelPath,
	"organizedviolencecy_v25_1.csv",
	"data/organizedviolencecy_v25_1.csv",
	"UCDP_Dashboard/Dataset/organizedviolencecy_v25_1.csv",
}

// Source describes where a dataset comes from. Candidates are tried in
// order: Reader, Path, the EnvVar path, InstallDir/DefaultRelPath, then the
// working-directory fallbacks and Fallbacks. The first existing file wins.
type Source struct {
	// Reader is an already open stream; Format tells how to decode it.
	Reader io.Reader
	Format Format

	Path       string
	EnvVar     string // defaults to DefaultEnvVar
	InstallDir string // defaults to the directory of the running executable
	Fallbacks  []string

	Logger *slog.Logger
}

// Candidates lists the file locations Resolve would try, de-duplicated.
func (s Source) Candidates() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	add(s.Path)

	envVar := s.EnvVar
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	add(os.Getenv(envVar))

	installDir := s.InstallDir
	if installDir == "" {
		if exe, err := os.Executable(); err == nil {
			installDir = filepath.Dir(exe)
		}
	}
	if installDir != "" {
		add(filepath.Join(installDir, DefaultRelPath))
	}

	for _, p := range defaultFallbacks {
		add(p)
	}
	for _, p := range s.Fallbacks {
		add(p)
	}
	return out
}

// Resolve returns the first candidate that is an existing regular file.
func (s Source) Resolve() (string, error) {
	tried := s.Candidates()
	for _, p := range tried {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", &NotFoundError{Tried: tried}
}

// LoadSource resolves src and loads the dataset it points at.
func LoadSource(src Source) (*Dataset, error) {
	log := src.Logger
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	var (
		ds     *Dataset
		err    error
		origin string
	)
	if src.Reader != nil {
		origin = "stream"
		ds, err = load(src.Reader, src.Format)
	} else {
		origin, err = src.Resolve()
		if err != nil {
			return nil, err
		}
		ds, err = LoadFile(origin)
	}
	if err != nil {
		return nil, err
	}

	log.Info("conflict dataset loaded",
		"source", origin,
		"rows", ds.Len(),
		"dropped", ds.Dropped(),
		"duration", time.Since(start))
	return ds, nil
}
