package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"ucdp/internal/engine"
)

const (
	// EnvListenAddr overrides Server.Address.
	EnvListenAddr = "UCDP_LISTEN_ADDR"
	// EnvVerbose enables debug logging when set to a true value.
	EnvVerbose = "UCDP_VERBOSE"
	// EnvDataPath mirrors engine.DefaultEnvVar; it fills Data.Path when set.
	EnvDataPath = "UCDP_DATA_PATH"
)

// Config holds the dashboard settings.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Server    ServerConfig    `yaml:"server"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Verbose   bool            `yaml:"verbose"`
}

type DataConfig struct {
	// Path is an explicit dataset location; empty means resolve.
	Path      string   `yaml:"path"`
	Fallbacks []string `yaml:"fallbacks"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

// DashboardConfig holds the defaults the views start from.
type DashboardConfig struct {
	DefaultStart int `yaml:"default_start"`
	DefaultEnd   int `yaml:"default_end"`
	TopN         int `yaml:"top_n"`
	RegionTopN   int `yaml:"region_top_n"`
	StepsPerYear int `yaml:"steps_per_year"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: ":8080"},
		Dashboard: DashboardConfig{
			DefaultStart: 2000,
			DefaultEnd:   2020,
			TopN:         10,
			RegionTopN:   5,
			StepsPerYear: 4,
		},
	}
}

// Load reads path over the defaults. An empty path skips the file; a missing
// file is an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDataPath); v != "" && c.Data.Path == "" {
		c.Data.Path = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvVerbose, err)
		}
		c.Verbose = b
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	d := c.Dashboard
	if d.DefaultStart > d.DefaultEnd {
		errs = append(errs, fmt.Errorf("default_start %d is after default_end %d", d.DefaultStart, d.DefaultEnd))
	}
	if d.TopN < 1 {
		errs = append(errs, errors.New("top_n must be positive"))
	}
	if d.RegionTopN < 1 {
		errs = append(errs, errors.New("region_top_n must be positive"))
	}
	if d.StepsPerYear < 1 || d.StepsPerYear > engine.MaxStepsPerYear {
		errs = append(errs, fmt.Errorf("steps_per_year must be between 1 and %d", engine.MaxStepsPerYear))
	}
	return errors.Join(errs...)
}

// DefaultWindow clamps the configured default year window to [lo, hi], the
// range actually present in the data.
func (d DashboardConfig) DefaultWindow(lo, hi int) (int, int) {
	start := min(max(d.DefaultStart, lo), hi)
	end := max(min(d.DefaultEnd, hi), start)
	return start, end
}
