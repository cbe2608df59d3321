// Package config loads memkeep settings from an optional YAML file with
// environment overrides and sane defaults.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds process-wide settings.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	// Maintenance policy.
	SweepEveryHours int `yaml:"sweep_every_hours"`
	CleanupAgeDays  int `yaml:"cleanup_age_days"`
	CleanupMaxScore int `yaml:"cleanup_max_importance"`
	CompressAgeDays int `yaml:"compress_age_days"`

	// Fixed-window rate limit per caller identity.
	RateLimit           int `yaml:"rate_limit"`
	RateLimitWindowSecs int `yaml:"rate_limit_window_secs"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:             filepath.Join(home, ".memkeep"),
		LogLevel:            "info",
		SweepEveryHours:     24,
		CleanupAgeDays:      90,
		CleanupMaxScore:     3,
		CompressAgeDays:     30,
		RateLimit:           60,
		RateLimitWindowSecs: 60,
	}
}

// SweepInterval returns the maintenance schedule as a duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepEveryHours) * time.Hour
}

// RateLimitWindow returns the rate-limit window as a duration.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSecs) * time.Second
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error; a malformed one is. MEMKEEP_DATA_DIR overrides the data
// directory last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, errors.Wrapf(err, "read config %s", path)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	if env := os.Getenv("MEMKEEP_DATA_DIR"); env != "" {
		cfg.DataDir = env
	}

	return cfg, nil
}

// KeyPath returns the encryption key file location under the data dir.
func (c Config) KeyPath() string {
	return filepath.Join(c.DataDir, "memkeep.key")
}
