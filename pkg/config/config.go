// Package config holds the engine settings surface.
//
// Settings are plain data: the engine and modules read them through the
// run context and never consult the environment or files themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scanforge/scanforge/pkg/model"
)

// Sentinel errors for configuration failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidConfig indicates the configuration is syntactically or
	// semantically invalid (bad YAML, unknown storage mode, etc.).
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Settings configures the engine and the module run context.
type Settings struct {
	// AppName identifies the service in logs.
	AppName string `yaml:"app_name"`

	// ArtifactBase is the base URI bodies are stored under.
	// file:// and bare paths select the local filesystem backend.
	ArtifactBase string `yaml:"artifact_base"`

	// StorageModeDefault applies to fetches that don't override it.
	StorageModeDefault model.StorageMode `yaml:"storage_mode_default"`

	// RecordOnlyDefault makes active modules default to record-only capture.
	RecordOnlyDefault bool `yaml:"record_only_default"`

	// ModuleTimeout bounds each module's run as a duration string,
	// e.g. "5m". Empty disables the bound.
	ModuleTimeout string `yaml:"module_timeout"`

	// RateLimit is the shared requests-per-second budget handed to
	// modules through the run context. Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit"`

	// MetricsEnabled turns on the engine's prometheus collectors.
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		AppName:            "scanforge",
		ArtifactBase:       "file:///tmp/scanforge-artifacts",
		StorageModeDefault: model.StorageSampled,
		ModuleTimeout:      "5m",
		RateLimit:          25,
	}
}

// Load reads settings from a YAML file, filling unset fields from
// Default().
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks semantic constraints.
func (s Settings) Validate() error {
	if !s.StorageModeDefault.IsValid() {
		return fmt.Errorf("%w: unknown storage mode %q", ErrInvalidConfig, s.StorageModeDefault)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate limit", ErrInvalidConfig)
	}
	if _, err := s.ModuleTimeoutValue(); err != nil {
		return fmt.Errorf("%w: module_timeout: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ModuleTimeoutValue parses the module timeout. An empty setting yields
// zero, meaning no bound.
func (s Settings) ModuleTimeoutValue() (time.Duration, error) {
	if s.ModuleTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.ModuleTimeout)
}
