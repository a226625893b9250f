// Package daemon manages the gpuinfo daemon lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/tutu-network/gpuinfo/internal/infra/registry"
	"github.com/tutu-network/gpuinfo/internal/logging"
)

// Config holds all daemon configuration.
type Config struct {
	Driver    DriverConfig    `toml:"driver"`
	API       APIConfig       `toml:"api"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Thermal   ThermalConfig   `toml:"thermal"`
	Logging   logging.Config  `toml:"logging"`
}

// DriverConfig selects the vendor binding.
type DriverConfig struct {
	Name             string `toml:"name"`              // auto | nvapi | nvml | mock
	LibraryPath      string `toml:"library_path"`      // empty = system default
	DiscoveryTimeout string `toml:"discovery_timeout"` // how long a caller waits for discovery
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// TelemetryConfig controls metrics export.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// ThermalConfig controls the thermal monitor.
type ThermalConfig struct {
	Throttle int32  `toml:"throttle"` // C, counted as hot
	Critical int32  `toml:"critical"` // C, counted as critical
	Interval string `toml:"interval"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Driver: DriverConfig{
			Name:             registry.DriverAuto,
			DiscoveryTimeout: "10s",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 9835,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Thermal: ThermalConfig{
			Throttle: 83,
			Critical: 95,
			Interval: "5s",
		},
		Logging: logging.Config{
			Level:  "info",
			Output: "stderr",
		},
	}
}

// DiscoveryTimeout returns driver.discovery_timeout, defaulting to 10s.
func (c Config) DiscoveryTimeout() time.Duration {
	return parseDuration(c.Driver.DiscoveryTimeout, 10*time.Second)
}

// ThermalInterval returns thermal.interval, defaulting to 5s.
func (c Config) ThermalInterval() time.Duration {
	return parseDuration(c.Thermal.Interval, 5*time.Second)
}

// Validate reports every setting that cannot work.
func (c Config) Validate() error {
	var errs []error
	switch c.Driver.Name {
	case registry.DriverAuto, registry.DriverNVAPI, registry.DriverNVML, registry.DriverMock:
	default:
		errs = append(errs, fmt.Errorf("driver.name %q: want auto, nvapi, nvml or mock", c.Driver.Name))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.Thermal.Critical <= c.Thermal.Throttle {
		errs = append(errs, fmt.Errorf("thermal.critical (%d) must be above thermal.throttle (%d)",
			c.Thermal.Critical, c.Thermal.Throttle))
	}
	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging.level %q: %w", c.Logging.Level, err))
		}
	}
	return errors.Join(errs...)
}

// ConfigPath returns the config file location.
func ConfigPath() string {
	return filepath.Join(gpuinfoHome(), "config.toml")
}

// LoadConfig reads config from ~/.gpuinfo/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile reads config from path, falling back to defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet; use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.gpuinfo/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// gpuinfoHome returns the gpuinfo data directory.
func gpuinfoHome() string {
	if env := os.Getenv("GPUINFO_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gpuinfo")
}
