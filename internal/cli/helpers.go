package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tutu-network/gpuinfo/internal/daemon"
	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/infra/registry"
	"github.com/tutu-network/gpuinfo/internal/logging"
)

// loadConfig reads the config file, applies global flags and sets up
// logging.
func loadConfig() (daemon.Config, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if driverFlag != "" {
		cfg.Driver.Name = driverFlag
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := logging.Init(cfg.Logging); err != nil {
		return cfg, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

// openRegistry builds the process registry over the configured driver.
func openRegistry(cfg daemon.Config) (*registry.Registry, error) {
	drv, err := registry.OpenDriver(cfg.Driver.Name, cfg.Driver.LibraryPath)
	if err != nil {
		return nil, err
	}
	reg := registry.ForDriver(drv, logging.WithComponent("registry"))
	registry.SetDefault(reg)
	return reg, nil
}

// discoveryContext bounds how long a command waits for discovery.
func discoveryContext(cmd *cobra.Command, cfg daemon.Config) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, cfg.DiscoveryTimeout())
}

// humanKB renders a kilobyte count as binary units.
func humanKB(kb uint32) string {
	return humanize.IBytes(uint64(kb) * 1024)
}

// formatSensors renders sensors as "gpu 45°C, memory 52°C".
func formatSensors(sensors []domain.ThermalSensorInfo) string {
	if len(sensors) == 0 {
		return "-"
	}
	parts := make([]string, len(sensors))
	for i, s := range sensors {
		parts[i] = fmt.Sprintf("%s %d°C", s.Target, s.Current)
	}
	return strings.Join(parts, ", ")
}
