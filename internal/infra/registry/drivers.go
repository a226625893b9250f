package registry

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/infra/nvapi"
	"github.com/tutu-network/gpuinfo/internal/logging"
)

// Driver names accepted by OpenDriver.
const (
	DriverAuto  = "auto"
	DriverNVAPI = "nvapi"
	DriverNVML  = "nvml"
	DriverMock  = "mock"
)

// OpenDriver returns the named driver binding. "auto" picks NvAPI on
// Windows and NVML where it is compiled in, falling back to NvAPI (which
// then reports itself unavailable).
func OpenDriver(name, libraryPath string) (nvapi.Driver, error) {
	switch name {
	case "", DriverAuto:
		if runtime.GOOS != "windows" && nvmlAvailable {
			return openNVML(libraryPath), nil
		}
		return nvapi.Open(libraryPath), nil
	case DriverNVAPI:
		return nvapi.Open(libraryPath), nil
	case DriverNVML:
		if !nvmlAvailable {
			return nil, fmt.Errorf("%w: %s (not compiled into this build)", domain.ErrUnknownDriver, name)
		}
		return openNVML(libraryPath), nil
	case DriverMock:
		return nvapi.NewMockDriver(), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDriver, name)
	}
}

// ─── Process-wide registry ──────────────────────────────────────────────────

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it over the "auto"
// driver on first use unless SetDefault ran first.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		drv, _ := OpenDriver(DriverAuto, "")
		defaultRegistry = ForDriver(drv, logging.WithComponent("registry"))
	}
	return defaultRegistry
}

// SetDefault installs r as the process-wide registry. It is meant for
// startup wiring, before anything has called Default.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defaultRegistry = r
	defaultMu.Unlock()
}

// Devices returns the process-wide device list.
func Devices(ctx context.Context) ([]domain.Device, error) {
	return Default().Devices(ctx)
}
