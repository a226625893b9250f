package domain

import (
	"context"
	"fmt"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the CLI, API and monitors depend on them.

// Device is the read-only capability set every GPU adapter provides.
// Each call re-queries the driver; nothing is cached, so repeated calls
// may return different values. Calls on different devices may run
// concurrently. Calls on the same device are as reentrant as the
// underlying vendor driver is for one handle.
type Device interface {
	// Name returns the marketing name of the device.
	Name() (string, error)

	// Memory returns current memory statistics.
	Memory() (MemoryInfo, error)

	// ThermalSensors returns one reading per sensor in driver order.
	ThermalSensors() ([]ThermalSensorInfo, error)
}

// DeviceLister returns the process's discovered devices.
// Implemented by infra/registry.Registry.
type DeviceLister interface {
	Devices(ctx context.Context) ([]Device, error)
}

// DeviceAt returns the device at index in lister's discovery order.
// An index outside the discovered set wraps ErrDeviceNotFound.
func DeviceAt(ctx context.Context, lister DeviceLister, index int) (Device, error) {
	devices, err := lister.Devices(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("index %d of %d: %w", index, len(devices), ErrDeviceNotFound)
	}
	return devices[index], nil
}
