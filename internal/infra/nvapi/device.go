package nvapi

import (
	"errors"
	"fmt"

	"github.com/tutu-network/gpuinfo/internal/domain"
)

// Device implements domain.Device for one NVIDIA physical GPU. It holds
// the driver handle and nothing else; every method queries the driver.
type Device struct {
	driver Driver
	handle PhysicalGPUHandle
}

var _ domain.Device = (*Device)(nil)

// NewDevice wraps a handle returned by driver enumeration.
func NewDevice(driver Driver, handle PhysicalGPUHandle) (*Device, error) {
	if driver == nil {
		return nil, errors.New("nvapi: nil driver")
	}
	if handle == 0 {
		return nil, fmt.Errorf("nvapi: %w", StatusExpectedPhysicalGPUHandle)
	}
	return &Device{driver: driver, handle: handle}, nil
}

// Name returns the GPU's full name.
func (d *Device) Name() (string, error) {
	name, st := d.driver.GetFullName(d.handle)
	if !st.OK() {
		return "", &domain.QueryError{Op: "name", Status: st}
	}
	return name, nil
}

// Memory returns the driver's current memory statistics in kilobytes.
func (d *Device) Memory() (domain.MemoryInfo, error) {
	raw, st := d.driver.GetMemoryInfo(d.handle)
	if !st.OK() {
		return domain.MemoryInfo{}, &domain.QueryError{Op: "memory", Status: st}
	}
	return domain.MemoryInfo{
		Dedicated:          raw.DedicatedVideoMemory,
		AvailableDedicated: raw.AvailableDedicatedVideoMemory,
		System:             raw.SystemVideoMemory,
		SharedSystem:       raw.SharedSystemMemory,
	}, nil
}

// ThermalSensors returns every sensor the driver reports, in driver order.
func (d *Device) ThermalSensors() ([]domain.ThermalSensorInfo, error) {
	readings, st := d.driver.GetThermalSettings(d.handle, ThermalTargetAll)
	if !st.OK() {
		return nil, &domain.QueryError{Op: "thermal_sensors", Status: st}
	}
	out := make([]domain.ThermalSensorInfo, 0, len(readings))
	for _, r := range readings {
		out = append(out, domain.ThermalSensorInfo{
			Current: r.CurrentTemp,
			Target:  sensorTarget(r.Target),
		})
	}
	return out, nil
}

// Discover enumerates physical GPUs and wraps each handle in a Device,
// keeping enumeration order. "No GPUs" statuses yield an empty slice;
// any other failure yields a *domain.DiscoveryError.
func Discover(driver Driver) ([]domain.Device, error) {
	handles, st := driver.EnumPhysicalGPUs()
	switch {
	case st.NoDevices():
		return []domain.Device{}, nil
	case !st.OK():
		return nil, &domain.DiscoveryError{Status: st}
	}

	devices := make([]domain.Device, 0, len(handles))
	for i, h := range handles {
		dev, err := NewDevice(driver, h)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", i, &domain.DiscoveryError{Status: StatusInvalidHandle})
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
