// Package nvapi adapts the NVIDIA driver API to the domain.Device contract.
//
// The vendor surface is modeled by the Driver interface. Open returns the
// native binding for the platform; nvml.Open provides the same surface on
// Linux; MockDriver serves demos and tests. Device turns a driver handle
// into a domain.Device and Discover builds the device list, separating
// "no GPUs present" from "driver unusable".
package nvapi

// MaxPhysicalGPUs is NVAPI_MAX_PHYSICAL_GPUS.
const MaxPhysicalGPUs = 64

// ShortStringMax is NVAPI_SHORT_STRING_MAX, the buffer size for names.
const ShortStringMax = 64

// PhysicalGPUHandle is the vendor's opaque device handle. Zero is never
// a valid handle.
type PhysicalGPUHandle uintptr

// MemoryInfo mirrors NV_DISPLAY_DRIVER_MEMORY_INFO (v2). Values are KB.
type MemoryInfo struct {
	DedicatedVideoMemory             uint32
	AvailableDedicatedVideoMemory    uint32
	SystemVideoMemory                uint32
	SharedSystemMemory               uint32
	CurAvailableDedicatedVideoMemory uint32
}

// Driver is the vendor device-management API. Every call reports a
// Status; results are only meaningful when the status is OK.
type Driver interface {
	// EnumPhysicalGPUs lists physical GPU handles. An empty machine
	// reports StatusNvidiaDeviceNotFound.
	EnumPhysicalGPUs() ([]PhysicalGPUHandle, Status)

	// GetFullName returns the device's short-string name.
	GetFullName(h PhysicalGPUHandle) (string, Status)

	// GetMemoryInfo returns the display driver memory statistics.
	GetMemoryInfo(h PhysicalGPUHandle) (MemoryInfo, Status)

	// GetThermalSettings returns the sensors matching target.
	// ThermalTargetAll requests every sensor.
	GetThermalSettings(h PhysicalGPUHandle, target ThermalTarget) ([]ThermalSensorReading, Status)
}
