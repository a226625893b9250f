//go:build !windows

package nvapi

// Open returns the native NvAPI driver. NvAPI ships only with the Windows
// display driver, so elsewhere every call reports LIBRARY_NOT_FOUND.
func Open(libraryPath string) Driver {
	return unavailable{}
}

type unavailable struct{}

func (unavailable) EnumPhysicalGPUs() ([]PhysicalGPUHandle, Status) {
	return nil, StatusLibraryNotFound
}

func (unavailable) GetFullName(PhysicalGPUHandle) (string, Status) {
	return "", StatusLibraryNotFound
}

func (unavailable) GetMemoryInfo(PhysicalGPUHandle) (MemoryInfo, Status) {
	return MemoryInfo{}, StatusLibraryNotFound
}

func (unavailable) GetThermalSettings(PhysicalGPUHandle, ThermalTarget) ([]ThermalSensorReading, Status) {
	return nil, StatusLibraryNotFound
}
