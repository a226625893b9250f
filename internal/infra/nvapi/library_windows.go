//go:build windows

package nvapi

import (
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// NvAPI exports a single symbol; every entry point is resolved through it
// by interface ID.
const (
	idInitialize            = 0x0150E828
	idEnumPhysicalGPUs      = 0xE5AC921F
	idGPUGetFullName        = 0xCEEE8E9F
	idGPUGetMemoryInfo      = 0x07F9B368
	idGPUGetThermalSettings = 0xE3640A56
)

// structVersion builds NvAPI's MAKE_NVAPI_VERSION(struct, ver).
func structVersion(size uintptr, ver uint32) uint32 {
	return uint32(size) | ver<<16
}

// rawMemoryInfo is NV_DISPLAY_DRIVER_MEMORY_INFO_V2.
type rawMemoryInfo struct {
	Version                          uint32
	DedicatedVideoMemory             uint32
	AvailableDedicatedVideoMemory    uint32
	SystemVideoMemory                uint32
	SharedSystemMemory               uint32
	CurAvailableDedicatedVideoMemory uint32
}

// rawThermalSettings is NV_GPU_THERMAL_SETTINGS_V2.
type rawThermalSettings struct {
	Version uint32
	Count   uint32
	Sensor  [MaxThermalSensorsPerGPU]struct {
		Controller     int32
		DefaultMinTemp int32
		DefaultMaxTemp int32
		CurrentTemp    int32
		Target         int32
	}
}

// library is the nvapi64.dll binding. The DLL is loaded and
// NvAPI_Initialize called on first use. A load or init failure is
// returned to the caller and attempted again on the next call.
type library struct {
	path string

	mu     sync.Mutex
	loaded bool
	procs  map[uint32]uintptr
}

// Open returns the native NvAPI driver. An empty path loads the system
// copy of nvapi64.dll (nvapi.dll on 32-bit).
func Open(libraryPath string) Driver {
	if libraryPath == "" {
		libraryPath = "nvapi64.dll"
		if unsafe.Sizeof(uintptr(0)) == 4 {
			libraryPath = "nvapi.dll"
		}
	}
	return &library{path: libraryPath}
}

func (l *library) load() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return StatusOK
	}

	if l.procs == nil {
		var dll *windows.LazyDLL
		if filepath.IsAbs(l.path) {
			dll = windows.NewLazyDLL(l.path)
		} else {
			dll = windows.NewLazySystemDLL(l.path)
		}
		if err := dll.Load(); err != nil {
			return StatusLibraryNotFound
		}
		qi := dll.NewProc("nvapi_QueryInterface")
		if err := qi.Find(); err != nil {
			return StatusLibraryNotFound
		}

		procs := make(map[uint32]uintptr)
		for _, id := range []uint32{
			idInitialize, idEnumPhysicalGPUs, idGPUGetFullName,
			idGPUGetMemoryInfo, idGPUGetThermalSettings,
		} {
			addr, _, _ := qi.Call(uintptr(id))
			procs[id] = addr
		}
		l.procs = procs
	}

	if l.procs[idInitialize] == 0 {
		return StatusNoImplementation
	}
	r, _, _ := syscall.SyscallN(l.procs[idInitialize])
	if st := Status(int32(r)); !st.OK() {
		return st
	}
	l.loaded = true
	return StatusOK
}

func (l *library) call(id uint32, args ...uintptr) Status {
	if st := l.load(); !st.OK() {
		return st
	}
	addr := l.procs[id]
	if addr == 0 {
		return StatusNoImplementation
	}
	r, _, _ := syscall.SyscallN(addr, args...)
	return Status(int32(r))
}

func (l *library) EnumPhysicalGPUs() ([]PhysicalGPUHandle, Status) {
	var (
		handles [MaxPhysicalGPUs]uintptr
		count   uint32
	)
	st := l.call(idEnumPhysicalGPUs,
		uintptr(unsafe.Pointer(&handles[0])),
		uintptr(unsafe.Pointer(&count)))
	runtime.KeepAlive(&handles)
	runtime.KeepAlive(&count)
	if !st.OK() {
		return nil, st
	}
	if count > MaxPhysicalGPUs {
		count = MaxPhysicalGPUs
	}
	out := make([]PhysicalGPUHandle, count)
	for i := range out {
		out[i] = PhysicalGPUHandle(handles[i])
	}
	return out, StatusOK
}

func (l *library) GetFullName(h PhysicalGPUHandle) (string, Status) {
	var buf [ShortStringMax]byte
	st := l.call(idGPUGetFullName, uintptr(h), uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(&buf)
	if !st.OK() {
		return "", st
	}
	return windows.ByteSliceToString(buf[:]), StatusOK
}

func (l *library) GetMemoryInfo(h PhysicalGPUHandle) (MemoryInfo, Status) {
	var raw rawMemoryInfo
	raw.Version = structVersion(unsafe.Sizeof(raw), 2)
	st := l.call(idGPUGetMemoryInfo, uintptr(h), uintptr(unsafe.Pointer(&raw)))
	runtime.KeepAlive(&raw)
	if !st.OK() {
		return MemoryInfo{}, st
	}
	return MemoryInfo{
		DedicatedVideoMemory:             raw.DedicatedVideoMemory,
		AvailableDedicatedVideoMemory:    raw.AvailableDedicatedVideoMemory,
		SystemVideoMemory:                raw.SystemVideoMemory,
		SharedSystemMemory:               raw.SharedSystemMemory,
		CurAvailableDedicatedVideoMemory: raw.CurAvailableDedicatedVideoMemory,
	}, StatusOK
}

func (l *library) GetThermalSettings(h PhysicalGPUHandle, target ThermalTarget) ([]ThermalSensorReading, Status) {
	var raw rawThermalSettings
	raw.Version = structVersion(unsafe.Sizeof(raw), 2)
	st := l.call(idGPUGetThermalSettings, uintptr(h), uintptr(uint32(target)), uintptr(unsafe.Pointer(&raw)))
	runtime.KeepAlive(&raw)
	if !st.OK() {
		return nil, st
	}
	count := min(int(raw.Count), MaxThermalSensorsPerGPU)
	out := make([]ThermalSensorReading, count)
	for i := range out {
		s := raw.Sensor[i]
		out[i] = ThermalSensorReading{
			Controller:     ThermalController(s.Controller),
			DefaultMinTemp: s.DefaultMinTemp,
			DefaultMaxTemp: s.DefaultMaxTemp,
			CurrentTemp:    s.CurrentTemp,
			Target:         ThermalTarget(s.Target),
		}
	}
	return out, StatusOK
}
