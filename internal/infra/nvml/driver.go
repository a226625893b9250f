//go:build linux && cgo

package nvml

import (
	"math"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/tutu-network/gpuinfo/internal/infra/nvapi"
)

// gpu is the slice of nvml.Device this driver reads.
type gpu interface {
	GetName() (string, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GetTemperature(sensor nvml.TemperatureSensors) (uint32, nvml.Return)
}

// library is the slice of nvml.Interface this driver uses, with device
// lookup returning the narrow gpu view so tests can fake it.
type library interface {
	Init() nvml.Return
	DeviceGetCount() (int, nvml.Return)
	DeviceGetHandleByIndex(index int) (gpu, nvml.Return)
}

// nvmlLibrary adapts nvml.Interface to library.
type nvmlLibrary struct {
	nvml.Interface
}

func (l nvmlLibrary) DeviceGetHandleByIndex(index int) (gpu, nvml.Return) {
	device, ret := l.Interface.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return device, ret
}

// Driver implements nvapi.Driver over NVML. Handles are enumeration
// indices plus one.
type Driver struct {
	lib library

	initMu sync.Mutex
	ready  bool

	mu   sync.RWMutex
	gpus []gpu
}

var _ nvapi.Driver = (*Driver)(nil)

// Open returns an NVML-backed driver. An empty path uses the loader's
// default search for libnvidia-ml.so.1.
func Open(libraryPath string) *Driver {
	var opts []nvml.LibraryOption
	if libraryPath != "" {
		opts = append(opts, nvml.WithLibraryPath(libraryPath))
	}
	return newDriver(nvmlLibrary{Interface: nvml.New(opts...)})
}

func newDriver(lib library) *Driver {
	return &Driver{lib: lib}
}

// init calls nvmlInit until it succeeds once. A failure is not cached so
// the next discovery attempt retries it.
func (d *Driver) init() nvapi.Status {
	d.initMu.Lock()
	defer d.initMu.Unlock()
	if d.ready {
		return nvapi.StatusOK
	}
	ret := d.lib.Init()
	if ret != nvml.SUCCESS && ret != nvml.ERROR_ALREADY_INITIALIZED {
		return initStatus(ret)
	}
	d.ready = true
	return nvapi.StatusOK
}

func (d *Driver) EnumPhysicalGPUs() ([]nvapi.PhysicalGPUHandle, nvapi.Status) {
	if st := d.init(); !st.OK() {
		return nil, st
	}
	count, ret := d.lib.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, initStatus(ret)
	}
	if count == 0 {
		return nil, nvapi.StatusNvidiaDeviceNotFound
	}
	count = min(count, nvapi.MaxPhysicalGPUs)

	gpus := make([]gpu, 0, count)
	handles := make([]nvapi.PhysicalGPUHandle, 0, count)
	for i := 0; i < count; i++ {
		g, ret := d.lib.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			return nil, queryStatus(ret)
		}
		gpus = append(gpus, g)
		handles = append(handles, nvapi.PhysicalGPUHandle(i+1))
	}

	d.mu.Lock()
	d.gpus = gpus
	d.mu.Unlock()
	return handles, nvapi.StatusOK
}

func (d *Driver) lookup(h nvapi.PhysicalGPUHandle) (gpu, nvapi.Status) {
	if st := d.init(); !st.OK() {
		return nil, st
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := int(h) - 1
	if i < 0 || i >= len(d.gpus) {
		return nil, nvapi.StatusExpectedPhysicalGPUHandle
	}
	return d.gpus[i], nvapi.StatusOK
}

func (d *Driver) GetFullName(h nvapi.PhysicalGPUHandle) (string, nvapi.Status) {
	g, st := d.lookup(h)
	if !st.OK() {
		return "", st
	}
	name, ret := g.GetName()
	if ret != nvml.SUCCESS {
		return "", queryStatus(ret)
	}
	return name, nvapi.StatusOK
}

func (d *Driver) GetMemoryInfo(h nvapi.PhysicalGPUHandle) (nvapi.MemoryInfo, nvapi.Status) {
	g, st := d.lookup(h)
	if !st.OK() {
		return nvapi.MemoryInfo{}, st
	}
	mem, ret := g.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return nvapi.MemoryInfo{}, queryStatus(ret)
	}
	return nvapi.MemoryInfo{
		DedicatedVideoMemory:             kilobytes(mem.Total),
		AvailableDedicatedVideoMemory:    kilobytes(mem.Free),
		CurAvailableDedicatedVideoMemory: kilobytes(mem.Free),
	}, nvapi.StatusOK
}

func (d *Driver) GetThermalSettings(h nvapi.PhysicalGPUHandle, target nvapi.ThermalTarget) ([]nvapi.ThermalSensorReading, nvapi.Status) {
	g, st := d.lookup(h)
	if !st.OK() {
		return nil, st
	}
	if target != nvapi.ThermalTargetAll && target != nvapi.ThermalTargetGPU {
		return []nvapi.ThermalSensorReading{}, nvapi.StatusOK
	}
	temp, ret := g.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return nil, queryStatus(ret)
	}
	return []nvapi.ThermalSensorReading{{
		Controller:  nvapi.ThermalControllerGPUInternal,
		CurrentTemp: int32(temp),
		Target:      nvapi.ThermalTargetGPU,
	}}, nvapi.StatusOK
}

// kilobytes converts NVML byte counts, saturating at the 32-bit field.
func kilobytes(bytes uint64) uint32 {
	kb := bytes / 1024
	if kb > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(kb)
}
