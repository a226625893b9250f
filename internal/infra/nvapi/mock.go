package nvapi

import "sync/atomic"

// ─── Mock Driver (for demos and tests without NVIDIA hardware) ──────────────

// MockGPU describes one fake device served by MockDriver.
type MockGPU struct {
	Name    string
	Memory  MemoryInfo
	Sensors []ThermalSensorReading
}

// MockDriver implements Driver from a fixed GPU list. Temperatures drift
// by one degree per query so repeated reads show live behavior.
type MockDriver struct {
	gpus  []MockGPU
	ticks atomic.Uint32
}

// NewMockDriver returns a driver with two GPUs.
func NewMockDriver() *MockDriver {
	return NewMockDriverWith([]MockGPU{
		{
			Name: "NVIDIA GeForce RTX 4090",
			Memory: MemoryInfo{
				DedicatedVideoMemory:          24 * 1024 * 1024,
				AvailableDedicatedVideoMemory: 22 * 1024 * 1024,
				SystemVideoMemory:             0,
				SharedSystemMemory:            16 * 1024 * 1024,
			},
			Sensors: []ThermalSensorReading{
				{Controller: ThermalControllerGPUInternal, DefaultMinTemp: 0, DefaultMaxTemp: 127, CurrentTemp: 45, Target: ThermalTargetGPU},
				{Controller: ThermalControllerGPUInternal, DefaultMinTemp: 0, DefaultMaxTemp: 127, CurrentTemp: 52, Target: ThermalTargetMemory},
			},
		},
		{
			Name: "NVIDIA RTX A2000",
			Memory: MemoryInfo{
				DedicatedVideoMemory:          6 * 1024 * 1024,
				AvailableDedicatedVideoMemory: 5 * 1024 * 1024,
				SystemVideoMemory:             0,
				SharedSystemMemory:            8 * 1024 * 1024,
			},
			Sensors: []ThermalSensorReading{
				{Controller: ThermalControllerGPUInternal, DefaultMinTemp: 0, DefaultMaxTemp: 127, CurrentTemp: 38, Target: ThermalTargetGPU},
				{Controller: ThermalControllerADM1032, DefaultMinTemp: -40, DefaultMaxTemp: 100, CurrentTemp: 31, Target: ThermalTargetBoard},
			},
		},
	})
}

// NewMockDriverWith returns a driver serving the given GPUs.
func NewMockDriverWith(gpus []MockGPU) *MockDriver {
	return &MockDriver{gpus: gpus}
}

func (m *MockDriver) lookup(h PhysicalGPUHandle) (*MockGPU, Status) {
	i := int(h) - 1
	if i < 0 || i >= len(m.gpus) {
		return nil, StatusInvalidHandle
	}
	return &m.gpus[i], StatusOK
}

func (m *MockDriver) EnumPhysicalGPUs() ([]PhysicalGPUHandle, Status) {
	if len(m.gpus) == 0 {
		return nil, StatusNvidiaDeviceNotFound
	}
	handles := make([]PhysicalGPUHandle, len(m.gpus))
	for i := range m.gpus {
		handles[i] = PhysicalGPUHandle(i + 1)
	}
	return handles, StatusOK
}

func (m *MockDriver) GetFullName(h PhysicalGPUHandle) (string, Status) {
	g, st := m.lookup(h)
	if !st.OK() {
		return "", st
	}
	return g.Name, StatusOK
}

func (m *MockDriver) GetMemoryInfo(h PhysicalGPUHandle) (MemoryInfo, Status) {
	g, st := m.lookup(h)
	if !st.OK() {
		return MemoryInfo{}, st
	}
	return g.Memory, StatusOK
}

func (m *MockDriver) GetThermalSettings(h PhysicalGPUHandle, target ThermalTarget) ([]ThermalSensorReading, Status) {
	g, st := m.lookup(h)
	if !st.OK() {
		return nil, st
	}
	drift := int32(m.ticks.Add(1) % 5)
	out := make([]ThermalSensorReading, 0, len(g.Sensors))
	for _, s := range g.Sensors {
		if target != ThermalTargetAll && s.Target != target {
			continue
		}
		s.CurrentTemp += drift
		out = append(out, s)
	}
	return out, StatusOK
}
