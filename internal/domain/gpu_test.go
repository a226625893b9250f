package domain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// ─── ThermalSensor Tests ────────────────────────────────────────────────────

func TestThermalSensor_PowersOfTwo(t *testing.T) {
	flags := []ThermalSensor{
		ThermalSensorGPU, ThermalSensorMemory,
		ThermalSensorPowerSupply, ThermalSensorAmbient,
	}
	var union ThermalSensor
	for _, f := range flags {
		if f == 0 || f&(f-1) != 0 {
			t.Errorf("flag %d is not a power of two", f)
		}
		if union&f != 0 {
			t.Errorf("flag %s overlaps another flag", f)
		}
		union |= f
	}
	if ThermalSensorUnknown != 0 {
		t.Errorf("ThermalSensorUnknown = %d, want 0", ThermalSensorUnknown)
	}
}

func TestThermalSensor_String(t *testing.T) {
	tests := []struct {
		in   ThermalSensor
		want string
	}{
		{ThermalSensorUnknown, "unknown"},
		{ThermalSensorGPU, "gpu"},
		{ThermalSensorAmbient, "ambient"},
		{ThermalSensorGPU | ThermalSensorMemory, "gpu|memory"},
		{ThermalSensorPowerSupply | 0x100, "power_supply|0x100"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", uint32(tt.in), got, tt.want)
		}
	}
}

func TestThermalSensor_Has(t *testing.T) {
	combined := ThermalSensorGPU | ThermalSensorMemory
	if !combined.Has(ThermalSensorGPU) {
		t.Error("gpu|memory should have gpu")
	}
	if combined.Has(ThermalSensorAmbient) {
		t.Error("gpu|memory should not have ambient")
	}
	if combined.Has(ThermalSensorUnknown) {
		t.Error("Has(unknown) should always be false")
	}
}

func TestThermalSensor_ParseRoundTrip(t *testing.T) {
	for _, s := range []ThermalSensor{
		ThermalSensorUnknown, ThermalSensorGPU,
		ThermalSensorMemory | ThermalSensorAmbient,
	} {
		got, err := ParseThermalSensor(s.String())
		if err != nil {
			t.Fatalf("ParseThermalSensor(%q) error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseThermalSensor(%q) = %d, want %d", s, got, s)
		}
	}
	if _, err := ParseThermalSensor("fan"); err == nil {
		t.Error("ParseThermalSensor(fan) should fail")
	}
}

func TestThermalSensorInfo_JSON(t *testing.T) {
	data, err := json.Marshal(ThermalSensorInfo{Current: -5, Target: ThermalSensorGPU})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"current_c":-5,"target":"gpu"}` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestHottestOf(t *testing.T) {
	sensors := []ThermalSensorInfo{
		{Current: 40, Target: ThermalSensorGPU},
		{Current: 90, Target: ThermalSensorAmbient},
		{Current: 71, Target: ThermalSensorGPU | ThermalSensorMemory},
	}
	got, ok := HottestOf(sensors, ThermalSensorGPU)
	if !ok || got != 71 {
		t.Errorf("HottestOf(gpu) = %d,%v want 71,true", got, ok)
	}
	if _, ok := HottestOf(sensors, ThermalSensorPowerSupply); ok {
		t.Error("HottestOf(power_supply) should find nothing")
	}
}

// ─── MemoryInfo Tests ───────────────────────────────────────────────────────

func TestMemoryInfo_UsedDedicated(t *testing.T) {
	m := MemoryInfo{Dedicated: 4096, AvailableDedicated: 3000}
	if got := m.UsedDedicated(); got != 1096 {
		t.Errorf("UsedDedicated() = %d, want 1096", got)
	}
	m = MemoryInfo{Dedicated: 10, AvailableDedicated: 20}
	if got := m.UsedDedicated(); got != 0 {
		t.Errorf("UsedDedicated() with bogus available = %d, want 0", got)
	}
}

// ─── Error Tests ────────────────────────────────────────────────────────────

type testStatus int32

func (s testStatus) Error() string { return "status" }
func (s testStatus) Code() int32   { return int32(s) }

func TestQueryError_Unwrap(t *testing.T) {
	var err error = &QueryError{Op: "name", Status: testStatus(-1)}
	if !errors.Is(err, ErrQueryFailed) {
		t.Error("QueryError should match ErrQueryFailed")
	}
	if errors.Is(err, ErrDiscoveryUnavailable) {
		t.Error("QueryError should not match ErrDiscoveryUnavailable")
	}
	var st testStatus
	if !errors.As(err, &st) || st != -1 {
		t.Errorf("errors.As status = %d, want -1", st)
	}
}

func TestDiscoveryError_Unwrap(t *testing.T) {
	var err error = &DiscoveryError{Status: testStatus(-2)}
	if !errors.Is(err, ErrDiscoveryUnavailable) {
		t.Error("DiscoveryError should match ErrDiscoveryUnavailable")
	}
}

// ─── Snapshot Tests ─────────────────────────────────────────────────────────

type fakeDevice struct {
	nameErr error
}

func (d fakeDevice) Name() (string, error) {
	if d.nameErr != nil {
		return "", d.nameErr
	}
	return "GeForce Test", nil
}

func (d fakeDevice) Memory() (MemoryInfo, error) {
	return MemoryInfo{Dedicated: 8}, nil
}

func (d fakeDevice) ThermalSensors() ([]ThermalSensorInfo, error) {
	return nil, nil
}

func TestSnapshot_AllOK(t *testing.T) {
	r := Snapshot(fakeDevice{})
	if !r.OK() {
		t.Errorf("report errors = %v, want none", r.Errors)
	}
	if r.Name != "GeForce Test" {
		t.Errorf("Name = %q", r.Name)
	}
	if r.Memory == nil || r.Memory.Dedicated != 8 {
		t.Errorf("Memory = %+v", r.Memory)
	}
	if r.Sensors == nil {
		t.Error("Sensors should be an empty slice, not nil")
	}
}

func TestSnapshot_PartialFailure(t *testing.T) {
	r := Snapshot(fakeDevice{nameErr: &QueryError{Op: "name", Status: testStatus(-1)}})
	if r.OK() {
		t.Fatal("report should carry the name failure")
	}
	if _, ok := r.Errors["name"]; !ok {
		t.Errorf("Errors = %v, want name entry", r.Errors)
	}
	if r.Memory == nil {
		t.Error("memory should still be reported after a name failure")
	}
}

// ─── DeviceAt Tests ─────────────────────────────────────────────────────────

type sliceLister struct {
	devices []Device
	err     error
}

func (l sliceLister) Devices(context.Context) ([]Device, error) { return l.devices, l.err }

func TestDeviceAt(t *testing.T) {
	second := fakeDevice{nameErr: errors.New("second")}
	lister := sliceLister{devices: []Device{fakeDevice{}, second}}

	dev, err := DeviceAt(context.Background(), lister, 1)
	if err != nil {
		t.Fatalf("DeviceAt(1) error: %v", err)
	}
	if dev != Device(second) {
		t.Errorf("DeviceAt(1) = %v, want second device", dev)
	}

	for _, idx := range []int{-1, 2} {
		if _, err := DeviceAt(context.Background(), lister, idx); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("DeviceAt(%d) error = %v, want ErrDeviceNotFound", idx, err)
		}
	}

	failing := sliceLister{err: &DiscoveryError{Status: testStatus(-2)}}
	if _, err := DeviceAt(context.Background(), failing, 0); !errors.Is(err, ErrDiscoveryUnavailable) {
		t.Errorf("DeviceAt() with failed discovery error = %v", err)
	}
}
