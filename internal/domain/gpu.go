// Package domain holds the pure GPU telemetry vocabulary: value types
// returned by device queries, the device capability contract, and the
// error taxonomy. It has no infrastructure dependency.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ─── Memory ─────────────────────────────────────────────────────────────────

// MemoryInfo is a point-in-time memory reading. All fields are kilobytes.
type MemoryInfo struct {
	Dedicated          uint32 `json:"dedicated_kb"`
	AvailableDedicated uint32 `json:"available_dedicated_kb"`
	System             uint32 `json:"system_kb"`
	SharedSystem       uint32 `json:"shared_system_kb"`
}

// UsedDedicated returns dedicated memory currently in use, in kilobytes.
func (m MemoryInfo) UsedDedicated() uint32 {
	if m.AvailableDedicated > m.Dedicated {
		return 0
	}
	return m.Dedicated - m.AvailableDedicated
}

// ─── Thermal ────────────────────────────────────────────────────────────────

// ThermalSensor classifies what a temperature sensor is attached to.
// Values are bit flags so a sensor covering several subsystems can be
// represented as their union. Unknown is the zero value.
type ThermalSensor uint32

const (
	ThermalSensorUnknown     ThermalSensor = 0
	ThermalSensorGPU         ThermalSensor = 1 << 0
	ThermalSensorMemory      ThermalSensor = 1 << 1
	ThermalSensorPowerSupply ThermalSensor = 1 << 2
	ThermalSensorAmbient     ThermalSensor = 1 << 3
)

var thermalSensorNames = []struct {
	flag ThermalSensor
	name string
}{
	{ThermalSensorGPU, "gpu"},
	{ThermalSensorMemory, "memory"},
	{ThermalSensorPowerSupply, "power_supply"},
	{ThermalSensorAmbient, "ambient"},
}

// Has reports whether every flag in other is set in s.
func (s ThermalSensor) Has(other ThermalSensor) bool {
	return other != ThermalSensorUnknown && s&other == other
}

// String renders the target, joining combined flags with "|".
func (s ThermalSensor) String() string {
	if s == ThermalSensorUnknown {
		return "unknown"
	}
	var parts []string
	rest := s
	for _, n := range thermalSensorNames {
		if s&n.flag != 0 {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseThermalSensor is the inverse of String.
func ParseThermalSensor(s string) (ThermalSensor, error) {
	if s == "" || s == "unknown" {
		return ThermalSensorUnknown, nil
	}
	var out ThermalSensor
	for _, part := range strings.Split(s, "|") {
		found := false
		for _, n := range thermalSensorNames {
			if n.name == part {
				out |= n.flag
				found = true
				break
			}
		}
		if !found {
			return ThermalSensorUnknown, fmt.Errorf("unknown thermal sensor target %q", part)
		}
	}
	return out, nil
}

// MarshalJSON encodes the target as its string form.
func (s ThermalSensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the string form produced by MarshalJSON.
func (s *ThermalSensor) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v, err := ParseThermalSensor(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ThermalSensorInfo is one sensor's reading. Current is in degrees Celsius
// and may be negative or a driver sentinel. Sensors carry no identity
// across calls; the same target may appear more than once.
type ThermalSensorInfo struct {
	Current int32         `json:"current_c"`
	Target  ThermalSensor `json:"target"`
}

// HottestOf returns the highest reading among sensors whose target
// includes want, and false if none match. ThermalSensorUnknown matches
// every sensor.
func HottestOf(sensors []ThermalSensorInfo, want ThermalSensor) (int32, bool) {
	var (
		hottest int32
		found   bool
	)
	for _, s := range sensors {
		if want != ThermalSensorUnknown && !s.Target.Has(want) {
			continue
		}
		if !found || s.Current > hottest {
			hottest = s.Current
			found = true
		}
	}
	return hottest, found
}
