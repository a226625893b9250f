package nvapi

import "github.com/tutu-network/gpuinfo/internal/domain"

// ThermalTarget mirrors NV_THERMAL_TARGET.
type ThermalTarget int32

const (
	ThermalTargetNone        ThermalTarget = 0
	ThermalTargetGPU         ThermalTarget = 1
	ThermalTargetMemory      ThermalTarget = 2
	ThermalTargetPowerSupply ThermalTarget = 4
	ThermalTargetBoard       ThermalTarget = 8
	ThermalTargetVCDBoard    ThermalTarget = 9
	ThermalTargetVCDInlet    ThermalTarget = 10
	ThermalTargetVCDOutlet   ThermalTarget = 11
	ThermalTargetAll         ThermalTarget = 15
	ThermalTargetUnknown     ThermalTarget = -1
)

// ThermalController mirrors NV_THERMAL_CONTROLLER.
type ThermalController int32

const (
	ThermalControllerNone        ThermalController = 0
	ThermalControllerGPUInternal ThermalController = 1
	ThermalControllerADM1032     ThermalController = 2
	ThermalControllerMAX6649     ThermalController = 3
	ThermalControllerMAX1617     ThermalController = 4
	ThermalControllerLM99        ThermalController = 5
	ThermalControllerLM89        ThermalController = 6
	ThermalControllerLM64        ThermalController = 7
	ThermalControllerADT7473     ThermalController = 8
	ThermalControllerSBMAX6649   ThermalController = 9
	ThermalControllerVBIOSEvt    ThermalController = 10
	ThermalControllerOS          ThermalController = 11
	ThermalControllerUnknown     ThermalController = -1
)

// MaxThermalSensorsPerGPU is NVAPI_MAX_THERMAL_SENSORS_PER_GPU.
const MaxThermalSensorsPerGPU = 3

// ThermalSensorReading is one entry of NV_GPU_THERMAL_SETTINGS.sensor.
type ThermalSensorReading struct {
	Controller     ThermalController
	DefaultMinTemp int32
	DefaultMaxTemp int32
	CurrentTemp    int32
	Target         ThermalTarget
}

// sensorTarget maps a vendor target to the public vocabulary. Targets
// without a public counterpart (including the VCD board/inlet/outlet
// sensors) become Unknown.
func sensorTarget(t ThermalTarget) domain.ThermalSensor {
	switch t {
	case ThermalTargetGPU:
		return domain.ThermalSensorGPU
	case ThermalTargetMemory:
		return domain.ThermalSensorMemory
	case ThermalTargetPowerSupply:
		return domain.ThermalSensorPowerSupply
	case ThermalTargetBoard:
		return domain.ThermalSensorAmbient
	default:
		return domain.ThermalSensorUnknown
	}
}
