package domain

// DeviceReport gathers one live reading of every device query. A failed
// query leaves its field empty and records the failure in Errors, so a
// broken thermal read does not hide a good memory read.
type DeviceReport struct {
	Name    string              `json:"name,omitempty"`
	Memory  *MemoryInfo         `json:"memory,omitempty"`
	Sensors []ThermalSensorInfo `json:"thermal_sensors"`
	Errors  map[string]string   `json:"errors,omitempty"`
}

// OK returns true if every query in the report succeeded.
func (r DeviceReport) OK() bool {
	return len(r.Errors) == 0
}

// Snapshot queries name, memory and thermal sensors once each.
func Snapshot(d Device) DeviceReport {
	var r DeviceReport
	fail := func(op string, err error) {
		if r.Errors == nil {
			r.Errors = make(map[string]string)
		}
		r.Errors[op] = err.Error()
	}

	if name, err := d.Name(); err != nil {
		fail("name", err)
	} else {
		r.Name = name
	}

	if mem, err := d.Memory(); err != nil {
		fail("memory", err)
	} else {
		r.Memory = &mem
	}

	if sensors, err := d.ThermalSensors(); err != nil {
		fail("thermal_sensors", err)
	} else {
		r.Sensors = sensors
	}
	if r.Sensors == nil {
		r.Sensors = []ThermalSensorInfo{}
	}

	return r
}
