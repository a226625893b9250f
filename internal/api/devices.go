package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/infra/metrics"
)

// ─── Response Types ─────────────────────────────────────────────────────────

// DeviceResponse is one live device report.
type DeviceResponse struct {
	Index      int    `json:"index"`
	SnapshotID string `json:"snapshot_id"`
	domain.DeviceReport
}

// MemoryResponse is a single live memory query.
type MemoryResponse struct {
	Index      int               `json:"index"`
	SnapshotID string            `json:"snapshot_id"`
	Memory     domain.MemoryInfo `json:"memory"`
}

// ThermalResponse is a single live thermal query.
type ThermalResponse struct {
	Index      int                        `json:"index"`
	SnapshotID string                     `json:"snapshot_id"`
	Sensors    []domain.ThermalSensorInfo `json:"thermal_sensors"`
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.discoveryContext(r)
	defer cancel()

	devices, err := s.lister.Devices(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]DeviceResponse, 0, len(devices))
	for i, dev := range devices {
		out = append(out, s.report(i, dev))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	index, dev, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.report(index, dev))
}

func (s *Server) handleDeviceMemory(w http.ResponseWriter, r *http.Request) {
	index, dev, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}
	mem, err := dev.Memory()
	if err != nil {
		metrics.ObserveQuery(err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MemoryResponse{
		Index:      index,
		SnapshotID: uuid.NewString(),
		Memory:     mem,
	})
}

func (s *Server) handleDeviceThermal(w http.ResponseWriter, r *http.Request) {
	index, dev, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}
	sensors, err := dev.ThermalSensors()
	if err != nil {
		metrics.ObserveQuery(err)
		writeDomainError(w, err)
		return
	}
	if sensors == nil {
		sensors = []domain.ThermalSensorInfo{}
	}
	writeJSON(w, http.StatusOK, ThermalResponse{
		Index:      index,
		SnapshotID: uuid.NewString(),
		Sensors:    sensors,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeError(w, http.StatusNotFound, "health checks not enabled")
		return
	}
	statuses, healthy := s.health.Report()
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": healthy,
		"checks":  nonNil(statuses),
	})
}

func (s *Server) handleThermalLevels(w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		writeError(w, http.StatusNotFound, "thermal monitor not enabled")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.monitor.Levels()))
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// deviceFromPath resolves {index} and writes the error response itself
// when it cannot.
func (s *Server) deviceFromPath(w http.ResponseWriter, r *http.Request) (int, domain.Device, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid device index %q", raw))
		return 0, nil, false
	}

	ctx, cancel := s.discoveryContext(r)
	defer cancel()

	dev, err := domain.DeviceAt(ctx, s.lister, index)
	if err != nil {
		writeDomainError(w, err)
		return 0, nil, false
	}
	return index, dev, true
}

// report snapshots dev and counts its query failures.
func (s *Server) report(index int, dev domain.Device) DeviceResponse {
	rep := domain.Snapshot(dev)
	if !rep.OK() {
		for op := range rep.Errors {
			metrics.ObserveQueryOp(op)
		}
		s.log.Debug().Int("device", index).Interface("errors", rep.Errors).Msg("partial device report")
	}
	return DeviceResponse{
		Index:        index,
		SnapshotID:   uuid.NewString(),
		DeviceReport: rep,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
