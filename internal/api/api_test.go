package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/health"
	"github.com/tutu-network/gpuinfo/internal/infra/metrics"
	"github.com/tutu-network/gpuinfo/internal/infra/nvapi"
	"github.com/tutu-network/gpuinfo/internal/infra/registry"
	"github.com/tutu-network/gpuinfo/internal/infra/resource"
)

func newTestServer(t *testing.T, drv nvapi.Driver) (*Server, *httptest.Server) {
	t.Helper()
	reg := registry.ForDriver(drv, zerolog.Nop())
	srv := NewServer(reg, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// failingThermalDriver serves the mock GPUs but rejects thermal queries.
type failingThermalDriver struct{ *nvapi.MockDriver }

func (failingThermalDriver) GetThermalSettings(nvapi.PhysicalGPUHandle, nvapi.ThermalTarget) ([]nvapi.ThermalSensorReading, nvapi.Status) {
	return nil, nvapi.StatusNotSupported
}

// unavailableDriver fails enumeration outright.
type unavailableDriver struct{ *nvapi.MockDriver }

func (unavailableDriver) EnumPhysicalGPUs() ([]nvapi.PhysicalGPUHandle, nvapi.Status) {
	return nil, nvapi.StatusLibraryNotFound
}

// ─── Health Endpoint ────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nvapi.NewMockDriver())

	resp, body := get(t, ts, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, nvapi.NewMockDriver())

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/devices", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// ─── Device Endpoints ───────────────────────────────────────────────────────

func TestListDevices(t *testing.T) {
	_, ts := newTestServer(t, nvapi.NewMockDriver())

	resp, body := get(t, ts, "/api/devices")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var devices []DeviceResponse
	require.NoError(t, json.Unmarshal(body, &devices))
	require.Len(t, devices, 2)

	assert.Equal(t, 0, devices[0].Index)
	assert.Equal(t, "NVIDIA GeForce RTX 4090", devices[0].Name)
	require.NotNil(t, devices[0].Memory)
	assert.Equal(t, uint32(24*1024*1024), devices[0].Memory.Dedicated)
	require.Len(t, devices[0].Sensors, 2)
	assert.Equal(t, domain.ThermalSensorGPU, devices[0].Sensors[0].Target)
	assert.Equal(t, domain.ThermalSensorMemory, devices[0].Sensors[1].Target)
	assert.Empty(t, devices[0].Errors)

	assert.Equal(t, 1, devices[1].Index)
	assert.Equal(t, "NVIDIA RTX A2000", devices[1].Name)
	assert.NotEqual(t, devices[0].SnapshotID, devices[1].SnapshotID)
	assert.Len(t, devices[0].SnapshotID, 36)
}

func TestListDevices_NoGPUs(t *testing.T) {
	_, ts := newTestServer(t, nvapi.NewMockDriverWith(nil))

	resp, body := get(t, ts, "/api/devices")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestListDevices_DiscoveryUnavailable(t *testing.T) {
	_, ts := newTestServer(t, unavailableDriver{nvapi.NewMockDriver()})

	resp, body := get(t, ts, "/api/devices")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "NVAPI_LIBRARY_NOT_FOUND")
}

func TestListDevices_PartialReport(t *testing.T) {
	_, ts := newTestServer(t, failingThermalDriver{nvapi.NewMockDriver()})

	resp, body := get(t, ts, "/api/devices")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var devices []DeviceResponse
	require.NoError(t, json.Unmarshal(body, &devices))
	require.Len(t, devices, 2)
	assert.Equal(t, "NVIDIA GeForce RTX 4090", devices[0].Name)
	assert.NotNil(t, devices[0].Memory)
	assert.Empty(t, devices[0].Sensors)
	assert.Contains(t, devices[0].Errors["thermal_sensors"], "NVAPI_NOT_SUPPORTED")
}

func TestQueryFailuresCountedOncePerOp(t *testing.T) {
	_, ts := newTestServer(t, failingThermalDriver{nvapi.NewMockDriver()})
	counter := metrics.QueryFailures.WithLabelValues("thermal_sensors")

	before := testutil.ToFloat64(counter)
	resp, _ := get(t, ts, "/api/devices/0")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(counter)-before, "partial report")

	before = testutil.ToFloat64(counter)
	resp, _ = get(t, ts, "/api/devices/0/thermal")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(counter)-before, "direct query")
}

func TestGetDevice(t *testing.T) {
	_, ts := newTestServer(t, nvapi.NewMockDriver())

	resp, body := get(t, ts, "/api/devices/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dev DeviceResponse
	require.NoError(t, json.Unmarshal(body, &dev))
	assert.Equal(t, 1, dev.Index)
	assert.Equal(t, "NVIDIA RTX A2000", dev.Name)
}

func TestGetDevice_Errors(t *testing.T) {
	_, ts := newTestServer(t, nvapi.NewMockDriver())

	tests := []struct {
		path string
		want int
	}{
		{"/api/devices/2", http.StatusNotFound},
		{"/api/devices/-1", http.StatusNotFound},
		{"/api/devices/abc", http.StatusBadRequest},
		{"/api/devices/9/memory", http.StatusNotFound},
		{"/api/devices/x/thermal", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, body := get(t, ts, tt.path)
		assert.Equal(t, tt.want, resp.StatusCode, "GET %s: %s", tt.path, body)
		assert.Contains(t, string(body), `"error"`)
	}
}

func TestDeviceMemory(t *testing.T) {
	_, ts := newTestServer(t, nvapi.NewMockDriver())

	resp, body := get(t, ts, "/api/devices/0/memory")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var mem MemoryResponse
	require.NoError(t, json.Unmarshal(body, &mem))
	assert.Equal(t, uint32(24*1024*1024), mem.Memory.Dedicated)
	assert.Equal(t, uint32(22*1024*1024), mem.Memory.AvailableDedicated)
	assert.Equal(t, uint32(16*1024*1024), mem.Memory.SharedSystem)
	assert.NotEmpty(t, mem.SnapshotID)
}

func TestDeviceThermal(t *testing.T) {
	_, ts := newTestServer(t, nvapi.NewMockDriver())

	resp, body := get(t, ts, "/api/devices/1/thermal")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var th ThermalResponse
	require.NoError(t, json.Unmarshal(body, &th))
	require.Len(t, th.Sensors, 2)
	assert.Equal(t, domain.ThermalSensorGPU, th.Sensors[0].Target)
	assert.Equal(t, domain.ThermalSensorAmbient, th.Sensors[1].Target)
	assert.GreaterOrEqual(t, th.Sensors[0].Current, int32(38))
}

func TestDeviceThermal_QueryFailed(t *testing.T) {
	_, ts := newTestServer(t, failingThermalDriver{nvapi.NewMockDriver()})

	resp, body := get(t, ts, "/api/devices/0/thermal")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "thermal_sensors")

	// The device stays usable for other queries.
	resp, _ = get(t, ts, "/api/devices/0/memory")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDiscoveryTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	reg := registry.New(func() ([]domain.Device, error) {
		<-release
		return nil, nil
	}, zerolog.Nop())

	srv := NewServer(reg, zerolog.Nop())
	srv.SetDiscoveryTimeout(20 * time.Millisecond)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, _ := get(t, ts, "/api/devices")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

// ─── Health and Thermal Endpoints ───────────────────────────────────────────

func TestAPIHealth(t *testing.T) {
	srv, ts := newTestServer(t, nvapi.NewMockDriver())

	resp, _ := get(t, ts, "/api/health")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	reg := registry.ForDriver(nvapi.NewMockDriver(), zerolog.Nop())
	checker := health.NewChecker(reg, time.Minute, zerolog.Nop())
	checker.RunOnce(context.Background())
	srv.SetHealth(checker)

	resp, body := get(t, ts, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `"healthy":true`), string(body))
	assert.Contains(t, string(body), `"driver"`)
	assert.Contains(t, string(body), `"devices"`)
}

func TestAPIHealth_BeforeFirstRun(t *testing.T) {
	srv, ts := newTestServer(t, nvapi.NewMockDriver())
	reg := registry.ForDriver(nvapi.NewMockDriver(), zerolog.Nop())
	srv.SetHealth(health.NewChecker(reg, time.Minute, zerolog.Nop()))

	resp, body := get(t, ts, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var out struct {
		Healthy bool            `json:"healthy"`
		Checks  []health.Status `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Healthy)
	assert.Empty(t, out.Checks)
}

func TestAPIThermalLevels(t *testing.T) {
	srv, ts := newTestServer(t, nvapi.NewMockDriver())

	reg := registry.ForDriver(nvapi.NewMockDriver(), zerolog.Nop())
	mon := resource.NewMonitor(reg, resource.DefaultMonitorConfig(), zerolog.Nop())
	mon.Sample(context.Background())
	srv.SetMonitor(mon)

	resp, body := get(t, ts, "/api/thermal")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var levels []map[string]any
	require.NoError(t, json.Unmarshal(body, &levels))
	require.Len(t, levels, 2)
	assert.Equal(t, "normal", levels[0]["level"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, ts := newTestServer(t, nvapi.NewMockDriver())

	resp, _ := get(t, ts, "/metrics")
	assert.NotEqual(t, http.StatusOK, resp.StatusCode, "metrics should be off by default")

	srv.EnableMetrics()
	ts2 := httptest.NewServer(srv.Handler())
	defer ts2.Close()

	resp, body := get(t, ts2, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}
