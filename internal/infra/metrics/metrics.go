// Package metrics provides Prometheus metrics for gpuinfo: process-level
// counters and gauges registered with the default registry, and a
// collector that reads devices live on every scrape.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tutu-network/gpuinfo/internal/domain"
)

// ─── Discovery ──────────────────────────────────────────────────────────────

// DiscoveryDuration tracks how long device enumeration takes.
var DiscoveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "gpuinfo",
	Name:      "discovery_duration_seconds",
	Help:      "Time spent enumerating physical GPUs.",
	Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
})

// DiscoveredDevices is the size of the cached device list.
var DiscoveredDevices = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "gpuinfo",
	Name:      "discovered_devices",
	Help:      "Number of GPUs found by discovery.",
})

// DiscoveryFailures counts scrapes and samples that could not enumerate
// devices.
var DiscoveryFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "gpuinfo",
	Name:      "discovery_failures_total",
	Help:      "Total failed device discovery attempts seen by the collector.",
})

// ─── Queries ────────────────────────────────────────────────────────────────

// QueryFailures counts per-device query failures by operation.
var QueryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gpuinfo",
	Name:      "query_failures_total",
	Help:      "Total failed per-device driver queries.",
}, []string{"op"})

// ObserveQuery counts err against QueryFailures when it is a query
// failure. Other errors are ignored.
func ObserveQuery(err error) {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		ObserveQueryOp(qe.Op)
	}
}

// ObserveQueryOp counts one failed query of op.
func ObserveQueryOp(op string) {
	QueryFailures.WithLabelValues(op).Inc()
}

// ─── Thermal ────────────────────────────────────────────────────────────────

// ThermalLevel tracks the monitor's classification per device
// (0=normal, 1=hot, 2=critical, -1=unreadable).
var ThermalLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "gpuinfo",
	Name:      "thermal_level",
	Help:      "Thermal classification per device (0=normal, 1=hot, 2=critical, -1=unreadable).",
}, []string{"device"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "gpuinfo",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
