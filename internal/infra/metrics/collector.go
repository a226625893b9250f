package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tutu-network/gpuinfo/internal/domain"
)

var (
	memoryDesc = prometheus.NewDesc(
		"gpuinfo_memory_kilobytes",
		"GPU memory by pool, in kilobytes.",
		[]string{"device", "name", "pool"}, nil,
	)
	thermalDesc = prometheus.NewDesc(
		"gpuinfo_thermal_celsius",
		"Current temperature per sensor, in degrees Celsius.",
		[]string{"device", "name", "target", "sensor"}, nil,
	)
	discoveryUpDesc = prometheus.NewDesc(
		"gpuinfo_discovery_up",
		"1 if device discovery succeeded during this scrape.",
		nil, nil,
	)
	upDesc = prometheus.NewDesc(
		"gpuinfo_device_up",
		"1 if every query on the device succeeded during this scrape.",
		[]string{"device", "name"}, nil,
	)
)

// DeviceCollector exports memory and thermal readings. Nothing is cached;
// each scrape queries every device.
type DeviceCollector struct {
	lister  domain.DeviceLister
	timeout time.Duration
}

var _ prometheus.Collector = (*DeviceCollector)(nil)

// NewDeviceCollector creates a collector over lister. timeout bounds how
// long a scrape waits for discovery.
func NewDeviceCollector(lister domain.DeviceLister, timeout time.Duration) *DeviceCollector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DeviceCollector{lister: lister, timeout: timeout}
}

func (c *DeviceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- discoveryUpDesc
	ch <- memoryDesc
	ch <- thermalDesc
	ch <- upDesc
}

func (c *DeviceCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	// A failed discovery is reported as a sample, not a scrape error,
	// so the process metrics on the same endpoint stay readable.
	devices, err := c.lister.Devices(ctx)
	if err != nil {
		DiscoveryFailures.Inc()
		ch <- prometheus.MustNewConstMetric(discoveryUpDesc, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(discoveryUpDesc, prometheus.GaugeValue, 1)

	for i, dev := range devices {
		index := strconv.Itoa(i)
		up := 1.0

		name, err := dev.Name()
		if err != nil {
			ObserveQuery(err)
			up = 0
		}

		if mem, err := dev.Memory(); err != nil {
			ObserveQuery(err)
			up = 0
		} else {
			pools := []struct {
				pool  string
				value uint32
			}{
				{"dedicated", mem.Dedicated},
				{"available_dedicated", mem.AvailableDedicated},
				{"system", mem.System},
				{"shared_system", mem.SharedSystem},
			}
			for _, p := range pools {
				ch <- prometheus.MustNewConstMetric(memoryDesc, prometheus.GaugeValue,
					float64(p.value), index, name, p.pool)
			}
		}

		if sensors, err := dev.ThermalSensors(); err != nil {
			ObserveQuery(err)
			up = 0
		} else {
			for j, s := range sensors {
				ch <- prometheus.MustNewConstMetric(thermalDesc, prometheus.GaugeValue,
					float64(s.Current), index, name, s.Target.String(), strconv.Itoa(j))
			}
		}

		ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, up, index, name)
	}
}
