// Package resource watches GPU temperatures and classifies each device as
// normal, hot or critical. It only reads; nothing is throttled and no
// history is kept.
package resource

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/infra/metrics"
)

// ThermalLevel classifies a device's hottest GPU sensor.
type ThermalLevel int

const (
	ThermalUnknown  ThermalLevel = -1 // Sensors could not be read
	ThermalNormal   ThermalLevel = 0
	ThermalHot      ThermalLevel = 1 // At or above the throttle threshold
	ThermalCritical ThermalLevel = 2 // At or above the critical threshold
)

// String returns the level name.
func (l ThermalLevel) String() string {
	switch l {
	case ThermalNormal:
		return "normal"
	case ThermalHot:
		return "hot"
	case ThermalCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText renders the level name in JSON and TOML.
func (l ThermalLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// MonitorConfig controls monitor behavior.
type MonitorConfig struct {
	Throttle     int32 // GPU temp (C) counted as hot (default: 83)
	Critical     int32 // GPU temp (C) counted as critical (default: 95)
	TickInterval time.Duration
	Timeout      time.Duration // Bound on one sample (0 = caller's context only)
}

// DefaultMonitorConfig returns the stock thresholds.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Throttle:     83,
		Critical:     95,
		TickInterval: 5 * time.Second,
	}
}

// Reading is the monitor's latest view of one device.
type Reading struct {
	Index   int          `json:"index"`
	Name    string       `json:"name"`
	Hottest int32        `json:"hottest_c"`
	Level   ThermalLevel `json:"level"`
}

// Monitor samples every device on an interval.
type Monitor struct {
	mu       sync.RWMutex
	lister   domain.DeviceLister
	config   MonitorConfig
	log      zerolog.Logger
	readings []Reading
}

// NewMonitor creates a thermal monitor over lister.
func NewMonitor(lister domain.DeviceLister, cfg MonitorConfig, log zerolog.Logger) *Monitor {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultMonitorConfig().TickInterval
	}
	return &Monitor{lister: lister, config: cfg, log: log}
}

// Classify maps a temperature to a level using the monitor thresholds.
func (m *Monitor) Classify(celsius int32) ThermalLevel {
	switch {
	case celsius >= m.config.Critical:
		return ThermalCritical
	case celsius >= m.config.Throttle:
		return ThermalHot
	default:
		return ThermalNormal
	}
}

// Levels returns the latest readings (thread-safe).
func (m *Monitor) Levels() []Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Reading, len(m.readings))
	copy(out, m.readings)
	return out
}

// Run starts the sampling loop. Call in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	m.Sample(ctx)

	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sample(ctx)
		}
	}
}

// Sample reads every device once and updates the levels.
func (m *Monitor) Sample(ctx context.Context) {
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}
	devices, err := m.lister.Devices(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("thermal sample skipped")
		return
	}

	next := make([]Reading, 0, len(devices))
	for i, dev := range devices {
		r := Reading{Index: i, Level: ThermalUnknown}

		name, err := dev.Name()
		if err != nil {
			metrics.ObserveQuery(err)
		}
		r.Name = name

		sensors, err := dev.ThermalSensors()
		if err != nil {
			metrics.ObserveQuery(err)
		} else if hottest, ok := domain.HottestOf(sensors, domain.ThermalSensorGPU); ok {
			r.Hottest = hottest
			r.Level = m.Classify(hottest)
		} else if hottest, ok := domain.HottestOf(sensors, domain.ThermalSensorUnknown); ok {
			// No GPU-target sensor; fall back to whatever the board reports.
			r.Hottest = hottest
			r.Level = m.Classify(hottest)
		}
		next = append(next, r)
	}

	m.mu.Lock()
	prev := m.readings
	m.readings = next
	m.mu.Unlock()

	for _, r := range next {
		metrics.ThermalLevel.WithLabelValues(strconv.Itoa(r.Index)).Set(float64(r.Level))
		if r.Index < len(prev) && prev[r.Index].Level == r.Level {
			continue
		}
		lvl := zerolog.InfoLevel
		if r.Level >= ThermalHot {
			lvl = zerolog.WarnLevel
		}
		m.log.WithLevel(lvl).Int("device", r.Index).
			Str("name", r.Name).
			Int32("celsius", r.Hottest).
			Str("level", r.Level.String()).
			Msg("thermal level changed")
	}
}
