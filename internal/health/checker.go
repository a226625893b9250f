// Package health runs periodic checks against the GPU driver and the
// discovered devices.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/infra/metrics"
)

// Check defines a single health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

// NewChecker creates a health checker with the driver and devices checks.
func NewChecker(lister domain.DeviceLister, interval time.Duration, log zerolog.Logger) *Checker {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Checker{
		interval: interval,
		log:      log,
		checks: []Check{
			{
				Name: "driver",
				CheckFn: func(ctx context.Context) error {
					_, err := lister.Devices(ctx)
					return err
				},
			},
			{
				Name: "devices",
				CheckFn: func(ctx context.Context) error {
					return checkDevices(ctx, lister)
				},
			},
		},
	}
}

// SetTimeout bounds each check. Zero leaves checks bounded only by the
// context passed to RunOnce.
func (c *Checker) SetTimeout(d time.Duration) { c.timeout = d }

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check and records the results.
func (c *Checker) RunOnce(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := c.runCheck(ctx, check); err != nil {
			s.Error = err.Error()
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(0)
			c.log.Warn().Str("check", check.Name).Err(err).Msg("health check failed")
		} else {
			s.Healthy = true
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(1)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

func (c *Checker) runCheck(ctx context.Context, check Check) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return check.CheckFn(ctx)
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if checks have run and all of them passed.
func (c *Checker) IsHealthy() bool {
	_, healthy := c.Report()
	return healthy
}

// Report returns a copy of the latest results and whether they are all
// healthy, read under one lock. Nothing is healthy before the first run.
func (c *Checker) Report() ([]Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	healthy := len(result) > 0
	for _, s := range result {
		if !s.Healthy {
			healthy = false
		}
	}
	return result, healthy
}

// ─── Check Implementations ──────────────────────────────────────────────────

// checkDevices asks every device for its name. A machine with no GPUs is
// healthy; a discovery failure is reported by the driver check instead.
func checkDevices(ctx context.Context, lister domain.DeviceLister) error {
	devices, err := lister.Devices(ctx)
	if err != nil {
		return nil
	}
	var errs []error
	for i, dev := range devices {
		if _, err := dev.Name(); err != nil {
			errs = append(errs, fmt.Errorf("device %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
