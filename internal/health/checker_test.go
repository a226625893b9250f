package health

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/infra/nvapi"
)

type listerFunc func(context.Context) ([]domain.Device, error)

func (f listerFunc) Devices(ctx context.Context) ([]domain.Device, error) { return f(ctx) }

func mockLister(t *testing.T, drv nvapi.Driver) domain.DeviceLister {
	t.Helper()
	devices, err := nvapi.Discover(drv)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	return listerFunc(func(context.Context) ([]domain.Device, error) { return devices, nil })
}

// brokenNameDriver serves the mock GPUs but fails every name query.
type brokenNameDriver struct{ *nvapi.MockDriver }

func (brokenNameDriver) GetFullName(nvapi.PhysicalGPUHandle) (string, nvapi.Status) {
	return "", nvapi.StatusHandleInvalidated
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c := NewChecker(mockLister(t, nvapi.NewMockDriver()), 0, zerolog.Nop())
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if len(c.checks) != 2 {
		t.Errorf("checks = %d, want 2", len(c.checks))
	}
	if c.interval != 60*time.Second {
		t.Errorf("interval = %v, want 60s", c.interval)
	}
}

func TestChecker_RunOnceHealthy(t *testing.T) {
	c := NewChecker(mockLister(t, nvapi.NewMockDriver()), time.Second, zerolog.Nop())
	c.RunOnce(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("Statuses() = %d, want 2", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
		if s.CheckedAt.IsZero() {
			t.Errorf("check %q has zero CheckedAt", s.Name)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() = false, want true")
	}
}

func TestChecker_NoDevicesIsHealthy(t *testing.T) {
	c := NewChecker(mockLister(t, nvapi.NewMockDriverWith(nil)), time.Second, zerolog.Nop())
	c.RunOnce(context.Background())
	if !c.IsHealthy() {
		t.Errorf("IsHealthy() = false with no GPUs, statuses: %+v", c.Statuses())
	}
}

func TestChecker_DiscoveryFailure(t *testing.T) {
	lister := listerFunc(func(context.Context) ([]domain.Device, error) {
		return nil, &domain.DiscoveryError{Status: nvapi.StatusLibraryNotFound}
	})
	c := NewChecker(lister, time.Second, zerolog.Nop())
	c.RunOnce(context.Background())

	if c.IsHealthy() {
		t.Error("IsHealthy() = true, want false")
	}
	for _, s := range c.Statuses() {
		switch s.Name {
		case "driver":
			if s.Healthy || !strings.Contains(s.Error, "NVAPI_LIBRARY_NOT_FOUND") {
				t.Errorf("driver status = %+v, want unhealthy with library error", s)
			}
		case "devices":
			if !s.Healthy {
				t.Errorf("devices status = %+v, want healthy when discovery fails", s)
			}
		}
	}
}

func TestChecker_DeviceQueryFailure(t *testing.T) {
	lister := mockLister(t, brokenNameDriver{nvapi.NewMockDriver()})
	c := NewChecker(lister, time.Second, zerolog.Nop())
	c.RunOnce(context.Background())

	var devices Status
	for _, s := range c.Statuses() {
		if s.Name == "devices" {
			devices = s
		}
	}
	if devices.Healthy {
		t.Fatal("devices check should fail when names cannot be read")
	}
	if !strings.Contains(devices.Error, "device 0") || !strings.Contains(devices.Error, "device 1") {
		t.Errorf("devices error = %q, want both devices named", devices.Error)
	}
}

func TestChecker_StatusesIsCopy(t *testing.T) {
	c := NewChecker(mockLister(t, nvapi.NewMockDriver()), time.Second, zerolog.Nop())
	c.RunOnce(context.Background())

	s := c.Statuses()
	s[0].Healthy = false
	if !c.Statuses()[0].Healthy {
		t.Error("Statuses() should return a copy")
	}
}

func TestChecker_IsHealthyBeforeRun(t *testing.T) {
	c := NewChecker(listerFunc(func(context.Context) ([]domain.Device, error) {
		return nil, errors.New("never called")
	}), time.Second, zerolog.Nop())
	if c.IsHealthy() {
		t.Error("IsHealthy() with no results should be false")
	}
	statuses, healthy := c.Report()
	if healthy || len(statuses) != 0 {
		t.Errorf("Report() before run = %v/%v, want empty and unhealthy", statuses, healthy)
	}
}

func TestChecker_Report(t *testing.T) {
	c := NewChecker(mockLister(t, nvapi.NewMockDriver()), time.Second, zerolog.Nop())
	c.RunOnce(context.Background())

	statuses, healthy := c.Report()
	if !healthy || len(statuses) != 2 {
		t.Errorf("Report() = %d statuses, healthy=%v, want 2 and true", len(statuses), healthy)
	}
}

func TestChecker_TimeoutBoundsHungDriver(t *testing.T) {
	hung := listerFunc(func(ctx context.Context) ([]domain.Device, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c := NewChecker(hung, time.Second, zerolog.Nop())
	c.SetTimeout(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.RunOnce(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnce() did not return with a hung driver")
	}

	if c.IsHealthy() {
		t.Error("IsHealthy() = true after driver timed out")
	}
	for _, s := range c.Statuses() {
		if s.Name == "driver" && !strings.Contains(s.Error, context.DeadlineExceeded.Error()) {
			t.Errorf("driver status error = %q, want deadline exceeded", s.Error)
		}
	}
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	c := NewChecker(mockLister(t, nvapi.NewMockDriver()), 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if len(c.Statuses()) != 2 {
		t.Errorf("Statuses() = %d, want 2", len(c.Statuses()))
	}
}
