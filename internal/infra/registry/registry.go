// Package registry owns the process's device list. Discovery runs once,
// on first demand, no matter how many goroutines ask at the same time;
// every caller gets the same list for the rest of the process.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/infra/metrics"
	"github.com/tutu-network/gpuinfo/internal/infra/nvapi"
)

// State is the discovery lifecycle.
type State int32

const (
	StateUninitialized State = iota // Nothing discovered yet, or last attempt failed
	StateInitializing               // A discovery call is in flight
	StateReady                      // Devices cached for the process lifetime
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// DiscoverFunc enumerates devices. It is called at most once per
// successful discovery; a failed call leaves the registry retryable.
type DiscoverFunc func() ([]domain.Device, error)

// Registry implements domain.DeviceLister with a lazily filled,
// immutable device list.
type Registry struct {
	discover DiscoverFunc
	log      zerolog.Logger

	group   singleflight.Group
	state   atomic.Int32
	devices atomic.Pointer[[]domain.Device]
}

var _ domain.DeviceLister = (*Registry)(nil)

// New creates a registry that discovers with fn on first use.
func New(fn DiscoverFunc, log zerolog.Logger) *Registry {
	return &Registry{discover: fn, log: log}
}

// ForDriver creates a registry that discovers through an NVIDIA driver.
func ForDriver(drv nvapi.Driver, log zerolog.Logger) *Registry {
	return New(func() ([]domain.Device, error) {
		return nvapi.Discover(drv)
	}, log)
}

// State returns where discovery stands.
func (r *Registry) State() State {
	return State(r.state.Load())
}

// Devices returns the discovered devices, running discovery if it has
// not succeeded yet. Callers that arrive while discovery is in flight
// wait for it. If ctx ends first, Devices returns ctx.Err() and the
// in-flight discovery still completes for later callers.
//
// The returned slice is a fresh copy; the devices in it are shared and
// stay valid for the process lifetime.
func (r *Registry) Devices(ctx context.Context) ([]domain.Device, error) {
	if d := r.devices.Load(); d != nil {
		return slices.Clone(*d), nil
	}

	ch := r.group.DoChan("discover", r.run)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]domain.Device)), nil
	}
}

// Device returns the device at index in enumeration order.
func (r *Registry) Device(ctx context.Context, index int) (domain.Device, error) {
	return domain.DeviceAt(ctx, r, index)
}

func (r *Registry) run() (any, error) {
	if d := r.devices.Load(); d != nil {
		return *d, nil
	}

	r.state.Store(int32(StateInitializing))
	r.log.Debug().Msg("discovering devices")

	start := time.Now()
	devices, err := r.safeDiscover()
	metrics.DiscoveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		r.state.Store(int32(StateUninitialized))
		r.log.Error().Err(err).Msg("device discovery failed")
		return nil, err
	}
	if devices == nil {
		devices = []domain.Device{}
	}

	r.devices.Store(&devices)
	r.state.Store(int32(StateReady))
	metrics.DiscoveredDevices.Set(float64(len(devices)))
	r.log.Info().Int("devices", len(devices)).Dur("took", time.Since(start)).Msg("device discovery complete")
	return devices, nil
}

// safeDiscover turns a driver panic into a discovery failure.
func (r *Registry) safeDiscover() (devices []domain.Device, err error) {
	defer func() {
		if p := recover(); p != nil {
			devices = nil
			err = fmt.Errorf("%w: driver panic: %v", domain.ErrDiscoveryUnavailable, p)
		}
	}()
	return r.discover()
}
