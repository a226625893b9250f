package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tutu-network/gpuinfo/internal/api"
	"github.com/tutu-network/gpuinfo/internal/health"
	"github.com/tutu-network/gpuinfo/internal/infra/metrics"
	"github.com/tutu-network/gpuinfo/internal/infra/registry"
	"github.com/tutu-network/gpuinfo/internal/infra/resource"
	"github.com/tutu-network/gpuinfo/internal/logging"
)

// Daemon is the gpuinfo runtime. It wires together all services.
type Daemon struct {
	Config    Config
	Registry  *registry.Registry
	Server    *api.Server
	Monitor   *resource.Monitor
	Health    *health.Checker
	Collector *metrics.DeviceCollector

	log    zerolog.Logger
	cancel context.CancelFunc
}

// New creates and initializes a Daemon from the config file.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	drv, err := registry.OpenDriver(cfg.Driver.Name, cfg.Driver.LibraryPath)
	if err != nil {
		return nil, fmt.Errorf("open driver: %w", err)
	}

	reg := registry.ForDriver(drv, logging.WithComponent("registry"))
	registry.SetDefault(reg)

	discoveryTimeout := cfg.DiscoveryTimeout()

	d := &Daemon{
		Config:   cfg,
		Registry: reg,
		log:      logging.WithComponent("daemon"),
	}

	d.Monitor = resource.NewMonitor(reg, resource.MonitorConfig{
		Throttle:     cfg.Thermal.Throttle,
		Critical:     cfg.Thermal.Critical,
		TickInterval: cfg.ThermalInterval(),
		Timeout:      discoveryTimeout,
	}, logging.WithComponent("thermal"))

	d.Health = health.NewChecker(reg, 60*time.Second, logging.WithComponent("health"))
	d.Health.SetTimeout(discoveryTimeout)

	srv := api.NewServer(reg, logging.WithComponent("api"))
	srv.SetDiscoveryTimeout(discoveryTimeout)
	srv.SetHealth(d.Health)
	srv.SetMonitor(d.Monitor)

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		d.Collector = metrics.NewDeviceCollector(reg, discoveryTimeout)
		if err := prometheus.Register(d.Collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("register device collector: %w", err)
			}
			d.Collector = nil
		}
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Serve listens on the configured address and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(d.Config.API.Host, fmt.Sprint(d.Config.API.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return d.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx ends or the process is signalled.
func (d *Daemon) ServeListener(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Background services
	go d.Health.Run(ctx)
	go d.Monitor.Run(ctx)

	httpServer := &http.Server{
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			d.log.Info().Msg("signal received, shutting down")
			cancel()
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	addr := ln.Addr().String()
	d.log.Info().
		Str("addr", addr).
		Str("driver", d.Config.Driver.Name).
		Bool("metrics", d.Config.Telemetry.Prometheus).
		Msg("gpuinfo serving")

	if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Collector != nil {
		prometheus.Unregister(d.Collector)
		d.Collector = nil
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
