package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutu-network/gpuinfo/internal/infra/resource"
	"github.com/tutu-network/gpuinfo/internal/logging"
)

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Sampling interval (overrides thermal.interval)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Stop after this many samples (0 = until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

var (
	watchInterval time.Duration
	watchCount    int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print thermal levels on an interval until interrupted",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}

	interval := cfg.ThermalInterval()
	if watchInterval > 0 {
		interval = watchInterval
	}

	// Fail fast on a broken driver instead of printing empty samples.
	dctx, cancel := discoveryContext(cmd, cfg)
	_, err = reg.Devices(dctx)
	cancel()
	if err != nil {
		return err
	}

	mon := resource.NewMonitor(reg, resource.MonitorConfig{
		Throttle:     cfg.Thermal.Throttle,
		Critical:     cfg.Thermal.Critical,
		TickInterval: interval,
	}, logging.WithComponent("thermal"))

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	out := cmd.OutOrStdout()
	for n := 1; ; n++ {
		mon.Sample(ctx)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "─── %s ───\n", time.Now().Format("15:04:05"))
		fmt.Fprintln(w, "INDEX\tNAME\tHOTTEST\tLEVEL")
		for _, r := range mon.Levels() {
			fmt.Fprintf(w, "%d\t%s\t%d°C\t%s\n", r.Index, r.Name, r.Hottest, r.Level)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if watchCount > 0 && n >= watchCount {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
