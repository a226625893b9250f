package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tutu-network/gpuinfo/internal/domain"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List GPUs with memory and temperatures",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := discoveryContext(cmd, cfg)
	defer cancel()

	devices, err := reg.Devices(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(devices) == 0 {
		fmt.Fprintln(out, "No NVIDIA GPUs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tMEMORY\tFREE\tSHARED\tTEMPERATURES")
	for i, dev := range devices {
		rep := domain.Snapshot(dev)

		name, total, free, shared := rep.Name, "error", "error", "error"
		if _, failed := rep.Errors["name"]; failed {
			name = "error"
		}
		if rep.Memory != nil {
			total = humanKB(rep.Memory.Dedicated)
			free = humanKB(rep.Memory.AvailableDedicated)
			shared = humanKB(rep.Memory.SharedSystem)
		}
		temps := formatSensors(rep.Sensors)
		if _, failed := rep.Errors["thermal_sensors"]; failed {
			temps = "error"
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i, name, total, free, shared, temps)
	}
	return w.Flush()
}
