package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tutu-network/gpuinfo/internal/domain"
)

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(showCmd)
}

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Show one GPU's full report",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

type showReport struct {
	Index int `json:"index"`
	domain.DeviceReport
}

func runShow(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid device index %q", args[0])
	}

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

	dev, err := reg.Device(ctx, index)
	if err != nil {
		return err
	}
	rep := domain.Snapshot(dev)

	out := cmd.OutOrStdout()
	if showJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(showReport{Index: index, DeviceReport: rep})
	}

	fmt.Fprintf(out, "Device:       %d\n", index)
	fmt.Fprintf(out, "Name:         %s\n", orError(rep.Name, rep.Errors["name"]))
	if rep.Memory != nil {
		fmt.Fprintf(out, "Dedicated:    %s\n", humanKB(rep.Memory.Dedicated))
		fmt.Fprintf(out, "Available:    %s\n", humanKB(rep.Memory.AvailableDedicated))
		fmt.Fprintf(out, "Used:         %s\n", humanKB(rep.Memory.UsedDedicated()))
		fmt.Fprintf(out, "System:       %s\n", humanKB(rep.Memory.System))
		fmt.Fprintf(out, "Shared:       %s\n", humanKB(rep.Memory.SharedSystem))
	} else {
		fmt.Fprintf(out, "Memory:       error: %s\n", rep.Errors["memory"])
	}
	if msg, failed := rep.Errors["thermal_sensors"]; failed {
		fmt.Fprintf(out, "Thermal:      error: %s\n", msg)
	} else {
		fmt.Fprintf(out, "Thermal:      %s\n", formatSensors(rep.Sensors))
	}
	return nil
}

func orError(v, errMsg string) string {
	if errMsg != "" {
		return "error: " + errMsg
	}
	return v
}
