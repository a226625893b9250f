// Package cli implements the gpuinfo command-line interface using Cobra.
// Each subcommand is a thin front end over the device registry.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var driverFlag string

var rootCmd = &cobra.Command{
	Use:   "gpuinfo",
	Short: "gpuinfo: read NVIDIA GPU names, memory and temperatures",
	Long: `gpuinfo enumerates the physical NVIDIA GPUs on this machine and reads
their name, memory pools and thermal sensors live from the vendor driver.

It never changes device state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "",
		"Driver binding: auto, nvapi, nvml or mock (overrides config)")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
