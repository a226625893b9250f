package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tutu-network/gpuinfo/internal/daemon"
)

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write the effective config to the config file")
	rootCmd.AddCommand(configCmd)
}

var configInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if configInit {
		if err := daemon.SaveConfig(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(out, "# written to %s\n", daemon.ConfigPath())
	} else {
		fmt.Fprintf(out, "# %s\n", daemon.ConfigPath())
	}
	return toml.NewEncoder(out).Encode(cfg)
}
