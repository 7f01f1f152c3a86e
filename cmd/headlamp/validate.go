package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethria/headlamp/internal/addon"
	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/logging"
	"github.com/ethria/headlamp/internal/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check headlamp.yml and report the glowing items it defines.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.Load(configDir); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		sm := logging.NewSlogManager()
		sm.Setup(logging.Options{Level: config.GetGeneralConfig().LogLevel})

		cfg := config.GetLightConfig()
		res := registry.New(sm.Logger()).Load(cfg.GlowingItems)
		settings := addon.Settings(cfg)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "glowing items: %d loaded, %d skipped\n", res.Loaded, res.Skipped)
		fmt.Fprintf(out, "settings: %+v\n", settings)
		fmt.Fprintf(out, "storage: %s\n", config.GetStorageConfig().Type)

		if res.Loaded == 0 {
			return fmt.Errorf("no usable glowing items")
		}
		return nil
	},
}
