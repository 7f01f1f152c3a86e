package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	simTicks   uint64
	simWalkers int

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Fast-forward a scripted scenario and print the result.",
		Long: `Walks scripted actors wearing the first configured glowing item through
the world for the given number of ticks. One actor takes its headgear off
halfway through and another quits at three quarters. The engine status and
the output of "headlamp customlight status" are printed at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.start(); err != nil {
				return err
			}

			sc, err := newScenario(a, simWalkers, simTicks)
			if err != nil {
				return err
			}
			for i := uint64(0); i < simTicks; i++ {
				sc.step()
			}

			status, err := json.MarshalIndent(a.engine.Status(), "", "  ")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session: %s\nticks: %d\nlights in world: %d\n", a.session.Key, a.world.Now(), len(a.world.Lights()))
			fmt.Fprintf(out, "engine: %s\n", status)
			fmt.Fprintf(out, "command: %s\n", sc.command("customlight", "status"))
			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	simulateCmd.Flags().Uint64Var(&simTicks, "ticks", 200, "number of world ticks to run")
	simulateCmd.Flags().IntVar(&simWalkers, "actors", 3, "number of scripted actors")
}
