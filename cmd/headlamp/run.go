package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	tickRate   time.Duration
	runWalkers int

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Tick the engine in real time until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return run(ctx)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	runCmd.Flags().DurationVar(&tickRate, "tick-rate", 50*time.Millisecond, "wall time per world tick")
	runCmd.Flags().IntVar(&runWalkers, "actors", 0, "number of scripted actors to walk through the world")
}

func run(ctx context.Context) error {
	a, err := newApp(configDir)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.start(); err != nil {
		return err
	}

	var sc *scenario
	if runWalkers > 0 {
		// scripted events never fire in real time
		if sc, err = newScenario(a, runWalkers, 0); err != nil {
			return err
		}
	}

	a.logger.Info("Headlamp running", "tickRate", tickRate, "actors", runWalkers, "session", a.session.Key)

	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Shutting down", "tick", a.world.Now())
			return nil
		case <-ticker.C:
			if sc != nil {
				sc.step()
			} else {
				a.world.Tick()
			}
		}
	}
}
