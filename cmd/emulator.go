package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/resq112/emulator"
	"github.com/kilianp07/resq112/qa/scenarios"
)

var (
	emulatorAddr     string
	emulatorCalls    int
	emulatorSeed     int64
	emulatorScenario string
)

var emulatorCmd = &cobra.Command{
	Use:   "emulator",
	Short: "Serve an emulated emergency feed, rosters and log sinks",
	RunE:  runEmulator,
}

func init() {
	emulatorCmd.Flags().StringVar(&emulatorAddr, "addr", ":8080", "listen address")
	emulatorCmd.Flags().IntVar(&emulatorCalls, "calls", 50, "scripted calls before the feed reports exhaustion")
	emulatorCmd.Flags().Int64Var(&emulatorSeed, "seed", 0, "scenario seed, 0 seeds from the clock")
	emulatorCmd.Flags().StringVar(&emulatorScenario, "scenario", "", "scripted scenario YAML, replaces the generated script")
	rootCmd.AddCommand(emulatorCmd)
}

func runEmulator(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := emulator.New(emulator.Config{Address: emulatorAddr, Calls: emulatorCalls, Seed: emulatorSeed})
	if emulatorScenario != "" {
		sc, err := scenarios.Load(emulatorScenario)
		if err != nil {
			return err
		}
		srv.LoadScenario(sc)
	}
	return srv.Start(ctx)
}
