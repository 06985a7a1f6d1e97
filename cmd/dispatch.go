package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/resq112/app"
	"github.com/kilianp07/resq112/config"
	"github.com/kilianp07/resq112/core/model"
	"github.com/kilianp07/resq112/infra/logger"
)

var (
	dispatchType   string
	dispatchCity   string
	dispatchCounty string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run a single dispatch action from a station and exit",
	RunE:  dispatchOnce,
}

func init() {
	dispatchCmd.Flags().StringVar(&dispatchType, "type", "", "resource type (medical, police, fire, rescue, utility)")
	dispatchCmd.Flags().StringVar(&dispatchCity, "city", "", "station city")
	dispatchCmd.Flags().StringVar(&dispatchCounty, "county", "", "station county")
	_ = dispatchCmd.MarkFlagRequired("type")
	_ = dispatchCmd.MarkFlagRequired("city")
	_ = dispatchCmd.MarkFlagRequired("county")
	rootCmd.AddCommand(dispatchCmd)
}

func dispatchOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	t, ok := model.ResourceTypeFromString(dispatchType)
	if !ok {
		return fmt.Errorf("unknown resource type %q", dispatchType)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	logg := logger.New("dispatch-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	// Pull the current feed state once so there are calls to match against.
	if _, err := svc.Pipeline.RunOnce(ctx); err != nil {
		logg.Warnf("feed fetch: %v", err)
	}

	stationKey := dispatchCity + "/" + dispatchCounty
	inv, err := svc.Coordinator.Station(t, stationKey)
	if err != nil {
		return err
	}
	res, err := svc.Coordinator.Dispatch(ctx, t, stationKey, inv.Location)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(map[string]any{
		"outcome":       res.Outcome.String(),
		"call_id":       res.CallID,
		"quantity":      res.Quantity,
		"call_resolved": res.CallResolved,
		"distance_m":    res.DistanceM,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
