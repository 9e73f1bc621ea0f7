package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/factory"
	"github.com/gridwatch/outage-notifier/internal/log"
	"github.com/gridwatch/outage-notifier/internal/tracing"
)

// triggerCmd represents the trigger command
var triggerCmd = &cobra.Command{
	Use:     "trigger",
	Short:   "Serve the endpoint dispatching a run on the automation service",
	PreRunE: initialize,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.Logger()

		ctx := common.SetupSignalHandler(context.Background())

		closeTracing, err := tracing.Init(ctx, conf.Tracing)
		if err != nil {
			return err
		}

		server := factory.CreateTriggerServer(conf.Trigger)

		errs := make(chan error, 1)

		go func() {
			errs <- server.ListenAndServe()
		}()

		logger.Info("Trigger relay listening", "address", server.Addr)

		select {
		case err = <-errs:
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
		case <-ctx.Done():
		}

		return errors.Join(err, common.CloseAll(conf.GracefulDuration, []common.CloseFunc{closeTracing, server.Shutdown}))
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}
