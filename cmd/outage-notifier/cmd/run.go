package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/factory"
	"github.com/gridwatch/outage-notifier/internal/log"
	"github.com/gridwatch/outage-notifier/internal/nomos"
	"github.com/gridwatch/outage-notifier/internal/processing"
	"github.com/gridwatch/outage-notifier/internal/tracing"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

var (
	runInterval time.Duration
	forceNotify bool
	debugLog    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Poll the outage API, notify the changes and save the new snapshot",
	PreRunE: initialize,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.Logger()

		// Set max procs based on cpu limits
		err := common.SetMaxProcs()
		if err != nil {
			return err
		}

		// Set max memory
		err = common.SetMemLimit()
		if err != nil {
			return err
		}

		// Listen to sigterm and interrupt signals
		ctx := common.SetupSignalHandler(context.Background())

		closers := []common.CloseFunc{}

		defer func() {
			_ = common.CloseAll(conf.GracefulDuration, closers)
		}()

		// Tracing
		closeTracing, err := tracing.Init(ctx, conf.Tracing)
		if err != nil {
			return err
		}

		closers = append(closers, closeTracing)

		// Metrics
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		if conf.Metrics.Enabled {
			closers = append(closers, startMetricsServer(conf.Metrics, registry))
		}

		// Create pipeline
		run, closeRun, err := createRun(ctx, *conf, registry)
		if err != nil {
			return err
		}

		closers = append(closers, closeRun)

		// Start pipeline
		interval := conf.Run.Interval
		if cmd.Flags().Changed("interval") {
			interval = runInterval
		}

		newRequest := firstRunOnly(forceNotify || conf.Run.ForceNotify)

		if interval <= 0 {
			return run.Process(ctx, newRequest(time.Now()))
		}

		err = pipeline.NewRunner(run, interval, clockwork.NewRealClock(), newRequest).
			WithLogger(logger).
			Start(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}

		logger.V(2).Info("Processing stopped")

		return err
	},
}

func createRun(ctx context.Context, conf config.Config, registry *prometheus.Registry) (pipeline.Processing[processing.RunRequest], common.CloseFunc, error) {
	clock := clockwork.NewRealClock()
	logger := log.Logger()

	store, closeStore, err := factory.CreateSnapshotStore(ctx, conf.State, clock)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	fail := func(err error) (pipeline.Processing[processing.RunRequest], common.CloseFunc, error) {
		return nil, nil, errors.Join(err, closeStore(ctx))
	}

	fetcher, err := factory.CreateFetcher(conf.Provider, debugLog || conf.Run.DebugLog, registry, clock)
	if err != nil {
		return fail(err)
	}

	resolver, err := nomos.LoadFile(conf.Nomos.MapFile)
	if err != nil {
		return fail(fmt.Errorf("failed to load nomos map: %w", err))
	}

	dispatcher, closeDispatcher, err := factory.CreateDispatcher(conf.Notify, registry, clock)
	if err != nil {
		return fail(fmt.Errorf("failed to create dispatcher: %w", err))
	}

	errorProcessing, err := factory.CreateErrorProcessing(ctx, conf, registry, clock)
	if err != nil {
		return fail(errors.Join(fmt.Errorf("failed to create error processing: %w", err), closeDispatcher(ctx)))
	}

	regions := make([]entity.RegionID, 0, len(conf.Regions))
	for _, region := range conf.Regions {
		regions = append(regions, entity.RegionID(region))
	}

	mainProcessing := processing.NewMain(store, fetcher, dispatcher, resolver, errorProcessing, regions).
		WithConcurrency(conf.Run.Concurrency).
		WithTimeout(conf.Run.Timeout).
		WithLogger(logger)

	ret, err := factory.DecorateProcessing(mainProcessing, registry, clock)
	if err != nil {
		return fail(errors.Join(err, closeDispatcher(ctx)))
	}

	closeAll := func(ctx context.Context) error {
		return errors.Join(closeDispatcher(ctx), closeStore(ctx))
	}

	return ret, closeAll, nil
}

// firstRunOnly forces the notification of the first run only.
func firstRunOnly(force bool) func(time.Time) processing.RunRequest {
	newRequest := processing.NewRunRequest(force)
	plain := processing.NewRunRequest(false)

	first := true

	return func(started time.Time) processing.RunRequest {
		if first {
			first = false

			return newRequest(started)
		}

		return plain(started)
	}
}

func startMetricsServer(conf config.Metrics, registry *prometheus.Registry) common.CloseFunc {
	logger := log.Logger()
	server := factory.CreatePrometheusServer(conf, registry)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "metrics server stopped")
		}
	}()

	return server.Shutdown
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "poll on every interval instead of running once")
	runCmd.Flags().BoolVar(&forceNotify, "force-notify", false, "send a test message when nothing changed")
	runCmd.Flags().BoolVar(&debugLog, "debug-log", false, "log a sample of every provider payload")

	rootCmd.AddCommand(runCmd)
}
