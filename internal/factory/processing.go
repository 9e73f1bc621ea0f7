package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/domain/repo/processingerror"
	"github.com/gridwatch/outage-notifier/internal/processing"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

/*
 * DecorateProcessing decorates a run as follow:
 *
 * panic --> duration --> main (load + fetch + diff + notify + save)
 *
 * Runs are not retried: the next tick is the retry.
 */
func DecorateProcessing(mainProcessing pipeline.Processing[processing.RunRequest], registry prometheus.Registerer, clock clockwork.Clock) (pipeline.Processing[processing.RunRequest], error) {
	ret, err := pipeline.NewDurationMetricsDecoratorProcessing(mainProcessing, registry, clock, pipeline.MetricsConfig{Namespace: "outage_notifier", Subsystem: "run"})
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = pipeline.NewPanicHandlerProcessing(ret)

	return ret, nil
}

/*
 * DecorateErrorProcessing decorates the error processing as follow:
 *
 *										---> retry --> main (reports)
 *	panic --> duration --> parallel ---|
 *										---> error count
 */
func DecorateErrorProcessing(mainProcessing pipeline.ErrorProcessing, registry prometheus.Registerer, clock clockwork.Clock) (pipeline.ErrorProcessing, error) {
	var ret pipeline.Processing[pipeline.ErrProcessingError] = mainProcessing

	ret = pipeline.NewRetryProcessing(ret, pipeline.RetryConfig{MaxAttempt: 3, Delay: 200 * time.Millisecond, MaxDelay: time.Second})

	errorCount, err := pipeline.NewErrorCountProcessing(registry, pipeline.MetricsConfig{Namespace: "outage_notifier", Subsystem: "error"})
	if err != nil {
		return nil, fmt.Errorf("failed to create error count processing: %w", err)
	}

	ret = pipeline.NewParallelProcessing(ret, errorCount)

	ret, err = pipeline.NewDurationMetricsDecoratorProcessing(ret, registry, clock, pipeline.MetricsConfig{Namespace: "outage_notifier", Subsystem: "error"})
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = pipeline.NewPanicHandlerProcessing(ret)

	return ret, nil
}

// CreateErrorProcessing stores reports in s3 when enabled; errors are counted in any case.
func CreateErrorProcessing(ctx context.Context, conf config.Config, registry prometheus.Registerer, clock clockwork.Clock) (pipeline.ErrorProcessing, error) {
	var main pipeline.ErrorProcessing = pipeline.ProcessingFunc[pipeline.ErrProcessingError](func(context.Context, pipeline.ErrProcessingError) error {
		return nil
	})

	if conf.Reports.Enabled {
		client, err := CreateS3Client(ctx, conf.State.S3)
		if err != nil {
			return nil, err
		}

		main = processing.NewReportProcessing(processingerror.NewS3Writer(client, conf.Reports.Bucket, conf.Reports.Prefix, clock))
	}

	return DecorateErrorProcessing(main, registry, clock)
}
