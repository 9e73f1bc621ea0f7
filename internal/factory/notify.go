package factory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/log"
	"github.com/gridwatch/outage-notifier/internal/notify"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

/*
 * CreateDispatcher builds the notification chain as follow:
 *
 *                                       ---> panic --> duration --> retry --> email
 *	dispatcher --> delivery count --> fanout ---|--> panic --> duration --> retry --> teams
 *                                       ---> ... (kafka, nats)
 *
 * Without any enabled transport, the dispatcher only logs messages.
 */
func CreateDispatcher(conf config.Notify, registry prometheus.Registerer, clock clockwork.Clock) (notify.Dispatcher, common.CloseFunc, error) {
	location, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		return notify.Dispatcher{}, nil, fmt.Errorf("failed to load timezone %s: %w", conf.Timezone, err)
	}

	renderer := notify.NewRenderer(location, clock)

	transports, closeFunc, err := createTransports(conf)
	if err != nil {
		return notify.Dispatcher{}, nil, err
	}

	if len(transports) == 0 {
		return notify.NewDispatcher(renderer, nil, conf.Mode).WithLogger(log.Logger()), closeFunc, nil
	}

	decorated := make([]notify.Transport, 0, len(transports))

	for _, t := range transports {
		p := pipeline.NewRetryProcessing(t.Processing, pipeline.RetryConfig{
			MaxAttempt: conf.Retry.Attempts,
			Delay:      conf.Retry.Delay,
			MaxDelay:   conf.Retry.MaxDelay,
			OnRetry: func(attempt uint, err error) {
				log.Logger().V(1).Info("Delivery failed, retrying", "transport", t.Name, "attempt", attempt+1, "error", err.Error())
			},
		})

		p, err = pipeline.NewDurationMetricsDecoratorProcessing(p, registry, clock, pipeline.MetricsConfig{Namespace: "outage_notifier", Subsystem: "transport_" + t.Name})
		if err != nil {
			return notify.Dispatcher{}, nil, errors.Join(fmt.Errorf("failed to create duration metrics processor: %w", err), closeFunc(context.Background()))
		}

		decorated = append(decorated, notify.Transport{Name: t.Name, Processing: pipeline.NewPanicHandlerProcessing(p)})
	}

	fanout := notify.NewFanout(decorated...)

	counted, err := notify.NewCountDelivery(fanout, registry, pipeline.MetricsConfig{Namespace: "outage_notifier", Subsystem: "notify"})
	if err != nil {
		return notify.Dispatcher{}, nil, errors.Join(fmt.Errorf("failed to create delivery counter: %w", err), closeFunc(context.Background()))
	}

	log.Logger().Info("Notification transports", "transports", fanout.Names(), "mode", conf.Mode)

	return notify.NewDispatcher(renderer, counted, conf.Mode).WithLogger(log.Logger()), closeFunc, nil
}

func createTransports(conf config.Notify) ([]notify.Transport, common.CloseFunc, error) {
	var ret []notify.Transport
	var closers []common.CloseFunc

	closeAll := func(ctx context.Context) error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c(ctx))
		}

		return errors.Join(errs...)
	}

	fail := func(err error) ([]notify.Transport, common.CloseFunc, error) {
		return nil, nil, errors.Join(err, closeAll(context.Background()))
	}

	if conf.Email.Enabled {
		email, err := notify.NewEmail(conf.Email)
		if err != nil {
			return fail(err)
		}

		ret = append(ret, notify.Transport{Name: "email", Processing: email})
	}

	if conf.Teams.Enabled {
		teams, err := notify.NewTeams(conf.Teams)
		if err != nil {
			return fail(err)
		}

		ret = append(ret, notify.Transport{Name: "teams", Processing: teams})
	}

	if conf.Kafka.Enabled {
		producer, closeFunc, err := CreateKafkaProducer(conf.Kafka)
		if err != nil {
			return fail(err)
		}

		closers = append(closers, closeFunc)
		ret = append(ret, notify.Transport{Name: "kafka", Processing: notify.NewKafka(producer, conf.Kafka.Producer.Topic)})
	}

	if conf.NATS.Enabled {
		conn, err := nats.Connect(conf.NATS.URL, nats.Name("outage-notifier"))
		if err != nil {
			return fail(fmt.Errorf("failed to connect to nats: %w", err))
		}

		closers = append(closers, func(context.Context) error {
			return conn.Drain()
		})
		ret = append(ret, notify.Transport{Name: "nats", Processing: notify.NewNATS(conn, conf.NATS.Subject)})
	}

	return ret, closeAll, nil
}
