package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

// CountDelivery counts delivered and failed events by kind.
type CountDelivery struct {
	messages *prometheus.CounterVec
	events   *prometheus.CounterVec
	inner    pipeline.Processing[Message]
}

func NewCountDelivery(p pipeline.Processing[Message], registry prometheus.Registerer, config pipeline.MetricsConfig) (pipeline.Processing[Message], error) {
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "messages_total",
		Help:      "Message counter by outcome.",
	}, []string{"outcome", "test"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "events_total",
		Help:      "Change event counter by kind and outcome.",
	}, []string{"kind", "outcome"})

	for _, c := range []prometheus.Collector{messages, events} {
		err := registry.Register(c)
		if err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	ret := CountDelivery{
		messages: messages,
		events:   events,
		inner:    p,
	}

	return ret, nil
}

func (p CountDelivery) Process(ctx context.Context, message Message) error {
	err := p.inner.Process(ctx, message)

	outcome := "delivered"
	if err != nil {
		outcome = "failed"
	}

	p.messages.WithLabelValues(outcome, strconv.FormatBool(message.Test)).Inc()

	for _, event := range message.Events {
		p.events.WithLabelValues(string(event.Kind), outcome).Inc()
	}

	return err
}
