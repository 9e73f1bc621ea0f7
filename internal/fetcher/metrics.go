package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridwatch/outage-notifier/internal/diff"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/domain/repo"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

// CountFetch counts fetches by region and outcome.
type CountFetch struct {
	counter *prometheus.CounterVec
	inner   repo.IncidentFetcher
}

func NewCountFetch(f repo.IncidentFetcher, registry prometheus.Registerer, config pipeline.MetricsConfig) (repo.IncidentFetcher, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "fetch_total",
		Help:      "Fetch counter by region and outcome.",
	}, []string{"region", "outcome"})

	err := registry.Register(counter)
	if err != nil {
		return nil, fmt.Errorf("failed to register metric: %w", err)
	}

	ret := CountFetch{
		counter: counter,
		inner:   f,
	}

	return ret, nil
}

func (f CountFetch) Fetch(ctx context.Context, region entity.RegionID) ([]entity.Incident, error) {
	ret, err := f.inner.Fetch(ctx, region)

	f.counter.WithLabelValues(string(region), outcome(err)).Inc()

	return ret, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, diff.ErrDataIntegrity):
		return "data_integrity"
	default:
		return "permanent"
	}
}

// OverdueIncidents exposes, per region, how many active incidents are past their restoration time.
type OverdueIncidents struct {
	gauge *prometheus.GaugeVec
	clock clockwork.Clock
	inner repo.IncidentFetcher
}

func NewOverdueIncidents(f repo.IncidentFetcher, registry prometheus.Registerer, clock clockwork.Clock, config pipeline.MetricsConfig) (repo.IncidentFetcher, error) {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "overdue_incidents",
		Help:      "Active incidents whose restoration time has passed, by region.",
	}, []string{"region"})

	err := registry.Register(gauge)
	if err != nil {
		return nil, fmt.Errorf("failed to register metric: %w", err)
	}

	ret := OverdueIncidents{
		gauge: gauge,
		clock: clock,
		inner: f,
	}

	return ret, nil
}

func (f OverdueIncidents) Fetch(ctx context.Context, region entity.RegionID) ([]entity.Incident, error) {
	ret, err := f.inner.Fetch(ctx, region)
	if err != nil {
		return ret, err // Keep the last known value
	}

	f.gauge.WithLabelValues(string(region)).Set(float64(f.countOverdue(ret)))

	return ret, nil
}

func (f OverdueIncidents) countOverdue(incidents []entity.Incident) int {
	now := f.clock.Now()
	ret := 0

	for _, incident := range incidents {
		if incident.Status == entity.StatusResolved {
			continue
		}

		deadline := restorationDeadline(incident)
		if deadline != nil && deadline.Before(now) {
			ret++
		}
	}

	return ret
}

// The announced restoration time wins over the estimated one.
func restorationDeadline(incident entity.Incident) *time.Time {
	if incident.ETAAnnounced != nil {
		return incident.ETAAnnounced
	}

	return incident.ETAEstimated
}
