package factory

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/domain/repo"
	"github.com/gridwatch/outage-notifier/internal/fetcher"
	"github.com/gridwatch/outage-notifier/internal/log"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

/*
 * CreateFetcher decorates the provider client as follow:
 *
 * overdue gauge --> fetch count --> client (retries)
 */
func CreateFetcher(conf config.Provider, debug bool, registry prometheus.Registerer, clock clockwork.Clock) (repo.IncidentFetcher, error) {
	var ret repo.IncidentFetcher = fetcher.NewClient(conf).
		WithLogger(log.Logger()).
		WithDebug(debug)

	metricsConfig := pipeline.MetricsConfig{Namespace: "outage_notifier", Subsystem: "provider"}

	ret, err := fetcher.NewCountFetch(ret, registry, metricsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch counter: %w", err)
	}

	ret, err = fetcher.NewOverdueIncidents(ret, registry, clock, metricsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create overdue gauge: %w", err)
	}

	return ret, nil
}
