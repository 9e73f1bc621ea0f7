package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

type staticFetcher struct {
	incidents []entity.Incident
	err       error
}

func (f staticFetcher) Fetch(context.Context, entity.RegionID) ([]entity.Incident, error) {
	return f.incidents, f.err
}

func at(hour int) *time.Time {
	ret := time.Date(2026, 2, 13, hour, 0, 0, 0, time.UTC)

	return &ret
}

func TestCountOverdue(t *testing.T) {
	type testCase struct {
		name        string
		incidents   []entity.Incident
		expectation int
	}

	cases := []testCase{
		{
			name: "No restoration time",
			incidents: []entity.Incident{
				{ID: 1, Status: entity.StatusActive},
			},
			expectation: 0,
		},
		{
			name: "Estimated restoration passed",
			incidents: []entity.Incident{
				{ID: 1, Status: entity.StatusActive, ETAEstimated: at(11)},
				{ID: 2, Status: entity.StatusUnknown, ETAEstimated: at(9)},
				{ID: 3, Status: entity.StatusActive, ETAEstimated: at(13)},
			},
			expectation: 2,
		},
		{
			name: "Announced restoration wins",
			incidents: []entity.Incident{
				{ID: 1, Status: entity.StatusActive, ETAEstimated: at(11), ETAAnnounced: at(14)},
				{ID: 2, Status: entity.StatusActive, ETAEstimated: at(14), ETAAnnounced: at(11)},
			},
			expectation: 1,
		},
		{
			name: "Resolved by the provider",
			incidents: []entity.Incident{
				{ID: 1, Status: entity.StatusResolved, ETAEstimated: at(8)},
			},
			expectation: 0,
		},
	}

	for i := range cases {
		c := cases[i]

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)

			clock := clockwork.NewFakeClockAt(*at(12))

			p := OverdueIncidents{
				clock: clock,
			}

			assert.Equal(c.expectation, p.countOverdue(c.incidents))
		})
	}
}

func TestOverdueGaugeKeepsLastValueOnError(t *testing.T) {
	registry := prometheus.NewRegistry()
	clock := clockwork.NewFakeClockAt(*at(12))

	ok, err := NewOverdueIncidents(staticFetcher{incidents: []entity.Incident{
		{ID: 1, Status: entity.StatusActive, ETAEstimated: at(10)},
	}}, registry, clock, pipeline.MetricsConfig{Namespace: "test"})
	require.NoError(t, err)

	_, err = ok.Fetch(context.Background(), "0205")
	require.NoError(t, err)

	gauge := ok.(OverdueIncidents).gauge
	assert.InDelta(t, 1, testutil.ToFloat64(gauge.WithLabelValues("0205")), 0.001)

	failing := OverdueIncidents{gauge: gauge, clock: clock, inner: staticFetcher{err: errors.New("boom")}}

	_, err = failing.Fetch(context.Background(), "0205")
	require.Error(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(gauge.WithLabelValues("0205")), 0.001)
}

func TestCountFetchOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()

	f, err := NewCountFetch(staticFetcher{err: permanentError(errors.New("404"), "0205")}, registry, pipeline.MetricsConfig{Namespace: "test"})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "0205")
	require.Error(t, err)

	counter := f.(CountFetch).counter
	assert.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("0205", "permanent")), 0.001)
	assert.InDelta(t, 0, testutil.ToFloat64(counter.WithLabelValues("0205", "success")), 0.001)
}
