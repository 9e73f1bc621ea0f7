package processing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/diff"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/domain/repo"
	"github.com/gridwatch/outage-notifier/internal/log"
	"github.com/gridwatch/outage-notifier/internal/nomos"
	"github.com/gridwatch/outage-notifier/internal/notify"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

const (
	tracerName = "github.com/gridwatch/outage-notifier/internal/processing"

	CategorySnapshotLoad = "snapshot_load"
	CategorySnapshotSave = "snapshot_save"
	CategoryDispatch     = "dispatch"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, events []entity.ChangeEvent, current []entity.Incident, force bool) ([]notify.Result, error)
}

type RunRequest struct {
	ID          uuid.UUID
	Started     time.Time
	ForceNotify bool
}

// NewRunRequest builds the request of a run starting at started.
func NewRunRequest(forceNotify bool) func(started time.Time) RunRequest {
	return func(started time.Time) RunRequest {
		return RunRequest{
			ID:          uuid.New(),
			Started:     started,
			ForceNotify: forceNotify,
		}
	}
}

// Main runs one poll: load, fetch, diff, notify, save.
type Main struct {
	store      repo.SnapshotStore
	fetcher    repo.IncidentFetcher
	dispatcher Dispatcher
	resolver   nomos.Resolver
	errors     pipeline.ErrorProcessing

	regions     []entity.RegionID
	concurrency int
	timeout     time.Duration

	tracer trace.Tracer
	logger *logr.Logger
}

func NewMain(
	store repo.SnapshotStore,
	fetcher repo.IncidentFetcher,
	dispatcher Dispatcher,
	resolver nomos.Resolver,
	errorProcessing pipeline.ErrorProcessing,
	regions []entity.RegionID,
) Main {
	return Main{
		store:      store,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		resolver:   resolver,
		errors:     errorProcessing,
		regions:    uniqueRegions(regions),
		tracer:     otel.Tracer(tracerName),
	}
}

// WithConcurrency bounds the number of regions fetched at once. Zero means no bound.
func (m Main) WithConcurrency(concurrency int) Main {
	m.concurrency = concurrency

	return m
}

// WithTimeout bounds a whole run. A run reaching it aborts without saving.
func (m Main) WithTimeout(timeout time.Duration) Main {
	m.timeout = timeout

	return m
}

func (m Main) WithLogger(logger logr.Logger) Main {
	m.logger = &logger

	return m
}

func (m Main) Process(ctx context.Context, req RunRequest) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	ctx, span := m.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("run.id", req.ID.String()),
		attribute.Bool("run.force_notify", req.ForceNotify),
	))
	defer span.End()

	if m.logger != nil {
		logger := log.WithTrace(ctx, *m.logger)
		m.logger = &logger
	}

	err := m.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run aborted")

		m.report(context.WithoutCancel(ctx), req, err)

		return err
	}

	return nil
}

func (m Main) run(ctx context.Context, req RunRequest) error {
	previous, err := m.store.Load(ctx)

	legacy := errors.Is(err, repo.ErrLegacySnapshot)
	if err != nil && !legacy {
		return common.NewErrProcessingError(err, CategorySnapshotLoad, nil, "failed to load snapshot")
	}

	if legacy {
		m.logInfo(0, "Legacy snapshot found, current incidents become the baseline", "run", req.ID)

		previous = entity.Snapshot{}
	}

	current, err := m.fetchAll(ctx, req)
	if err != nil {
		return err
	}

	// Regions fetched and diffed this run; the others keep their previous list
	events, diffed := diff.Snapshots(m.regions, previous, current, func(region entity.RegionID, err error) {
		m.reportRegion(ctx, req, region, err)
	})

	if legacy {
		events = nil
	}

	m.resolver.Annotate(events)
	listed := m.resolver.AnnotateSnapshot(m.merge(previous, diffed)).Incidents()

	results, err := m.dispatcher.Dispatch(ctx, events, listed, req.ForceNotify)
	if err != nil {
		return common.NewErrProcessingError(err, CategoryDispatch, nil, "failed to dispatch notifications")
	}

	for _, result := range results {
		if !result.Delivered() {
			m.report(ctx, req, result.Err)
		}
	}

	undelivered := notify.Undelivered(results)

	next := entity.Snapshot{}

	for _, region := range m.regions {
		switch {
		case diffed.Has(region):
			next = next.With(region, diff.Reconcile(diffed.Region(region), eventsOf(region, undelivered)))
		case previous.Has(region):
			next = next.With(region, previous.Region(region))
		}
	}

	err = m.store.Save(ctx, next)
	if err != nil {
		return common.NewErrProcessingError(err, CategorySnapshotSave, nil, "failed to save snapshot")
	}

	m.logSummary(req, events, results, undelivered, len(m.regions)-len(diffed))

	return nil
}

// merge returns, for every configured region, its diffed list or else its previous one.
func (m Main) merge(previous, diffed entity.Snapshot) entity.Snapshot {
	ret := entity.Snapshot{}

	for _, region := range m.regions {
		switch {
		case diffed.Has(region):
			ret = ret.With(region, diffed.Region(region))
		case previous.Has(region):
			ret = ret.With(region, previous.Region(region))
		}
	}

	return ret
}

func uniqueRegions(regions []entity.RegionID) []entity.RegionID {
	ret := make([]entity.RegionID, 0, len(regions))

	for _, region := range regions {
		if !slices.Contains(ret, region) {
			ret = append(ret, region)
		}
	}

	return ret
}

func eventsOf(region entity.RegionID, events []entity.ChangeEvent) []entity.ChangeEvent {
	var ret []entity.ChangeEvent

	for _, e := range events {
		if e.Region == region {
			ret = append(ret, e)
		}
	}

	return ret
}

func (m Main) logSummary(req RunRequest, events []entity.ChangeEvent, results []notify.Result, undelivered []entity.ChangeEvent, skipped int) {
	counts := map[entity.ChangeKind]int{}
	for _, e := range events {
		counts[e.Kind]++
	}

	delivered := 0
	for _, r := range results {
		if r.Delivered() {
			delivered++
		}
	}

	m.logInfo(0, "Run done",
		"run", req.ID,
		"created", counts[entity.ChangeCreated],
		"updated", counts[entity.ChangeUpdated],
		"resolved", counts[entity.ChangeResolved],
		"messages", len(results),
		"delivered", delivered,
		"undelivered_events", len(undelivered),
		"skipped_regions", skipped,
		"duration", fmt.Sprint(time.Since(req.Started).Round(time.Millisecond)),
	)
}

func (m Main) logInfo(level int, msg string, keysAndValues ...any) {
	if m.logger == nil {
		return
	}

	m.logger.V(level).Info(msg, keysAndValues...)
}

func (m Main) logError(err error, msg string, keysAndValues ...any) {
	if m.logger == nil {
		return
	}

	m.logger.Error(err, msg, keysAndValues...)
}
