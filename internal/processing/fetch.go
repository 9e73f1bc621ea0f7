package processing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/gridwatch/outage-notifier/internal/diff"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/fetcher"
)

// fetchAll returns the incidents of every region fetched successfully.
//
// Transient and data integrity failures skip their region. Any other failure aborts the run.
func (m Main) fetchAll(ctx context.Context, req RunRequest) (entity.Snapshot, error) {
	lists := make([][]entity.Incident, len(m.regions))
	fetched := make([]bool, len(m.regions))

	group, groupCtx := errgroup.WithContext(ctx)
	if m.concurrency > 0 {
		group.SetLimit(m.concurrency)
	}

	for i, region := range m.regions {
		group.Go(func() error {
			incidents, err := m.fetchRegion(groupCtx, region)

			switch {
			case err == nil:
				lists[i] = incidents
				fetched[i] = true

				return nil
			case errors.Is(err, fetcher.ErrTransient), errors.Is(err, diff.ErrDataIntegrity):
				m.reportRegion(ctx, req, region, err)

				return nil
			default:
				return fmt.Errorf("failed to fetch region %s: %w", region, err)
			}
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	ret := entity.Snapshot{}

	for i, region := range m.regions {
		if fetched[i] {
			ret = ret.With(region, lists[i])
		}
	}

	return ret, nil
}

func (m Main) fetchRegion(ctx context.Context, region entity.RegionID) ([]entity.Incident, error) {
	ctx, span := m.tracer.Start(ctx, "fetch", trace.WithAttributes(attribute.String("region", string(region))))
	defer span.End()

	ret, err := m.fetcher.Fetch(ctx, region)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")

		return nil, err
	}

	span.SetAttributes(attribute.Int("incidents", len(ret)))

	return ret, nil
}
