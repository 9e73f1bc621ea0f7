package processing

import (
	"context"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/domain/repo"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

// NewReportProcessing stores processing errors with writer.
func NewReportProcessing(writer repo.ProcessingErrorWriter) pipeline.ErrorProcessing {
	return pipeline.ProcessingFunc[pipeline.ErrProcessingError](writer.WriteProcessingError)
}

func (m Main) reportRegion(ctx context.Context, req RunRequest, region entity.RegionID, err error) {
	m.report(ctx, req, common.WithInputs(err, pipeline.Input{
		Source: repo.RegionInputSource,
		Key:    string(region),
	}))
}

func (m Main) report(ctx context.Context, req RunRequest, err error) {
	pErr := pipeline.AsProcessingError(err)

	m.logError(err, "Run error", "run", req.ID, "category", pErr.Category)

	if m.errors == nil {
		return
	}

	pErr = common.WithInputs(pErr, pipeline.Input{
		Source: repo.RunInputSource,
		Key:    req.ID.String(),
	})

	err = m.errors.Process(ctx, pErr)
	if err != nil {
		m.logError(err, "Failed to report error", "run", req.ID, "category", pErr.Category)
	}
}
