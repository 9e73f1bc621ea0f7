package repo

import (
	"context"
	"errors"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

//go:generate mockgen -source=interfaces.go -package=mock -destination=./mock/mock_repo.go

// ErrLegacySnapshot is returned by Load when the stored document predates per-incident tracking.
var ErrLegacySnapshot = errors.New("legacy snapshot document")

type SnapshotReader interface {
	// Load returns the snapshot saved by the last successful run. A missing snapshot is empty, not an error.
	Load(ctx context.Context) (entity.Snapshot, error)
}

type SnapshotWriter interface {
	// Save replaces the stored snapshot with every region of snapshot at once.
	Save(ctx context.Context, snapshot entity.Snapshot) error
}

type SnapshotStore interface {
	SnapshotReader
	SnapshotWriter
}

type IncidentFetcher interface {
	Fetch(ctx context.Context, region entity.RegionID) ([]entity.Incident, error)
}

// Inputs of a processing error holding, in their Key, the id of the run and the region it concerns.
const (
	RunInputSource    = "run"
	RegionInputSource = "region"
)

type ProcessingErrorWriter interface {
	WriteProcessingError(ctx context.Context, pErr pipeline.ErrProcessingError) error
}
