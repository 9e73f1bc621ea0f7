package snapshot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

const categoryPostgresError = "snapshot_postgres"

// PostgresStore keeps one row per region. Save replaces every row inside one transaction.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
	clock clockwork.Clock
}

func NewPostgresStore(pool *pgxpool.Pool, table string, clock clockwork.Clock) PostgresStore {
	return PostgresStore{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
		clock: clock,
	}
}

// Migrate creates the snapshot table when missing.
func (s PostgresStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	region_id  TEXT PRIMARY KEY,
	incidents  JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`, s.table)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return common.NewErrProcessingError(err, categoryPostgresError, nil, "failed to create table %s", s.table)
	}

	return nil
}

func (s PostgresStore) Load(ctx context.Context) (entity.Snapshot, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT region_id, incidents FROM %s", s.table))
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryPostgresError, nil, "failed to query %s", s.table)
	}
	defer rows.Close()

	ret := entity.Snapshot{}

	for rows.Next() {
		var (
			region string
			data   []byte
		)

		err := rows.Scan(&region, &data)
		if err != nil {
			return nil, common.NewErrProcessingError(err, categoryPostgresError, nil, "failed to scan %s", s.table)
		}

		incidents, err := DecodeRegion(entity.RegionID(region), data)
		if err != nil {
			return nil, err
		}

		ret[entity.RegionID(region)] = incidents
	}

	err = rows.Err()
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryPostgresError, nil, "failed to read %s", s.table)
	}

	return ret, nil
}

func (s PostgresStore) Save(ctx context.Context, snapshot entity.Snapshot) error {
	now := s.clock.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return common.NewErrProcessingError(err, categoryPostgresError, nil, "failed to begin transaction")
	}

	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table))
	if err != nil {
		return common.NewErrProcessingError(err, categoryPostgresError, nil, "failed to clear %s", s.table)
	}

	insert := fmt.Sprintf("INSERT INTO %s (region_id, incidents, updated_at) VALUES ($1, $2, $3)", s.table)

	batch := &pgx.Batch{}

	for _, region := range snapshot.Regions() {
		data, err := EncodeRegion(snapshot.Region(region))
		if err != nil {
			return err
		}

		batch.Queue(insert, string(region), string(data), now)
	}

	err = tx.SendBatch(ctx, batch).Close()
	if err != nil {
		return common.NewErrProcessingError(err, categoryPostgresError, nil, "failed to insert into %s", s.table)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return common.NewErrProcessingError(err, categoryPostgresError, nil, "failed to commit %s", s.table)
	}

	return nil
}
