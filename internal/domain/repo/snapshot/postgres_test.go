package snapshot_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/domain/repo/snapshot"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("outages"),
		tcpostgres.WithUsername("outages"),
		tcpostgres.WithPassword("outages"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("skip: cannot start postgres: %v", err)
	}

	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get postgres dsn")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "failed to connect to postgres")

	t.Cleanup(pool.Close)

	return pool
}

func TestPostgresStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := startPostgres(t)

	store := snapshot.NewPostgresStore(pool, "outage_snapshots", clockwork.NewFakeClock())

	err := store.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	err = store.Migrate(ctx)
	require.NoError(t, err, "migrate must be idempotent")

	res, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, res, "empty table is an empty snapshot")

	err = store.Save(ctx, sampleSnapshot())
	require.NoError(t, err, "failed to save snapshot")

	res, err = store.Load(ctx)
	require.NoError(t, err, "failed to load snapshot")
	assertSameSnapshot(t, sampleSnapshot(), res)

	// Regions missing from the saved snapshot are dropped
	next := entity.Snapshot{"0205": sampleSnapshot().Region("0205")[1:]}

	err = store.Save(ctx, next)
	require.NoError(t, err, "failed to replace snapshot")

	res, err = store.Load(ctx)
	require.NoError(t, err)
	assertSameSnapshot(t, next, res)
}
