package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/domain/repo"
	"github.com/gridwatch/outage-notifier/internal/domain/repo/snapshot"
)

// CreateSnapshotStore returns the store of the configured backend.
func CreateSnapshotStore(ctx context.Context, conf config.State, clock clockwork.Clock) (repo.SnapshotStore, common.CloseFunc, error) {
	switch conf.Backend {
	case config.StateBackendFile:
		return snapshot.NewFileStore(conf.File.Path, clock), common.NoopClose, nil
	case config.StateBackendS3:
		client, err := CreateS3Client(ctx, conf.S3)
		if err != nil {
			return nil, nil, err
		}

		return snapshot.NewS3Store(client, conf.S3.Bucket, conf.S3.Key, clock), common.NoopClose, nil
	case config.StateBackendValkey:
		client, closeFunc, err := CreateValkeyClient(ctx, conf.Valkey)
		if err != nil {
			return nil, nil, err
		}

		return snapshot.NewValkeyStore(client, conf.Valkey.Key, clock), closeFunc, nil
	case config.StateBackendPostgres:
		return createPostgresStore(ctx, conf.Postgres, clock)
	case config.StateBackendConfigMap:
		client, err := createKubernetesClient(conf.ConfigMap.Kubeconfig)
		if err != nil {
			return nil, nil, err
		}

		return snapshot.NewConfigMapStore(client, conf.ConfigMap.Namespace, conf.ConfigMap.Name, conf.ConfigMap.DataKey, clock), common.NoopClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", conf.Backend)
	}
}

func createPostgresStore(ctx context.Context, conf config.Postgres, clock clockwork.Clock) (repo.SnapshotStore, common.CloseFunc, error) {
	pool, err := pgxpool.New(ctx, conf.URL.Value())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()

		return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := snapshot.NewPostgresStore(pool, conf.Table, clock)

	err = store.Migrate(ctx)
	if err != nil {
		pool.Close()

		return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}

	shutdown := func(context.Context) error {
		pool.Close()

		return nil
	}

	return store, shutdown, nil
}

// createKubernetesClient uses kubeconfig when set, the in-cluster configuration otherwise.
func createKubernetesClient(kubeconfig string) (kubernetes.Interface, error) {
	var restConfig *rest.Config
	var err error

	if kubeconfig != "" {
		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		restConfig, err = rest.InClusterConfig()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
	}

	ret, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return ret, nil
}
