package snapshot

import (
	"context"

	"github.com/jonboulle/clockwork"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

const categoryConfigMapError = "snapshot_configmap"

// ConfigMapStore keeps the snapshot document in one data key of a ConfigMap.
// Updates carry the resourceVersion read beforehand, so a concurrent writer makes Save fail instead of being overwritten.
type ConfigMapStore struct {
	client kubernetes.Interface

	namespace string
	name      string
	dataKey   string

	clock clockwork.Clock
}

func NewConfigMapStore(client kubernetes.Interface, namespace, name, dataKey string, clock clockwork.Clock) ConfigMapStore {
	return ConfigMapStore{
		client:    client,
		namespace: namespace,
		name:      name,
		dataKey:   dataKey,
		clock:     clock,
	}
}

func (s ConfigMapStore) Load(ctx context.Context) (entity.Snapshot, error) {
	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return entity.Snapshot{}, nil
		}

		return nil, common.NewErrProcessingError(err, categoryConfigMapError, nil, "failed to get configmap %s/%s", s.namespace, s.name)
	}

	return Decode([]byte(cm.Data[s.dataKey]))
}

func (s ConfigMapStore) Save(ctx context.Context, snapshot entity.Snapshot) error {
	data, err := Encode(snapshot, s.clock.Now())
	if err != nil {
		return err
	}

	configMaps := s.client.CoreV1().ConfigMaps(s.namespace)

	cm, err := configMaps.Get(ctx, s.name, metav1.GetOptions{})

	switch {
	case apierrors.IsNotFound(err):
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      s.name,
				Namespace: s.namespace,
				Labels:    map[string]string{"app.kubernetes.io/name": "outage-notifier"},
			},
			Data: map[string]string{s.dataKey: string(data)},
		}

		_, err = configMaps.Create(ctx, cm, metav1.CreateOptions{})
		if err != nil {
			return common.NewErrProcessingError(err, categoryConfigMapError, nil, "failed to create configmap %s/%s", s.namespace, s.name)
		}

		return nil
	case err != nil:
		return common.NewErrProcessingError(err, categoryConfigMapError, nil, "failed to get configmap %s/%s", s.namespace, s.name)
	}

	if cm.Data == nil {
		cm.Data = map[string]string{}
	}

	cm.Data[s.dataKey] = string(data)

	_, err = configMaps.Update(ctx, cm, metav1.UpdateOptions{})
	if err != nil {
		return common.NewErrProcessingError(err, categoryConfigMapError, nil, "failed to update configmap %s/%s", s.namespace, s.name)
	}

	return nil
}
