package snapshot

import (
	"context"
	"errors"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/valkey-io/valkey-go"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

const categoryValkeyClientError = "valkey_client"

// ValkeyStore keeps the snapshot document under a single key.
type ValkeyStore struct {
	client valkey.Client
	key    string
	clock  clockwork.Clock
}

func NewValkeyStore(client valkey.Client, key string, clock clockwork.Clock) ValkeyStore {
	return ValkeyStore{
		client: client,
		key:    key,
		clock:  clock,
	}
}

func (s ValkeyStore) Load(ctx context.Context) (entity.Snapshot, error) {
	command := s.client.B().Get().Key(s.key).Build()

	data, err := s.client.Do(ctx, command).AsBytes()
	if err != nil {
		switch {
		case valkey.IsValkeyNil(err):
			return entity.Snapshot{}, nil
		case s.isRetryable(err):
			return nil, common.NewRetryableErrProcessingError(err, categoryValkeyClientError, nil, "failed to get %s", s.key)
		default:
			return nil, common.NewErrProcessingError(err, categoryValkeyClientError, nil, "failed to get %s", s.key)
		}
	}

	return Decode(data)
}

func (s ValkeyStore) Save(ctx context.Context, snapshot entity.Snapshot) error {
	data, err := Encode(snapshot, s.clock.Now())
	if err != nil {
		return err
	}

	command := s.client.B().Set().Key(s.key).Value(valkey.BinaryString(data)).Build()

	err = s.client.Do(ctx, command).Error()
	if err != nil {
		switch {
		case s.isRetryable(err):
			return common.NewRetryableErrProcessingError(err, categoryValkeyClientError, nil, "failed to set %s", s.key)
		default:
			return common.NewErrProcessingError(err, categoryValkeyClientError, nil, "failed to set %s", s.key)
		}
	}

	return nil
}

func (s ValkeyStore) isRetryable(err error) bool {
	// Network error
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	vErr, isValkeyError := valkey.IsValkeyErr(err)
	if !isValkeyError {
		return false
	}

	return vErr.IsTryAgain()
}
