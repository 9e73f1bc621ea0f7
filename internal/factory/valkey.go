package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/config"
)

// CreateValkeyClient accepts either host:port or a redis:// style url carrying the database and credentials.
func CreateValkeyClient(ctx context.Context, conf config.Valkey) (valkey.Client, common.CloseFunc, error) {
	option := valkey.ClientOption{
		InitAddress: []string{conf.URL},
	}

	if strings.Contains(conf.URL, "://") {
		var err error

		option, err = valkey.ParseURL(conf.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse valkey url: %w", err)
		}
	}

	if conf.Creds.Password != "" {
		option.Password = conf.Creds.Password
	}

	// A single document is read once per run
	option.DisableCache = true

	ret, err := valkey.NewClient(option)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ping := ret.B().Ping().Build()

	err = ret.Do(ctx, ping).Error()
	if err != nil {
		ret.Close()

		return nil, nil, fmt.Errorf("failed to ping valkey: %w", err)
	}

	shutdown := func(context.Context) error {
		ret.Close()

		return nil
	}

	return ret, shutdown, nil
}
