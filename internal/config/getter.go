package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const prefix = "OUTAGENOTIFIER"

var conf Config

// Parse reads the configuration file given as parameter.
func Parse(confFile string) (*Config, error) {
	setDefault()

	viper.SetEnvPrefix(prefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if len(confFile) > 0 {
		viper.SetConfigFile(confFile)

		err := viper.ReadInConfig()
		if err != nil {
			return &conf, fmt.Errorf("failed to read config file %v: %w", confFile, err)
		}
	}

	err := viper.Unmarshal(&conf)
	if err != nil {
		return &conf, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	conf.Regions = normalizeRegions(conf.Regions)

	err = conf.validate()
	if err != nil {
		return &conf, fmt.Errorf("invalid config: %w", err)
	}

	return &conf, nil
}

// ProviderConfig returns the outage API configuration.
func ProviderConfig() Provider {
	return conf.Provider
}

// normalizeRegions trims every region id and drops empty and repeated ones, keeping the first occurrence order.
func normalizeRegions(regions []string) []string {
	ret := make([]string, 0, len(regions))

	for _, region := range regions {
		region = strings.TrimSpace(region)
		if region == "" || slices.Contains(ret, region) {
			continue
		}

		ret = append(ret, region)
	}

	return ret
}

func (c Config) validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one region is required")
	}

	switch c.State.Backend {
	case StateBackendFile, StateBackendS3, StateBackendValkey, StateBackendPostgres, StateBackendConfigMap:
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}

	switch c.Notify.Mode {
	case NotifyModeBatch, NotifyModeEvent:
	default:
		return fmt.Errorf("unknown notify mode %q", c.Notify.Mode)
	}

	return nil
}

func setDefault() {
	viper.SetDefault("logs.level", 0)
	viper.SetDefault("logs.encoder", EncoderTypeConsole)
	viper.SetDefault("metrics.port", 7777)
	viper.SetDefault("gracefulDuration", "10s")

	viper.SetDefault("run.timeout", "2m")
	viper.SetDefault("run.concurrency", 4)

	viper.SetDefault("regions", []string{"0205"})

	viper.SetDefault("provider.baseURL", "https://apps.deddie.gr/gr.deddie.pfr-2.1/rest/powercutreport/getPowerOutagesperNE")
	viper.SetDefault("provider.timeout", "20s")
	viper.SetDefault("provider.userAgent", "deddie-powercuts-monitor/2.1")
	viper.SetDefault("provider.retry.attempts", 5)
	viper.SetDefault("provider.retry.delay", "600ms")
	viper.SetDefault("provider.retry.maxDelay", "10s")

	viper.SetDefault("state.backend", StateBackendFile)
	viper.SetDefault("state.file.path", "state.json")
	viper.SetDefault("state.s3.key", "outage-notifier/state.json")
	viper.SetDefault("state.valkey.key", "outage-notifier:state")
	viper.SetDefault("state.postgres.table", "outage_snapshots")
	viper.SetDefault("state.configmap.name", "outage-notifier-state")
	viper.SetDefault("state.configmap.dataKey", "state.json")

	viper.SetDefault("reports.prefix", "outage-notifier/reports")

	viper.SetDefault("notify.mode", NotifyModeBatch)
	viper.SetDefault("notify.timezone", "Europe/Athens")
	viper.SetDefault("notify.retry.attempts", 3)
	viper.SetDefault("notify.retry.delay", "1s")
	viper.SetDefault("notify.email.host", "smtp.gmail.com")
	viper.SetDefault("notify.email.port", 587)
	viper.SetDefault("notify.email.timeout", "20s")
	viper.SetDefault("notify.teams.timeout", "10s")
	viper.SetDefault("notify.kafka.broker.version", "3.6.0")
	viper.SetDefault("notify.kafka.broker.creds.mechanism", "SCRAM-SHA-512")
	viper.SetDefault("notify.nats.subject", "outages.changes")

	viper.SetDefault("trigger.port", 8080)
	viper.SetDefault("trigger.github.apiURL", "https://api.github.com")
	viper.SetDefault("trigger.github.ref", "main")
}
