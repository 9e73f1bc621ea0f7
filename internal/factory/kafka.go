package factory

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/config"
)

func CreateKafkaProducer(kafkaConfig config.Kafka) (sarama.SyncProducer, common.CloseFunc, error) {
	conf, err := createSaramaConfig(kafkaConfig.Broker)
	if err != nil {
		return nil, nil, err
	}

	// Kafka URLs
	urls := strings.Split(kafkaConfig.Broker.URLs, ",")

	ret, err := sarama.NewSyncProducer(urls, conf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	shutdown := func(context.Context) error {
		return ret.Close()
	}

	return ret, shutdown, nil
}

func createSaramaConfig(broker config.KafkaBroker) (*sarama.Config, error) {
	conf := sarama.NewConfig()

	// mandatory configuration for sync producers
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true
	conf.Producer.RequiredAcks = sarama.WaitForAll

	// clientID
	conf.ClientID = computeClientID("outage-notifier")

	// kafka version
	version, err := sarama.ParseKafkaVersion(broker.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kafka version: %w", err)
	}

	conf.Version = version

	conf.Net.TLS.Enable = broker.TLS

	// SASL
	if broker.Creds.Username == "" {
		return conf, nil
	}

	conf.Net.SASL.Enable = true
	conf.Net.SASL.User = broker.Creds.Username
	conf.Net.SASL.Password = broker.Creds.Password
	conf.Net.SASL.Mechanism = sarama.SASLMechanism(broker.Creds.Mechanism)

	switch conf.Net.SASL.Mechanism {
	case sarama.SASLTypeSCRAMSHA512:
		conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &SCRAMClient{HashGeneratorFcn: sha512.New}
		}
	case sarama.SASLTypeSCRAMSHA256:
		conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &SCRAMClient{HashGeneratorFcn: sha256.New}
		}
	case sarama.SASLTypePlaintext:
	default:
		return nil, fmt.Errorf("unsupported sasl mechanism %q", broker.Creds.Mechanism)
	}

	return conf, nil
}

// SCRAMClient implements sarama.SCRAMClient on top of xdg-go/scram.
type SCRAMClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

func (c *SCRAMClient) Begin(userName, password, authzID string) error {
	client, err := c.HashGeneratorFcn.NewClient(userName, password, authzID)
	if err != nil {
		return fmt.Errorf("failed to create scram client: %w", err)
	}

	c.Client = client
	c.ClientConversation = client.NewConversation()

	return nil
}

func (c *SCRAMClient) Step(challenge string) (string, error) {
	return c.ClientConversation.Step(challenge)
}

func (c *SCRAMClient) Done() bool {
	return c.ClientConversation.Done()
}

func computeClientID(prefix string) string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = prefix
	}

	return fmt.Sprintf("%s-%x", hostname, rand.Int31())
}
