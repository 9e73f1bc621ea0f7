package factory

import (
	"strings"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/outage-notifier/internal/config"
)

func TestCreateSaramaConfig(t *testing.T) {
	type testCase struct {
		name            string
		broker          config.KafkaBroker
		expectError     bool
		expectSASL      bool
		expectMechanism sarama.SASLMechanism
		expectSCRAM     bool
	}

	testCases := []testCase{
		{
			name:   "no sasl",
			broker: config.KafkaBroker{Version: "3.6.0"},
		},
		{
			name:            "scram sha512",
			broker:          config.KafkaBroker{Version: "3.6.0", Creds: config.KafkaCreds{Mechanism: "SCRAM-SHA-512", Username: "alice", Password: "secret"}},
			expectSASL:      true,
			expectMechanism: sarama.SASLTypeSCRAMSHA512,
			expectSCRAM:     true,
		},
		{
			name:            "scram sha256",
			broker:          config.KafkaBroker{Version: "3.6.0", Creds: config.KafkaCreds{Mechanism: "SCRAM-SHA-256", Username: "alice", Password: "secret"}},
			expectSASL:      true,
			expectMechanism: sarama.SASLTypeSCRAMSHA256,
			expectSCRAM:     true,
		},
		{
			name:            "plain",
			broker:          config.KafkaBroker{Version: "3.6.0", Creds: config.KafkaCreds{Mechanism: "PLAIN", Username: "alice", Password: "secret"}},
			expectSASL:      true,
			expectMechanism: sarama.SASLTypePlaintext,
		},
		{
			name:        "unknown mechanism",
			broker:      config.KafkaBroker{Version: "3.6.0", Creds: config.KafkaCreds{Mechanism: "GSSAPI", Username: "alice"}},
			expectError: true,
		},
		{
			name:        "invalid version",
			broker:      config.KafkaBroker{Version: "three"},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			conf, err := createSaramaConfig(tc.broker)
			if tc.expectError {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.True(t, conf.Producer.Return.Successes)
			assert.Equal(t, tc.expectSASL, conf.Net.SASL.Enable)
			assert.Equal(t, tc.expectSCRAM, conf.Net.SASL.SCRAMClientGeneratorFunc != nil)

			if tc.expectSASL {
				assert.Equal(t, tc.expectMechanism, conf.Net.SASL.Mechanism)
			}
		})
	}
}

func TestSCRAMClientFirstMessage(t *testing.T) {
	conf, err := createSaramaConfig(config.KafkaBroker{Version: "3.6.0", Creds: config.KafkaCreds{Mechanism: "SCRAM-SHA-512", Username: "alice", Password: "secret"}})
	require.NoError(t, err)

	client := conf.Net.SASL.SCRAMClientGeneratorFunc()
	require.NoError(t, client.Begin("alice", "secret", ""))

	first, err := client.Step("")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "n,,n=alice,r="), first)
	assert.False(t, client.Done())
}
