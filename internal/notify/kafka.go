package notify

import (
	"context"

	"github.com/IBM/sarama"

	"github.com/gridwatch/outage-notifier/internal/common"
)

// Kafka produces one record per event, keyed by incident. Test messages are not produced.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafka(producer sarama.SyncProducer, topic string) Kafka {
	return Kafka{
		producer: producer,
		topic:    topic,
	}
}

func (k Kafka) Process(_ context.Context, message Message) error {
	if message.Test || len(message.Events) == 0 {
		return nil
	}

	records := make([]*sarama.ProducerMessage, 0, len(message.Events))

	for _, event := range message.Events {
		value, err := marshalRecord(message, event)
		if err != nil {
			return common.NewErrProcessingError(err, CategoryDelivery, nil, "failed to build kafka record")
		}

		records = append(records, &sarama.ProducerMessage{
			Topic: k.topic,
			Key:   sarama.StringEncoder(event.Key().String()),
			Value: sarama.ByteEncoder(value),
			Headers: []sarama.RecordHeader{
				{Key: []byte("message_id"), Value: []byte(message.ID)},
				{Key: []byte("kind"), Value: []byte(event.Kind)},
			},
		})
	}

	err := k.producer.SendMessages(records)
	if err != nil {
		return common.NewRetryableErrProcessingError(err, CategoryDelivery, nil, "failed to produce %d records", len(records))
	}

	return nil
}
