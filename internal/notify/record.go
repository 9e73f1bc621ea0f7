package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

// Record is the machine readable form of one change event, as published on brokers.
type Record struct {
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
	entity.ChangeEvent
}

func marshalRecord(message Message, event entity.ChangeEvent) ([]byte, error) {
	ret, err := json.Marshal(Record{
		MessageID:   message.ID,
		SentAt:      message.CreatedAt,
		ChangeEvent: event,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record %s: %w", event.Key(), err)
	}

	return ret, nil
}
