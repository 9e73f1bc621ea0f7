package notify

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/gridwatch/outage-notifier/internal/common"
)

// Publisher is implemented by *nats.Conn.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATS publishes each event on <subject>.<region>.<kind>. Test messages are not published.
type NATS struct {
	publisher Publisher
	subject   string
}

func NewNATS(publisher Publisher, subject string) NATS {
	return NATS{
		publisher: publisher,
		subject:   subject,
	}
}

func (n NATS) Process(_ context.Context, message Message) error {
	if message.Test {
		return nil
	}

	for _, event := range message.Events {
		data, err := marshalRecord(message, event)
		if err != nil {
			return common.NewErrProcessingError(err, CategoryDelivery, nil, "failed to build nats message")
		}

		header := nats.Header{}
		header.Set(nats.MsgIdHdr, message.ID+"-"+event.Key().String())

		err = n.publisher.PublishMsg(&nats.Msg{
			Subject: fmt.Sprintf("%s.%s.%s", n.subject, event.Region, event.Kind),
			Data:    data,
			Header:  header,
		})
		if err != nil {
			return common.NewRetryableErrProcessingError(err, CategoryDelivery, nil, "failed to publish event %s", event.Key())
		}
	}

	return nil
}
