// Package notify renders change events into messages and hands them to the configured transports.
package notify

import (
	"errors"
	"time"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

const CategoryDelivery = "notification_delivery"

var ErrDelivery = errors.New("notification delivery error")

type Message struct {
	ID        string
	Subject   string
	Text      string
	HTML      string
	Events    []entity.ChangeEvent
	CreatedAt time.Time

	// Test messages carry no event and are sent on demand when nothing changed.
	Test bool
}

// Result of the delivery of one message to every transport.
type Result struct {
	Message Message
	Err     error
}

func (r Result) Delivered() bool {
	return r.Err == nil
}

// Undelivered returns the events of every failed, non test, message.
func Undelivered(results []Result) []entity.ChangeEvent {
	var ret []entity.ChangeEvent

	for _, r := range results {
		if r.Delivered() || r.Message.Test {
			continue
		}

		ret = append(ret, r.Message.Events...)
	}

	return ret
}
