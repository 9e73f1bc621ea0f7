package notify

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

// Dispatcher renders the events of a run and delivers the resulting messages.
//
// Without transport, messages are only logged and count as delivered.
type Dispatcher struct {
	renderer  Renderer
	transport pipeline.Processing[Message]
	mode      config.NotifyMode

	logger *logr.Logger
}

func NewDispatcher(renderer Renderer, transport pipeline.Processing[Message], mode config.NotifyMode) Dispatcher {
	return Dispatcher{
		renderer:  renderer,
		transport: transport,
		mode:      mode,
	}
}

func (d Dispatcher) WithLogger(logger logr.Logger) Dispatcher {
	d.logger = &logger

	return d
}

// Dispatch delivers events, or a test message listing current when force is set and nothing changed.
// It returns one result per message; the error is only set when messages could not be rendered.
func (d Dispatcher) Dispatch(ctx context.Context, events []entity.ChangeEvent, current []entity.Incident, force bool) ([]Result, error) {
	messages, err := d.render(events, current, force)
	if err != nil {
		return nil, err
	}

	ret := make([]Result, 0, len(messages))

	for _, message := range messages {
		ret = append(ret, Result{
			Message: message,
			Err:     d.deliver(ctx, message),
		})
	}

	return ret, nil
}

func (d Dispatcher) render(events []entity.ChangeEvent, current []entity.Incident, force bool) ([]Message, error) {
	if len(events) == 0 {
		if !force {
			return nil, nil
		}

		message, err := d.renderer.Test(current)
		if err != nil {
			return nil, fmt.Errorf("failed to render test message: %w", err)
		}

		return []Message{message}, nil
	}

	if d.mode == config.NotifyModeEvent {
		ret := make([]Message, 0, len(events))

		for _, event := range events {
			message, err := d.renderer.Event(event)
			if err != nil {
				return nil, fmt.Errorf("failed to render message for %s: %w", event.Key(), err)
			}

			ret = append(ret, message)
		}

		return ret, nil
	}

	message, err := d.renderer.Batch(events, current)
	if err != nil {
		return nil, fmt.Errorf("failed to render batch message: %w", err)
	}

	return []Message{message}, nil
}

func (d Dispatcher) deliver(ctx context.Context, message Message) error {
	if d.transport == nil {
		d.logInfo(0, "No transport configured, message not sent", "subject", message.Subject, "events", len(message.Events), "text", message.Text)

		return nil
	}

	err := d.transport.Process(ctx, message)
	if err != nil {
		d.logError(err, "Failed to deliver message", "id", message.ID, "subject", message.Subject, "events", len(message.Events))

		return err
	}

	d.logInfo(1, "Message delivered", "id", message.ID, "subject", message.Subject, "events", len(message.Events), "test", message.Test)

	return nil
}

func (d Dispatcher) logInfo(level int, msg string, keysAndValues ...any) {
	if d.logger == nil {
		return
	}

	d.logger.V(level).Info(msg, keysAndValues...)
}

func (d Dispatcher) logError(err error, msg string, keysAndValues ...any) {
	if d.logger == nil {
		return
	}

	d.logger.Error(err, msg, keysAndValues...)
}
