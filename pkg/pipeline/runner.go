package pipeline

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
)

// Runner calls a processing immediately and then on every tick of interval, until the context is done.
type Runner[Payload any] struct {
	processing Processing[Payload]
	interval   time.Duration
	clock      clockwork.Clock

	newPayload func(time.Time) Payload

	logger *logr.Logger
}

func NewRunner[Payload any](processing Processing[Payload], interval time.Duration, clock clockwork.Clock, newPayload func(time.Time) Payload) Runner[Payload] {
	return Runner[Payload]{
		processing: processing,
		interval:   interval,
		clock:      clock,
		newPayload: newPayload,
	}
}

func (r Runner[Payload]) WithLogger(logger logr.Logger) Runner[Payload] {
	r.logger = &logger

	return r
}

// Start blocks until ctx is done. A failing tick is logged and does not stop the runner.
func (r Runner[Payload]) Start(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx, r.clock.Now())

	for {
		select {
		case <-ctx.Done():
			r.logInfo(0, "Context expired")

			return ctx.Err()
		case now := <-ticker.Chan():
			r.tick(ctx, now)
		}
	}
}

func (r Runner[Payload]) tick(ctx context.Context, now time.Time) {
	r.logInfo(2, "Tick", "time", now)

	err := r.processing.Process(ctx, r.newPayload(now))
	if err != nil {
		r.logError(err, "Processing failed")
	}
}

func (r Runner[Payload]) logInfo(level int, msg string, keysAndValues ...any) {
	if r.logger == nil {
		return
	}

	r.logger.V(level).Info(msg, keysAndValues...)
}

func (r Runner[Payload]) logError(err error, msg string, keysAndValues ...any) {
	if r.logger == nil {
		return
	}

	r.logger.Error(err, msg, keysAndValues...)
}
