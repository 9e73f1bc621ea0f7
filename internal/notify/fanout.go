package notify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

type Transport struct {
	Name       string
	Processing pipeline.Processing[Message]
}

// Fanout hands a message to every transport at once. A failing transport does not cancel the others.
type Fanout struct {
	transports []Transport
}

func NewFanout(transports ...Transport) Fanout {
	return Fanout{
		transports: transports,
	}
}

func (f Fanout) Len() int {
	return len(f.transports)
}

func (f Fanout) Names() []string {
	ret := make([]string, 0, len(f.transports))
	for _, t := range f.transports {
		ret = append(ret, t.Name)
	}

	return ret
}

func (f Fanout) Process(ctx context.Context, message Message) error {
	group := errgroup.Group{}
	errs := make([]error, len(f.transports))

	for i, t := range f.transports {
		group.Go(func() error {
			err := t.Processing.Process(ctx, message)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", t.Name, err)
			}

			return nil
		})
	}

	_ = group.Wait()

	return errors.Join(errs...)
}
