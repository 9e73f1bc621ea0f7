package pipeline_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

var _ = Describe("Testing periodic Runner", func() {
	var clock clockwork.FakeClock
	var calls atomic.Int32
	var runner pipeline.Runner[time.Time]

	BeforeEach(func() {
		calls.Store(0)
		clock = clockwork.NewFakeClock()

		proc := pipeline.ProcessingFunc[time.Time](func(context.Context, time.Time) error {
			calls.Add(1)

			return errSend
		})

		runner = pipeline.NewRunner[time.Time](proc, time.Minute, clock, func(now time.Time) time.Time { return now })
	})

	It("should run immediately, on every tick, and stop with the context", func(ctx SpecContext) {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)

		go func() {
			done <- runner.Start(runCtx)
		}()

		Eventually(calls.Load).Should(BeEquivalentTo(1), "first run does not wait for the interval")

		clock.BlockUntil(1)
		clock.Advance(time.Minute)
		Eventually(calls.Load).Should(BeEquivalentTo(2), "failing run does not stop the runner")

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})
})
