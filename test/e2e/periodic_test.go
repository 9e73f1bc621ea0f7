package e2e_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	promdto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/gridwatch/outage-notifier/test/e2e"
)

// Helper

func getMetricFamily(metrics string, name string) (*promdto.MetricFamily, error) {
	parser := expfmt.TextParser{}

	metricFamilies, err := parser.TextToMetricFamilies(strings.NewReader(metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}

	for _, metricFamily := range metricFamilies {
		if metricFamily == nil || metricFamily.Name == nil {
			continue
		}

		if *metricFamily.Name == name {
			return metricFamily, nil
		}
	}

	return nil, errors.New("not found")
}

func sumCounter(family *promdto.MetricFamily, label string, value string) float64 {
	ret := 0.0

	for _, metric := range family.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				ret += metric.GetCounter().GetValue()
			}
		}
	}

	return ret
}

// Test Case

var _ = Describe("Running the notifier periodically", func() {
	var testContext *e2e.TestContext
	var command *e2e.Background
	var metricsPort int

	var ctx context.Context

	BeforeEach(func() {
		var err error
		ctx = context.TODO()

		testContext = e2e.CreateTestContext(binary, GinkgoT().TempDir())
		DeferCleanup(testContext.Close)

		metricsPort, err = e2e.FreePort()
		Expect(err).NotTo(HaveOccurred())

		confPath, err := testContext.WriteConfig([]string{"0205"}, metricsPort)
		Expect(err).NotTo(HaveOccurred())

		testContext.SetPayload("0205", kifisia)

		command, err = testContext.Start(confPath, "--interval", "500ms", "--force-notify")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := command.Stop()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should notify new incidents once and expose delivery metrics", func() {
		Eventually(testContext.Cards).WithTimeout(10 * time.Second).Should(HaveLen(1))

		testContext.SetPayload("0205", "[]")

		Eventually(testContext.Cards).WithTimeout(10 * time.Second).Should(HaveLen(2))
		Consistently(testContext.Cards).WithTimeout(2 * time.Second).Should(HaveLen(2))

		metrics, err := e2e.HttpGet(ctx, fmt.Sprintf("http://127.0.0.1:%d/metrics", metricsPort))
		Expect(err).NotTo(HaveOccurred())

		family, err := getMetricFamily(metrics, "outage_notifier_notify_messages_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(sumCounter(family, "outcome", "delivered")).To(Equal(2.0))
		Expect(sumCounter(family, "outcome", "failed")).To(Equal(0.0))

		family, err = getMetricFamily(metrics, "outage_notifier_notify_events_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(sumCounter(family, "kind", "created")).To(Equal(1.0))
		Expect(sumCounter(family, "kind", "resolved")).To(Equal(1.0))
	})
})
