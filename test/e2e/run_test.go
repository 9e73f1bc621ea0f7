package e2e_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/test/e2e"
)

const (
	kifisia = `[
  {
    "id": 4101,
    "is_active": true,
    "cause": "OUTAGE",
    "creator": "ΔΕΔΔΗΕ",
    "start_date": 1770969600000,
    "end_date": 1770980400000,
    "lektikoGenikonDiakoponList": [{"text": "ΚΗΦΙΣΙΑ Κεφαλάρι"}]
  }
]`

	kifisiaExtended = `[
  {
    "id": 4101,
    "is_active": true,
    "cause": "OUTAGE",
    "creator": "ΔΕΔΔΗΕ",
    "start_date": 1770969600000,
    "end_date": 1770984000000,
    "lektikoGenikonDiakoponList": [{"text": "ΚΗΦΙΣΙΑ Κεφαλάρι"}]
  }
]`

	syros = `[
  {
    "id": 7702,
    "is_active": true,
    "cause": "OUTAGE",
    "creator": "ΔΕΔΔΗΕ",
    "start_date": 1770969600000,
    "lektikoGenikonDiakoponList": [{"text": "ΕΡΜΟΥΠΟΛΗ"}]
  }
]`
)

var _ = Describe("Running the notifier once", func() {
	var testContext *e2e.TestContext
	var confPath string

	var ctx context.Context

	BeforeEach(func() {
		var err error
		ctx = context.TODO()

		testContext = e2e.CreateTestContext(binary, GinkgoT().TempDir())
		DeferCleanup(testContext.Close)

		confPath, err = testContext.WriteConfig([]string{"0205", "0411"}, 0)
		Expect(err).NotTo(HaveOccurred())
	})

	When("the provider reports a new incident", func() {
		BeforeEach(func() {
			testContext.SetPayload("0205", kifisia)

			_, err := testContext.Run(confPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should notify it and save the snapshot", func() {
			cards := testContext.Cards()
			Expect(cards).To(HaveLen(1))
			Expect(cards[0].Title).To(Equal("DEDDIE Power Outage Updates"))
			Expect(cards[0].Text).To(ContainSubstring("ΝΕΕΣ ΔΙΑΚΟΠΕΣ ΔΕΔΔΗΕ"))
			Expect(cards[0].Text).To(ContainSubstring("4101"))

			state, err := testContext.State(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Regions()).To(Equal([]entity.RegionID{"0205", "0411"}))
			Expect(state.Region("0205")).To(HaveLen(1))
			Expect(state.Region("0205")[0].ID).To(Equal(entity.IncidentID(4101)))
			Expect(state.Region("0411")).To(BeEmpty())
		})

		It("should stay silent when nothing changed", func() {
			_, err := testContext.Run(confPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(testContext.Cards()).To(HaveLen(1))
		})

		It("should send a test message when forced", func() {
			_, err := testContext.Run(confPath, "--force-notify")
			Expect(err).NotTo(HaveOccurred())

			cards := testContext.Cards()
			Expect(cards).To(HaveLen(2))
			Expect(cards[1].Title).To(Equal("DEDDIE Power Outage Updates (Test)"))
			Expect(cards[1].Text).To(ContainSubstring("4101"))
		})

		It("should notify updates and restorations", func() {
			testContext.SetPayload("0205", kifisiaExtended)
			testContext.SetPayload("0411", syros)

			_, err := testContext.Run(confPath)
			Expect(err).NotTo(HaveOccurred())

			testContext.SetPayload("0205", "[]")

			_, err = testContext.Run(confPath)
			Expect(err).NotTo(HaveOccurred())

			cards := testContext.Cards()
			Expect(cards).To(HaveLen(3))
			Expect(cards[1].Text).To(ContainSubstring("ΕΝΗΜΕΡΩΣΕΙΣ"))
			Expect(cards[1].Text).To(ContainSubstring("7702"))
			Expect(cards[2].Text).To(ContainSubstring("ΑΠΟΚΑΤΑΣΤΑΣΕΙΣ"))
			Expect(cards[2].Text).To(ContainSubstring("4101"))

			state, err := testContext.State(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Region("0205")).To(BeEmpty())
			Expect(state.Region("0411")).To(HaveLen(1))
		})
	})

	When("a region can not be fetched", func() {
		BeforeEach(func() {
			testContext.SetPayload("0205", kifisia)
			testContext.SetPayload("0411", syros)

			_, err := testContext.Run(confPath)
			Expect(err).NotTo(HaveOccurred())

			testContext.SetPayload("0205", "[]")
			testContext.SetFailing("0411", http.StatusServiceUnavailable)

			_, err = testContext.Run(confPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep its previous incidents and process the others", func() {
			cards := testContext.Cards()
			Expect(cards).To(HaveLen(2))
			Expect(cards[1].Text).To(ContainSubstring("ΑΠΟΚΑΤΑΣΤΑΣΕΙΣ"))
			Expect(cards[1].Text).To(ContainSubstring("4101"))

			state, err := testContext.State(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Region("0205")).To(BeEmpty())
			Expect(state.Region("0411")).To(HaveLen(1))
		})
	})

	When("the provider rejects the request", func() {
		It("should fail without saving", func() {
			testContext.SetFailing("0205", http.StatusBadRequest)

			_, err := testContext.Run(confPath)
			Expect(err).To(HaveOccurred())

			Expect(testContext.Cards()).To(BeEmpty())
			Expect(testContext.StatePath()).NotTo(BeAnExistingFile())
		})
	})
})
