package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/diff"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
	"github.com/gridwatch/outage-notifier/internal/fetcher"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

const samplePayload = `[
  {
    "id": 100,
    "is_active": true,
    "is_scheduled": false,
    "cause": "OUTAGE",
    "creator": "ΔΕΔΔΗΕ",
    "start_date": 1770969600000,
    "end_date": 1770980400000,
    "lektikoGenikonDiakoponList": [{"text": "  ΧΟΛΑΡΓΟΣ   Κέντρο "}, {"text": "1234"}],
    "kallikratikosOTAList": [{"kallikratikos_ota": "ΑΓΙΑ ΠΑΡΑΣΚΕΥΗ"}, "ΧΟΛΑΡΓΟΣ Κέντρο"],
    "kallikratikiNomarxiaList": [{"peri": "Νομός Αττικής"}]
  },
  {
    "id": "100",
    "is_active": true,
    "cause": "OUTAGE",
    "creator": "ΔΕΔΔΗΕ",
    "start_date": 1770969600000,
    "end_date": 1770984000000,
    "exyphretoumeniPerioxiList": [{"perioxhName": "ΧΟΛΑΡΓΟΣ"}]
  },
  {
    "id": 200,
    "is_scheduled": true,
    "exyphretoumeniDhmEnothtaList": ["ΜΑΡΟΥΣΙ"]
  },
  {
    "id": 300,
    "is_active": false,
    "lektikoGenikonDiakoponList": []
  },
  "not an object"
]`

// Helper

func newClient(url string) fetcher.Client {
	return fetcher.NewClient(config.Provider{
		BaseURL:   url + "/rest/powercutreport/getPowerOutagesperNE",
		Timeout:   time.Second,
		UserAgent: "test-agent",
		Retry: config.Retry{
			Attempts: 3,
			Delay:    time.Millisecond,
			MaxDelay: 5 * time.Millisecond,
		},
	})
}

func serve(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	calls := &atomic.Int32{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return server, calls
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}
}

// Test

func TestFetchParsesPayload(t *testing.T) {
	t.Parallel()

	server, calls := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0205", r.URL.Query().Get("nomarxiaki_enothta_id"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload)) //nolint:errcheck
	})

	res, err := newClient(server.URL).Fetch(context.Background(), "0205")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	require.Len(t, res, 2, "duplicates are merged and records without area skipped")

	// The second record of 100 announces a later restoration and wins
	first := res[0]
	assert.Equal(t, entity.IncidentID(100), first.ID)
	assert.Equal(t, entity.RegionID("0205"), first.RegionID)
	assert.Equal(t, entity.StatusActive, first.Status)
	assert.Equal(t, entity.TypeEmergency, first.Type)
	assert.Equal(t, "ΔΕΔΔΗΕ", first.CreatedBy)
	assert.Equal(t, []string{"ΧΟΛΑΡΓΟΣ"}, first.AffectedAreas)
	assert.Empty(t, first.Nomos)
	require.NotNil(t, first.ETAEstimated)
	assert.Equal(t, time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC), *first.ETAEstimated)
	assert.Nil(t, first.ETAAnnounced)

	second := res[1]
	assert.Equal(t, entity.IncidentID(200), second.ID)
	assert.Equal(t, entity.StatusUnknown, second.Status)
	assert.Equal(t, entity.TypeScheduled, second.Type)
	assert.Equal(t, "Unknown", second.CreatedBy)
	assert.Equal(t, []string{"ΜΑΡΟΥΣΙ"}, second.AffectedAreas)
	assert.Nil(t, second.StartTime)
}

func TestFetchExtractsAreasAndNomos(t *testing.T) {
	t.Parallel()

	server, _ := serve(t, respond(http.StatusOK, `[{
		"id": 1,
		"lektikoGenikonDiakoponList": [{"text": "  ΧΟΛΑΡΓΟΣ   Κέντρο "}, {"text": "1234"}],
		"kallikratikosOTAList": [{"kallikratikos_ota": "ΑΓΙΑ ΠΑΡΑΣΚΕΥΗ"}, "ΧΟΛΑΡΓΟΣ Κέντρο"],
		"kallikratikiNomarxiaList": [{"id": "12"}, {"peri": "Νομός Αττικής"}]
	}]`))

	res, err := newClient(server.URL).Fetch(context.Background(), "0205")
	require.NoError(t, err)
	require.Len(t, res, 1)

	assert.Equal(t, []string{"ΑΓΙΑ ΠΑΡΑΣΚΕΥΗ", "ΧΟΛΑΡΓΟΣ Κέντρο"}, res[0].AffectedAreas)
	assert.Equal(t, "Νομός Αττικής", res[0].Nomos)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable} {
		var (
			server *httptest.Server
			calls  *atomic.Int32
		)

		server, calls = serve(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Load() < 3 {
				respond(status, "busy")(w, r)

				return
			}

			respond(http.StatusOK, `[{"id": 1, "lektikoGenikonDiakoponList": ["A"]}]`)(w, r)
		})

		res, err := newClient(server.URL).Fetch(context.Background(), "0205")
		require.NoError(t, err, "status %d", status)
		assert.Len(t, res, 1)
		assert.EqualValues(t, 3, calls.Load(), "status %d", status)
	}
}

func TestFetchTransientExhausted(t *testing.T) {
	t.Parallel()

	server, calls := serve(t, respond(http.StatusServiceUnavailable, "down"))

	_, err := newClient(server.URL).Fetch(context.Background(), "0101")
	require.ErrorIs(t, err, fetcher.ErrTransient)
	assert.NotErrorIs(t, err, fetcher.ErrPermanent)
	assert.EqualValues(t, 3, calls.Load())

	assert.Equal(t, fetcher.CategoryTransient, pipeline.AsProcessingError(err).Category)
}

func TestFetchNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newClient(url).Fetch(context.Background(), "0101")
	require.ErrorIs(t, err, fetcher.ErrTransient)
}

func TestFetchPermanentFailures(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "not found", handler: respond(http.StatusNotFound, "nope")},
		{name: "unauthorized", handler: respond(http.StatusUnauthorized, "")},
		{name: "malformed json", handler: respond(http.StatusOK, `[{"id": 1,`)},
		{name: "not a list", handler: respond(http.StatusOK, `{"id": 1}`)},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server, calls := serve(t, tc.handler)

			_, err := newClient(server.URL).Fetch(context.Background(), "0205")
			require.ErrorIs(t, err, fetcher.ErrPermanent)
			assert.EqualValues(t, 1, calls.Load(), "permanent errors are not retried")
			assert.Equal(t, fetcher.CategoryPermanent, pipeline.AsProcessingError(err).Category)
		})
	}
}

func TestFetchCancelledRun(t *testing.T) {
	t.Parallel()

	server, _ := serve(t, respond(http.StatusServiceUnavailable, "down"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(server.URL).Fetch(ctx, "0205")
	require.ErrorIs(t, err, fetcher.ErrPermanent)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchRecordWithoutID(t *testing.T) {
	t.Parallel()

	server, _ := serve(t, respond(http.StatusOK, `[{"id": 1, "lektikoGenikonDiakoponList": ["A"]}, {"lektikoGenikonDiakoponList": ["B"]}]`))

	_, err := newClient(server.URL).Fetch(context.Background(), "0205")
	require.ErrorIs(t, err, diff.ErrDataIntegrity)

	pErr := pipeline.AsProcessingError(err)
	assert.Equal(t, diff.CategoryDataIntegrity, pErr.Category)
	require.Len(t, pErr.AdditionalInputs, 1)
	assert.Equal(t, "0205[1]", pErr.AdditionalInputs[0].Key)
}

func TestFetchEmptyList(t *testing.T) {
	t.Parallel()

	server, _ := serve(t, respond(http.StatusOK, `[]`))

	res, err := newClient(server.URL).Fetch(context.Background(), "0205")
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NotNil(t, res, "an empty listing is not a missing one")
}
