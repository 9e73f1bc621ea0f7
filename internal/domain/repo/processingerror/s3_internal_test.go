package processingerror

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

func TestComputeObjectKey(t *testing.T) {
	repo := S3Writer{prefix: "reports"}

	testcases := []struct {
		category string
		ts       time.Time
		expect   string
	}{
		{
			category: "data_integrity",
			ts:       time.Unix(1741014594, 0).UTC(),
			expect:   "reports/2025/03/03/data_integrity/abcdef.json",
		},
		{
			category: "",
			ts:       time.Unix(1741014594, 0).UTC(),
			expect:   "reports/2025/03/03/empty-category/abcdef.json",
		},
	}
	for _, tc := range testcases {
		obj := ProcessingError{
			ProcessingContext: ProcessingContext{Time: tc.ts},
			Reason:            Reason{Category: tc.category},
		}

		assert.Equal(t, tc.expect, repo.computeObjectKey(obj, "abcdef"))
	}
}

func TestCreateProcessingError(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1741014594, 0))
	repo := S3Writer{hostname: "host", clock: clock}

	pErr := pipeline.NewErrProcessingError(errors.New("duplicate"), "data_integrity", []pipeline.Input{
		{Source: "snapshot", Key: "0205:1", Value: []byte(`{}`)},
		{Source: "run", Key: "run-1"},
		{Source: "region", Key: "0205"},
	})

	res := repo.createProcessingError(pErr)

	assert.Equal(t, "host", res.ProcessingContext.Host)
	assert.Equal(t, "run-1", res.ProcessingContext.RunID)
	assert.Equal(t, "0205", res.ProcessingContext.Region)
	assert.True(t, res.ProcessingContext.Time.Equal(clock.Now()))
	assert.Equal(t, Reason{Category: "data_integrity", Error: "duplicate"}, res.Reason)
	assert.Equal(t, []KeyValue{{Source: "snapshot", Key: "0205:1", Value: []byte(`{}`)}}, res.Sources.Additional)
}

func TestCreateProcessingErrorRetryable(t *testing.T) {
	repo := S3Writer{hostname: "host", clock: clockwork.NewFakeClock()}

	res := repo.createProcessingError(pipeline.NewRetryableErrProcessingError(errors.New("timeout"), "provider_transient", nil))

	assert.True(t, res.Reason.Retryable)
	assert.Equal(t, "provider_transient", res.Reason.Category)
	assert.Empty(t, res.ProcessingContext.RunID)
}
