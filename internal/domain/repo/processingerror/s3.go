package processingerror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/gridwatch/outage-notifier/internal/domain/repo"
	"github.com/gridwatch/outage-notifier/internal/log"
	"github.com/gridwatch/outage-notifier/internal/version"
	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

const (
	unknownHostname = "<unknown>"
	emptyCategory   = "empty-category"

	keyTemplate = "<prefix>/<year>/<month>/<day>/<category>/<id>.json"
)

type S3Writer struct {
	s3client *s3.Client

	bucket string
	prefix string

	hostname string
	clock    clockwork.Clock
}

func NewS3Writer(s3client *s3.Client, bucket string, prefix string, clock clockwork.Clock) S3Writer {
	hostname, err := os.Hostname()
	if err != nil {
		log.Logger().Error(err, "failed to get hostname, falling backing to "+unknownHostname)

		hostname = unknownHostname
	}

	return S3Writer{
		s3client: s3client,
		bucket:   bucket,
		prefix:   prefix,
		hostname: hostname,
		clock:    clock,
	}
}

func (r S3Writer) WriteProcessingError(ctx context.Context, pErr pipeline.ErrProcessingError) error {
	// Create ProcessingError
	obj := r.createProcessingError(pErr)

	// Marshal ProcessingError
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal local model: %w", err)
	}

	// Compute object key
	key := r.computeObjectKey(obj, uuid.NewString())

	// Write file
	params := &s3.PutObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
		Body:   bytes.NewReader(b),
	}

	_, err = r.s3client.PutObject(ctx, params)
	if err != nil {
		return pipeline.NewErrRetryableError(fmt.Errorf("failed to write in s3: %w", err))
	}

	return nil
}

func (r S3Writer) createProcessingError(pErr pipeline.ErrProcessingError) ProcessingError {
	ret := ProcessingError{
		ProcessingContext: ProcessingContext{
			Component: Component{
				Branch:   version.Branch,
				Revision: version.Revision,
			},
			Time: r.clock.Now().UTC(),
			Host: r.hostname,
		},
		Sources: Sources{
			Additional: make([]KeyValue, 0, len(pErr.AdditionalInputs)),
		},
		Reason: Reason{
			Category:  pErr.Category,
			Error:     pErr.Error(),
			Retryable: errors.Is(pErr, pipeline.ErrRetryableError),
		},
	}

	for _, kv := range pErr.AdditionalInputs {
		switch kv.Source {
		case repo.RunInputSource:
			ret.ProcessingContext.RunID = kv.Key

			continue
		case repo.RegionInputSource:
			ret.ProcessingContext.Region = kv.Key

			continue
		}

		ret.Sources.Additional = append(ret.Sources.Additional, KeyValue{
			Source: kv.Source,
			Key:    kv.Key,
			Value:  kv.Value,
		})
	}

	return ret
}

func (r S3Writer) computeObjectKey(obj ProcessingError, id string) string {
	category := obj.Reason.Category
	if category == "" {
		category = emptyCategory
	}

	timestamp := obj.ProcessingContext.Time

	template := strings.NewReplacer(
		"<prefix>", r.prefix,
		"<year>", fmt.Sprintf("%04d", timestamp.Year()),
		"<month>", fmt.Sprintf("%02d", timestamp.Month()),
		"<day>", fmt.Sprintf("%02d", timestamp.Day()),
		"<category>", category,
		"<id>", id,
	)

	return template.Replace(keyTemplate)
}
