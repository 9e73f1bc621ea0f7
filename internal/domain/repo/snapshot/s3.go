package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jonboulle/clockwork"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

const categoryS3Error = "snapshot_s3"

// S3Store keeps the snapshot in a single object, replaced as a whole on every save.
type S3Store struct {
	s3client *s3.Client

	bucket string
	key    string

	clock clockwork.Clock
}

func NewS3Store(s3client *s3.Client, bucket string, key string, clock clockwork.Clock) S3Store {
	return S3Store{
		s3client: s3client,
		bucket:   bucket,
		key:      key,
		clock:    clock,
	}
}

func (s S3Store) Load(ctx context.Context) (entity.Snapshot, error) {
	params := &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &s.key,
	}

	out, err := s.s3client.GetObject(ctx, params)
	if err != nil {
		if isNotFound(err) {
			return entity.Snapshot{}, nil
		}

		return nil, common.NewErrProcessingError(err, categoryS3Error, nil, "failed to get s3://%s/%s", s.bucket, s.key)
	}

	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, common.NewErrProcessingError(err, categoryS3Error, nil, "failed to read s3://%s/%s", s.bucket, s.key)
	}

	return Decode(data)
}

func (s S3Store) Save(ctx context.Context, snapshot entity.Snapshot) error {
	data, err := Encode(snapshot, s.clock.Now())
	if err != nil {
		return err
	}

	params := &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &s.key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}

	_, err = s.s3client.PutObject(ctx, params)
	if err != nil {
		return common.NewErrProcessingError(err, categoryS3Error, nil, "failed to write s3://%s/%s", s.bucket, s.key)
	}

	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey"
	}

	return false
}
