package common

import (
	"fmt"
	"slices"

	"github.com/gridwatch/outage-notifier/pkg/pipeline"
)

func NewErrProcessingError(err error, category string, inputs []pipeline.Input, reason string, args ...interface{}) pipeline.ErrProcessingError {
	cause := fmt.Sprintf(reason, args...)
	dErr := fmt.Errorf("%s: %w", cause, err)

	return pipeline.NewErrProcessingError(dErr, category, inputs)
}

// WithInputs returns err as a processing error carrying inputs after its own.
func WithInputs(err error, inputs ...pipeline.Input) pipeline.ErrProcessingError {
	ret := pipeline.AsProcessingError(err)
	ret.AdditionalInputs = append(slices.Clone(ret.AdditionalInputs), inputs...)

	return ret
}

func NewRetryableErrProcessingError(err error, category string, inputs []pipeline.Input, reason string, args ...interface{}) pipeline.ErrProcessingError {
	return NewErrProcessingError(pipeline.NewErrRetryableError(err), category, inputs, reason, args...)
}
