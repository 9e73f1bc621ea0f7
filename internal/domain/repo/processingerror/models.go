package processingerror

import "time"

type ProcessingError struct {
	ProcessingContext ProcessingContext
	Sources           Sources
	Reason            Reason
}

type ProcessingContext struct {
	Component Component
	Time      time.Time
	Host      string
	RunID     string
	Region    string
}

type Component struct {
	Branch   string
	Revision string
}

type Sources struct {
	Additional []KeyValue
}

type KeyValue struct {
	Source string
	Key    string
	Value  []byte
}

type Reason struct {
	Category  string
	Error     string
	Retryable bool
}
