package ingestion

import (
	"errors"
	"fmt"
)

// ErrBalanceFetch marks the one fatal failure mode of collection: without
// holdings no assessment can be computed. Callers match with errors.Is.
var ErrBalanceFetch = errors.New("balance fetch failed")

// UpstreamError reports a failed call to a single upstream data source.
// Every other source degrades to an empty signal when it returns one.
type UpstreamError struct {
	Source string // "balances", "metadata", "prices", ...
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
