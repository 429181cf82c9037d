package errors

import (
	"fmt"
)

var (
	// ErrNotFound marks a lookup for an identifier the store does not hold.
	ErrNotFound = fmt.Errorf("not found")
	// ErrHTTPStatus marks a non-2xx response that is not retryable, or a
	// retryable status that survived every attempt.
	ErrHTTPStatus = fmt.Errorf("unexpected http status")
	// ErrDiscovery marks a failed remote catalog scan. Fatal for the run.
	ErrDiscovery = fmt.Errorf("catalog discovery failed")
	// ErrMissingExtracted marks a dataset file whose expected text payload
	// was not found in the staging area after download/extraction.
	ErrMissingExtracted = fmt.Errorf("extracted file not found")
	// ErrDecode marks an unreadable dataset file. Fatal for that file only.
	ErrDecode = fmt.Errorf("decode failed")
)
