package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrGatewayRequired is returned when an embedding gateway is not provided.
	ErrGatewayRequired = errors.New("embedding gateway required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrInvalidBatchSize is returned for a batch size below one.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")
)

// IndexUploadError records a batch that could not be written to the index
// after exhausting its retries.
type IndexUploadError struct {
	Batch    int // zero-based batch number
	Size     int
	Attempts int
	Err      error
}

func (e *IndexUploadError) Error() string {
	return fmt.Sprintf("uploading batch %d (%d entries) failed after %d attempts: %v",
		e.Batch, e.Size, e.Attempts, e.Err)
}

func (e *IndexUploadError) Unwrap() error {
	return e.Err
}
