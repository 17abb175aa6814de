package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat indicates a file extension with no reader.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")

	// ErrMissingColumn indicates a CSV header without a brand name column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMismatchedRows indicates records and vectors of different lengths.
	ErrMismatchedRows = errors.New("records and vectors differ in length")
)

// LoadError reports a catalog that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading catalog %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
