package bacs

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned for any format identifier other than "bacs"
// or "csv".
var ErrUnknownFormat = errors.New("unknown payment file format")

// UnknownFormatError carries the rejected format identifier.
type UnknownFormatError struct {
	Format string
}

// Error implements the error interface.
func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("bacs: unknown payment file format %q (supported: bacs, csv)", e.Format)
}

// Is implements error matching for Go 1.13+ error handling.
func (e *UnknownFormatError) Is(target error) bool {
	return errors.Is(target, ErrUnknownFormat)
}
