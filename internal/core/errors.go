package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLocaleNotFound is returned when the source or destination locale does not exist.
	ErrLocaleNotFound = errors.New("locale not found")

	// ErrUnknownFormat is returned for a spreadsheet format key that is not registered.
	ErrUnknownFormat = errors.New("unknown spreadsheet format")

	// ErrCodeGenerationExhausted is returned when no unique food code could be
	// produced within the retry budget.
	ErrCodeGenerationExhausted = errors.New("food code variants exhausted")

	// ErrCodeConflict is returned when a generated code was taken by a
	// concurrent run between deduplication and commit. Nothing was written;
	// the caller may resubmit.
	ErrCodeConflict = errors.New("food code conflict with a concurrent derivation")

	// ErrEmptyInput is returned for a file with no rows at all.
	ErrEmptyInput = errors.New("empty file")

	// ErrInvalidSheet is returned when the upload is not readable as CSV.
	ErrInvalidSheet = errors.New("invalid csv")
)

// RejectedError carries every row parse and reference validation problem of a
// run that was rejected before any store access.
type RejectedError struct {
	Errors []string
}

func (e *RejectedError) Error() string {
	if len(e.Errors) == 1 {
		return "derivation rejected: " + e.Errors[0]
	}
	return fmt.Sprintf("derivation rejected with %d errors: %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

// CopySourceMissingError is returned when copy actions reference food codes
// that do not exist at commit time.
type CopySourceMissingError struct {
	Codes []string
}

func (e *CopySourceMissingError) Error() string {
	return "invalid source food codes: " + strings.Join(e.Codes, ", ")
}

// AsRejected returns the collected messages if err is a RejectedError.
func AsRejected(err error) ([]string, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Errors, true
	}
	return nil, false
}
