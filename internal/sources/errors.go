package sources

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is.
var (
	// ErrSourceUnavailable covers transport failures, non-success statuses
	// and upstream-reported errors.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedResponse covers bodies that do not decode or lack the
	// fields a fetcher depends on.
	ErrMalformedResponse = errors.New("malformed response")
)

// FetchError records which upstream failed and why.
type FetchError struct {
	Source string
	Kind   error
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{e.Kind, e.Err} }

func unavailable(source string, err error) error {
	return &FetchError{Source: source, Kind: ErrSourceUnavailable, Err: err}
}

func malformed(source string, err error) error {
	return &FetchError{Source: source, Kind: ErrMalformedResponse, Err: err}
}
