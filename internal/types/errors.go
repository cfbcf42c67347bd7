package types

import (
	"errors"
	"fmt"
)

var ErrInvalidExportFormat = errors.New("export is not a recognised location data format")
var ErrNoUsablePlaces = errors.New("export contained no usable place records")
var ErrVerificationFailed = errors.New("destination verification failed")
var ErrProfilingFailed = errors.New("taste profile synthesis failed")
var ErrMalformedResponse = errors.New("assistant response contained no parseable payload")
var ErrSessionNotFound = errors.New("discovery session not found or expired")
var ErrSessionBusy = errors.New("another recommendation request is already in flight")

// ValidationError reports a request field that failed a precondition check
// before any upstream call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
