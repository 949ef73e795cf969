package reviews

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy surfaced by the pipeline.
var (
	// ErrInvalidInput means the user must correct the URL; retrying is pointless.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNetwork means every intermediary failed; the user may retry.
	ErrNetwork = errors.New("failed to connect; check connectivity or retry")
	// ErrDataFormat means the payload could not be parsed.
	ErrDataFormat = errors.New("invalid data received")
	// ErrEmptyResult means the feed was well formed but carried no entries.
	ErrEmptyResult = errors.New("no reviews found")
	// ErrEmptyTable means an export or copy was attempted with nothing loaded.
	ErrEmptyTable = errors.New("no data")
	// ErrFetchInFlight rejects a fetch while another one runs for the same session.
	ErrFetchInFlight = errors.New("a fetch is already in progress")
)

// InvalidInputError explains why a URL was rejected.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

// Is lets errors.Is match ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// AttemptError records one failed intermediary attempt.
type AttemptError struct {
	Intermediary string
	Err          error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Intermediary, e.Err)
}

func (e AttemptError) Unwrap() error {
	return e.Err
}

// NetworkError is returned once every intermediary in a chain has failed.
type NetworkError struct {
	Attempts []AttemptError
}

func (e *NetworkError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrNetwork.Error()
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("%s (%s)", ErrNetwork.Error(), strings.Join(parts, "; "))
}

// Is lets errors.Is match ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// Unwrap exposes every attempt error.
func (e *NetworkError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a)
	}
	return errs
}

// EmptyResultError reports a valid feed without entries for a region.
type EmptyResultError struct {
	Region string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no reviews found for region %s; try switching region", strings.ToUpper(e.Region))
}

// Is lets errors.Is match ErrEmptyResult.
func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

// Kind returns a short stable label for an error, used for metrics and API
// payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrDataFormat):
		return "data_format"
	case errors.Is(err, ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, ErrEmptyTable):
		return "empty_table"
	case errors.Is(err, ErrFetchInFlight):
		return "in_flight"
	default:
		return "internal"
	}
}

// UserMessage maps a pipeline error to the text shown in the single message slot.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		return invalid.Reason
	}
	var empty *EmptyResultError
	if errors.As(err, &empty) {
		return empty.Error()
	}
	for _, sentinel := range []error{ErrNetwork, ErrDataFormat, ErrEmptyTable, ErrFetchInFlight} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "unexpected error; please retry"
}
