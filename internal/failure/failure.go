// Package failure classifies generation errors so retry policy can be decided
// from the error kind alone.
package failure

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindTransport    Kind = "transport"
	KindExtraction   Kind = "extraction"
	KindPrecondition Kind = "precondition"
	KindCanceled     Kind = "canceled"
)

type Reason string

const (
	ReasonNoCandidates     Reason = "no_candidates"
	ReasonIncompleteSchema Reason = "incomplete_schema"
	ReasonMalformedJSON    Reason = "malformed_json"
	ReasonTruncated        Reason = "truncated"
)

// TransportError is returned when the generation endpoint could not be
// reached or answered with a non-success status. StatusCode is 0 for
// network failures.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("generation API status %d: %s", e.StatusCode, truncate(e.Body, 512))
	case e.StatusCode != 0:
		return fmt.Sprintf("generation API status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("generation API request failed: %v", e.Err)
	default:
		return "generation API request failed"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type ExtractionError struct {
	Reason Reason
	Detail string
}

func (e *ExtractionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("extraction failed: %s", e.Reason)
	}
	return fmt.Sprintf("extraction failed: %s: %s", e.Reason, e.Detail)
}

// PreconditionError rejects input before any network call is made.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "invalid input: " + e.Reason
}

func Precondition(format string, args ...interface{}) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

func Extraction(reason Reason, detail string) error {
	return &ExtractionError{Reason: reason, Detail: detail}
}

func KindOf(err error) Kind {
	var (
		transportErr    *TransportError
		extractionErr   *ExtractionError
		preconditionErr *PreconditionError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &extractionErr):
		return KindExtraction
	case errors.As(err, &preconditionErr):
		return KindPrecondition
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindUnknown
	}
}

// Retryable reports whether a failed attempt may be repeated with reduced
// parameters. Only extraction failures qualify.
func Retryable(err error) bool {
	return KindOf(err) == KindExtraction
}

// TruncationSuspected reports whether err says the model output was cut off.
func TruncationSuspected(err error) bool {
	var extractionErr *ExtractionError
	return errors.As(err, &extractionErr) && extractionErr.Reason == ReasonTruncated
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
