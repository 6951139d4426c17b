package models

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies recoverable upstream failures.
type FetchErrorKind string

const (
	UpstreamTimeout     FetchErrorKind = "upstream_timeout"
	UpstreamUnreachable FetchErrorKind = "upstream_unreachable"
	MalformedPayload    FetchErrorKind = "malformed_payload"
	InsufficientData    FetchErrorKind = "insufficient_data"
)

// FetchError is produced at the fetcher/normalizer boundary and never reaches readers.
type FetchError struct {
	Kind   FetchErrorKind
	Source string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Source, e.Kind, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError, taking the reason from err when reason is empty.
func NewFetchError(kind FetchErrorKind, source, reason string, err error) *FetchError {
	if reason == "" && err != nil {
		reason = err.Error()
	}
	return &FetchError{Kind: kind, Source: source, Reason: reason, Err: err}
}

// ErrorKind extracts the FetchErrorKind from err, or "" when err is not a FetchError.
func ErrorKind(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
