package brand

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindConfiguration Kind = "configuration_error"
	KindScrape        Kind = "scrape_error"
	KindTimeout       Kind = "provider_timeout"
	KindProvider      Kind = "provider_error"
	KindUnexpected    Kind = "unexpected_error"
)

// Error is a classified pipeline error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnexpected if it is unclassified.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

// ErrNoProviders is returned when the registry has nothing enabled.
var ErrNoProviders = NewError(KindConfiguration, "no providers configured", nil)
