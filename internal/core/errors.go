package core

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent matches every *MalformedEventError via errors.Is.
var ErrMalformedEvent = errors.New("malformed event")

// MalformedEventError reports an inbound event that cannot become a Change.
// It is never retried.
type MalformedEventError struct {
	Kind   SourceKind
	Field  string
	Reason string
	Err    error
}

func (e *MalformedEventError) Error() string {
	msg := fmt.Sprintf("malformed %s event", e.Kind)
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedEventError) Is(target error) bool { return target == ErrMalformedEvent }

func (e *MalformedEventError) Unwrap() error { return e.Err }

func malformed(kind SourceKind, field, reason string) error {
	return &MalformedEventError{Kind: kind, Field: field, Reason: reason}
}
