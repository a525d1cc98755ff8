package tutor

import (
	"context"
	"errors"
	"fmt"

	"github.com/prepia/tutor/internal/llm"
	"github.com/prepia/tutor/internal/store"
)

// Kind classifies a failed operation for the transport layer.
type Kind int

const (
	// KindUnknown is never produced by Service; it is what KindOf reports
	// for errors that did not come from it.
	KindUnknown Kind = iota
	// KindNotFound means the learner does not exist.
	KindNotFound
	// KindValidationFailure means the collaborator answered with output
	// that breaks the requested shape.
	KindValidationFailure
	// KindCollaboratorUnavailable means the database or the generative
	// collaborator failed, timed out or ran out of quota.
	KindCollaboratorUnavailable
	// KindInvalidInput means the request itself is unusable.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidationFailure:
		return "validation_failure"
	case KindCollaboratorUnavailable:
		return "collaborator_unavailable"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// ErrNoProvider is returned when the Service has no generative collaborator.
var ErrNoProvider = errors.New("AI unavailable: no generative provider configured")

// Error is the error type returned by every Service operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// classify wraps err in an *Error for op. Database and transport failures
// that are neither a missing learner nor malformed output count as the
// collaborator being unavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}

	kind := KindCollaboratorUnavailable
	switch {
	case errors.Is(err, store.ErrNotFound):
		kind = KindNotFound
	case llm.IsInvalidResponse(err):
		kind = KindValidationFailure
	case llm.IsUnavailable(err), errors.Is(err, context.Canceled), errors.Is(err, ErrNoProvider):
		kind = KindCollaboratorUnavailable
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func invalidInput(op, msg string) error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: errors.New(msg)}
}

// invalidOutput reports structured output that decoded but makes no sense.
func invalidOutput(op string, content []byte, err error) error {
	return &Error{Kind: KindValidationFailure, Op: op, Err: &llm.ErrInvalidResponse{Content: content, Err: err}}
}
