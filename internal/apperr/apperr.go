// Package apperr defines the error kinds shared by services and handlers.
// Handlers map a Kind to an HTTP status exactly once, in handler.HandleError.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	InvalidInput
	InvalidFileType
	TooLarge
	Conflict
	Unauthorized
	Forbidden
	NotFound
	ServerMisconfigured
	UpstreamFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case InvalidFileType:
		return "invalid_file_type"
	case TooLarge:
		return "too_large"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case ServerMisconfigured:
		return "server_misconfigured"
	case UpstreamFailure:
		return "upstream_failure"
	default:
		return "internal"
	}
}

// Error carries a Kind and a message that is safe to show to clients.
// Err, when set, holds the underlying cause for logging only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Invalid(message string) *Error {
	return New(InvalidInput, message)
}

func NotFoundf(format string, a ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, a...))
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message returns the client-facing message of err, or fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
