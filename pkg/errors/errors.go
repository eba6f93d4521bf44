// Package errors defines the error taxonomy shared by the hash array and the trie.
// Every failure is returned synchronously; callers match on the sentinels with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument covers malformed configuration and call arguments.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvariantViolation is a programmer error, e.g. removing an item never added.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrDestroyed is returned by any call on a trie after Destroy.
	ErrDestroyed = fmt.Errorf("%w: trie has been destroyed", ErrInvariantViolation)
	// ErrIndexFieldRequired is returned when a reducer is used without an index field.
	ErrIndexFieldRequired = errors.New("a reducer requires an index field")
)

// Error pairs a sentinel with a call-specific message.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *Error {
	return &Error{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *Error {
	return &Error{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Code maps an error onto the status codes used by the IPC server.
func Code(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrIndexFieldRequired):
		return 400
	case errors.Is(err, ErrDestroyed):
		return 410
	case errors.Is(err, ErrInvariantViolation):
		return 409
	default:
		return 500
	}
}
