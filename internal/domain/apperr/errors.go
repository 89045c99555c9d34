package apperr

import (
	"errors"
	"fmt"
)

// Kinds. Match with errors.Is(err, apperr.ErrNotFound).
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
	ErrStorage      = errors.New("storage failure")
)

// Error carries a kind, a message that is safe to show to the caller, and
// the underlying cause (which is not).
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func InvalidInput(msg string) error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Upstream(msg string, err error) error {
	return &Error{Kind: ErrUpstream, Message: msg, Err: err}
}

func Storage(msg string, err error) error {
	return &Error{Kind: ErrStorage, Message: msg, Err: err}
}

// Message returns the caller-facing message of err, or fallback when err
// is not an *Error.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
