// Package clierr maps failures to process exit statuses.
package clierr

import (
	"context"
	"errors"
	"fmt"
)

// Exit statuses.
const (
	OK           = 0
	Unrecognized = 1
	Request      = 2
	Auth         = 3
	UnknownUser  = 4
	Argument     = 7
	FileIO       = 8
	Interrupted  = 130
)

// Error carries the exit status a failure should terminate the process with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with code. A nil err yields nil.
func New(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

func Errorf(code int, format string, args ...any) error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

func Argumentf(format string, args ...any) error { return Errorf(Argument, format, args...) }

func Unrecognizedf(format string, args ...any) error { return Errorf(Unrecognized, format, args...) }

func Authf(format string, args ...any) error { return Errorf(Auth, format, args...) }

func FileIOf(format string, args ...any) error { return Errorf(FileIO, format, args...) }

// ExitCode returns the status for err. An explicit *Error anywhere in the
// chain wins; a bare cancellation is an interrupt; anything else is 1.
func ExitCode(err error) int {
	if err == nil {
		return OK
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	if errors.Is(err, context.Canceled) {
		return Interrupted
	}
	return 1
}
