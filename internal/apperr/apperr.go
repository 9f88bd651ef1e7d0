// Package apperr defines the error kinds surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrGateway         = errors.New("payment gateway error")
)

// Error carries a caller-facing message and unwraps to its kind.
type Error struct {
	kind error
	msg  string
}

func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Newf(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

// Kind returns the kind sentinel for err, or nil when err carries none.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrAccessDenied, ErrInvalidState, ErrInvalidArgument, ErrGateway} {
		if errors.Is(err, k) {
			return k
		}
	}

	return nil
}

// HTTPStatus maps err to the response code handlers should use.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrAccessDenied:
		return http.StatusForbidden
	case ErrInvalidState:
		return http.StatusConflict
	case ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a caller. Errors without a kind
// are internal and get a generic message.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.msg
	}

	if Kind(err) != nil {
		return err.Error()
	}

	return "internal error"
}
