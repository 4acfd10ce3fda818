package syncerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a classified failure. It wraps the underlying cause so
// callers can still errors.Is/As through it.
type Error struct {
	Code    Code
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without an underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithReason attaches a disambiguating reason tag.
func (e *Error) WithReason(r Reason) *Error {
	e.Reason = r
	return e
}

// CodeOf extracts the taxonomy code from any error, or CodeUnknown.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// HTTPStatus maps a classified error to the status the HTTP layer
// should answer with: auth failures are 401, a held sync lock is 409,
// client-correctable configuration problems are 400, everything else
// is 500.
func HTTPStatus(err error) int {
	code := CodeOf(err)
	switch {
	case code.IsAuth():
		return http.StatusUnauthorized
	case code == CodeSyncInProgress:
		return http.StatusConflict
	case code.IsConfig():
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
