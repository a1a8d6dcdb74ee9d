// internal/errors/errors.go
package errors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeInvalidReference ErrorType = "INVALID_REFERENCE"
	ErrorTypeVcsQueryFailed   ErrorType = "VCS_QUERY_FAILED"
	ErrorTypeParse            ErrorType = "PARSE_ERROR"
	ErrorTypeValidation       ErrorType = "VALIDATION"
)

// Error is the failure type surfaced by every stage of the pipeline. Two
// errors match under errors.Is when their Type is the same.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"-"`
	Details any       `json:"details,omitempty"`
	Err     error     `json:"-"`
}

// Sentinels for errors.Is.
var (
	ErrInvalidReference = &Error{Type: ErrorTypeInvalidReference}
	ErrVcsQueryFailed   = &Error{Type: ErrorTypeVcsQueryFailed}
	ErrParse            = &Error{Type: ErrorTypeParse}
	ErrValidation       = &Error{Type: ErrorTypeValidation}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

func InvalidReference(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeInvalidReference,
		Message: fmt.Sprintf(format, args...),
		Code:    http.StatusBadRequest,
	}
}

// VcsQueryFailed reports that the version-control collaborator could not
// answer a query. cause may be nil.
func VcsQueryFailed(cause error, format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeVcsQueryFailed,
		Message: fmt.Sprintf(format, args...),
		Code:    http.StatusUnprocessableEntity,
		Err:     cause,
	}
}

func ParseError(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeParse,
		Message: fmt.Sprintf(format, args...),
		Code:    http.StatusBadGateway,
	}
}

// ValidationError rejects a malformed request before any query is issued.
func ValidationError(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: details,
	}
}

// HTTPStatus returns the status code carried by err, or 500 when err is not
// one of ours.
func HTTPStatus(err error) int {
	var e *Error
	if As(err, &e) && e.Code != 0 {
		return e.Code
	}
	return http.StatusInternalServerError
}

// TypeOf returns the ErrorType carried by err, or "" when there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if As(err, &e) {
		return e.Type
	}
	return ""
}
