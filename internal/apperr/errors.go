// Package apperr is the error taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeBadRequest          Code = "BAD_REQUEST"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeUnprocessableEntity Code = "UNPROCESSABLE_ENTITY"
	CodeInternal            Code = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable  Code = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[Code]int{
	CodeBadRequest:          http.StatusBadRequest,
	CodeNotFound:            http.StatusNotFound,
	CodeConflict:            http.StatusConflict,
	CodeUnprocessableEntity: http.StatusUnprocessableEntity,
	CodeInternal:            http.StatusInternalServerError,
	CodeServiceUnavailable:  http.StatusServiceUnavailable,
}

// Reason codes used in Detail.
const (
	ReasonInvalidProperty         = "INVALID_PROPERTY"
	ReasonMissingRequiredProperty = "MISSING_REQUIRED_PROPERTY"
)

// Detail points at a single offending input property.
type Detail struct {
	ReasonCode string `json:"reason_code"`
	Message    string `json:"message"`
	Source     string `json:"source,omitempty"`
}

// Error is a classified failure. Err, when set, is the underlying cause.
type Error struct {
	Code    Code     `json:"code"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
	Err     error    `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the code to a response status.
func (e *Error) HTTPStatus() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func Validation(msg string, details ...Detail) *Error {
	return &Error{Code: CodeBadRequest, Message: msg, Details: details}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

func Unprocessable(msg string) *Error {
	return &Error{Code: CodeUnprocessableEntity, Message: msg}
}

func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

func Unavailable(msg string, err error) *Error {
	return &Error{Code: CodeServiceUnavailable, Message: msg, Err: err}
}

// As returns the classified error in err's chain, or an internal error
// wrapping err when nothing in the chain is classified.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("unexpected error", err)
}

// CodeOf returns the taxonomy code of err; unclassified errors are internal.
func CodeOf(err error) Code {
	if e := As(err); e != nil {
		return e.Code
	}
	return ""
}
