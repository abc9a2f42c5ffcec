// Package apperrors defines the error taxonomy surfaced by game operations.
package apperrors

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidState     Code = "INVALID_STATE"
	CodeNotFound         Code = "NOT_FOUND"
	CodeAmbiguousState   Code = "AMBIGUOUS_STATE"
	CodeAllegianceFilter Code = "ALLEGIANCE_FILTER"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeInternal         Code = "INTERNAL"
)

// Sentinels for errors.Is; any *Error with the same code matches.
var (
	ErrInvalidState     = New(CodeInvalidState, "invalid state")
	ErrNotFound         = New(CodeNotFound, "not found")
	ErrAmbiguousState   = New(CodeAmbiguousState, "ambiguous state")
	ErrAllegianceFilter = New(CodeAllegianceFilter, "allegiance filter")
	ErrInvalidArgument  = New(CodeInvalidArgument, "invalid argument")
	ErrAlreadyExists    = New(CodeAlreadyExists, "already exists")
)

// Error is a domain error with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to the status handlers respond with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeInvalidState, CodeAmbiguousState, CodeAlreadyExists:
		return fiber.StatusConflict
	case CodeAllegianceFilter:
		return fiber.StatusUnprocessableEntity
	case CodeInvalidArgument:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// IsDomain reports whether err carries a code other than INTERNAL. Retrying
// such errors cannot succeed.
func IsDomain(err error) bool {
	return CodeOf(err) != CodeInternal
}
