// Package apperr defines the service-wide error taxonomy and its HTTP status mapping.
// Domain packages declare their sentinel errors with New and attach structured
// details with WithDetails without breaking errors.Is comparisons.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Conflict
	Forbidden
	Unauthorized
)

// String returns the stable code used in response bodies.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "VALIDATION_ERROR"
	case NotFound:
		return "NOT_FOUND"
	case Conflict:
		return "CONFLICT"
	case Forbidden:
		return "FORBIDDEN"
	case Unauthorized:
		return "UNAUTHORIZED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusUnprocessableEntity
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with an optional structured payload.
type Error struct {
	Kind    Kind
	Message string
	Details any
	parent  error
}

// New creates a classified error. Intended for package-level sentinels.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.parent
}

// WithDetails returns a copy of e carrying details. The copy unwraps to e,
// so errors.Is(copy, e) holds.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Kind:    e.Kind,
		Message: e.Message,
		Details: details,
		parent:  e,
	}
}

// WithMessage returns a copy of e with a more specific message. The copy unwraps to e.
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		Kind:    e.Kind,
		Message: message,
		Details: e.Details,
		parent:  e,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// DetailsOf returns the details of the first *Error in err's chain that carries any.
func DetailsOf(err error) any {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return nil
		}
		if e.Details != nil {
			return e.Details
		}
		err = e.parent
	}
	return nil
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	return KindOf(err).Status()
}

// Shared sentinels for conditions not owned by a single domain.
var (
	ErrUnauthorized = New(Unauthorized, "authentication required")
	ErrForbidden    = New(Forbidden, "role not permitted for this action")
	ErrInvalidInput = New(Validation, "invalid request body")
	ErrInvalidID    = New(Validation, "invalid identifier")
)
