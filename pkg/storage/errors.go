package storage

import (
	"github.com/JaimeStill/certify/pkg/apperr"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = apperr.New(apperr.NotFound, "blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = apperr.New(apperr.Validation, "storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = apperr.New(apperr.Validation, "storage key contains invalid path segment")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	return apperr.HTTPStatus(err)
}
