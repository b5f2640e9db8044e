package scores

import "github.com/JaimeStill/certify/pkg/apperr"

var (
	ErrNotFound  = apperr.New(apperr.NotFound, "score not found")
	ErrInvalid   = apperr.New(apperr.Validation, "invalid score")
	ErrCertified = apperr.New(apperr.Conflict, "score already certified")
)

// MapHTTPStatus maps score domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	return apperr.HTTPStatus(err)
}
