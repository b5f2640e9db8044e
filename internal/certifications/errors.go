package certifications

import "github.com/JaimeStill/certify/pkg/apperr"

// Domain errors for certification writes and resets.
var (
	ErrNotFound              = apperr.New(apperr.NotFound, "no active certification matches")
	ErrAlreadyCertified      = apperr.New(apperr.Conflict, "already certified")
	ErrNotReady              = apperr.New(apperr.Conflict, "category is not ready for final certification")
	ErrIncomplete            = apperr.New(apperr.Validation, "score grid is incomplete")
	ErrCategoriesUncertified = apperr.New(apperr.Validation, "categories lack auditor certification")
	ErrInvalid               = apperr.New(apperr.Validation, "invalid certification request")
	ErrRoleMismatch          = apperr.New(apperr.Forbidden, "role cannot sign this certification")
	ErrResetNotPermitted     = apperr.New(apperr.Forbidden, "role cannot reset this certification")
)

// MapHTTPStatus maps certification domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	return apperr.HTTPStatus(err)
}
