package removals

import "github.com/JaimeStill/certify/pkg/apperr"

// Domain errors for the score removal workflow.
var (
	ErrNotFound         = apperr.New(apperr.NotFound, "score removal request not found")
	ErrInvalid          = apperr.New(apperr.Validation, "invalid score removal request")
	ErrDuplicatePending = apperr.New(apperr.Conflict, "a pending removal request already exists for this judge and category")
	ErrAlreadySigned    = apperr.New(apperr.Conflict, "request already signed by this role")
	ErrTerminal         = apperr.New(apperr.Conflict, "request is no longer open")
	ErrNotSigned        = apperr.New(apperr.Validation, "request requires tally, auditor, and board signatures")
	ErrSignerRole       = apperr.New(apperr.Forbidden, "role cannot act on this request")
)

// MapHTTPStatus maps removal domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	return apperr.HTTPStatus(err)
}
