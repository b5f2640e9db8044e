package events

import "github.com/JaimeStill/certify/pkg/apperr"

// Domain errors for event setup and locking.
var (
	ErrNotFound          = apperr.New(apperr.NotFound, "event not found")
	ErrContestNotFound   = apperr.New(apperr.NotFound, "contest not found")
	ErrCategoryNotFound  = apperr.New(apperr.NotFound, "category not found")
	ErrDuplicate         = apperr.New(apperr.Conflict, "name already in use")
	ErrInvalid           = apperr.New(apperr.Validation, "invalid event setup data")
	ErrLocked            = apperr.New(apperr.Conflict, "event is locked")
	ErrNoContests        = apperr.New(apperr.Validation, "event has no contests to certify")
	ErrNotBoardCertified = apperr.New(apperr.Validation, "contests lack board certification")
	ErrNotLocked         = apperr.New(apperr.Validation, "event must be locked before archiving")
	ErrArchived          = apperr.New(apperr.Conflict, "event is archived; restore it first")
)

// MapHTTPStatus maps event domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	return apperr.HTTPStatus(err)
}
