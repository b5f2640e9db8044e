// Package authz maps roles to permission strings and guards routes with them.
//
// Permissions are "resource:action" strings. A granted permission ending in
// ":*" matches every action on its resource, and "*" matches everything.
package authz

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/JaimeStill/certify/pkg/apperr"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/handlers"
)

// Role is a caller role carried in the identity token.
type Role = string

const (
	RoleAdmin       Role = "ADMIN"
	RoleOrganizer   Role = "ORGANIZER"
	RoleBoard       Role = "BOARD"
	RoleJudge       Role = "JUDGE"
	RoleContestant  Role = "CONTESTANT"
	RoleEmcee       Role = "EMCEE"
	RoleTallyMaster Role = "TALLY_MASTER"
	RoleAuditor     Role = "AUDITOR"
)

// Permissions used by route guards.
const (
	EventsRead  = "events:read"
	EventsWrite = "events:write"
	EventsLock  = "events:lock"
	EventsAdmin = "events:admin"

	ScoresRead    = "scores:read"
	ScoresWrite   = "scores:write"
	ScoresCertify = "scores:certify"

	CertificationsRead    = "certifications:read"
	CertificationsFinal   = "certifications:final"
	CertificationsContest = "certifications:contest"
	CertificationsReset   = "certifications:reset"
	ProgressRead          = "progress:read"

	RemovalsRead    = "removals:read"
	RemovalsCreate  = "removals:create"
	RemovalsSign    = "removals:sign"
	RemovalsReject  = "removals:reject"
	RemovalsExecute = "removals:execute"

	NotificationsStream = "notifications:stream"
)

// Table maps each role to its granted permissions.
type Table map[Role][]string

// Default is the service permission table.
var Default = Table{
	RoleAdmin:     {"*"},
	RoleOrganizer: {EventsRead, EventsWrite, ScoresRead, CertificationsRead, ProgressRead, "notifications:*"},
	RoleBoard: {
		EventsRead, EventsLock, ScoresRead,
		CertificationsRead, CertificationsContest, CertificationsReset, ProgressRead,
		RemovalsRead, RemovalsSign, RemovalsReject, RemovalsExecute,
		"notifications:*",
	},
	RoleJudge: {
		EventsRead, "scores:*", CertificationsRead, CertificationsReset,
		RemovalsRead, RemovalsCreate,
		"notifications:*",
	},
	RoleTallyMaster: {
		EventsRead, ScoresRead, ScoresCertify,
		CertificationsRead, CertificationsReset, ProgressRead,
		RemovalsRead, RemovalsCreate, RemovalsSign, RemovalsReject,
		"notifications:*",
	},
	RoleAuditor: {
		EventsRead, ScoresRead,
		CertificationsRead, CertificationsFinal, CertificationsReset, ProgressRead,
		RemovalsRead, RemovalsSign, RemovalsReject,
		"notifications:*",
	},
	RoleEmcee:      {EventsRead, "notifications:*"},
	RoleContestant: {EventsRead, "notifications:*"},
}

// Can reports whether role holds permission in the table.
func (t Table) Can(role Role, permission string) bool {
	return slices.ContainsFunc(t[role], func(granted string) bool {
		return matches(granted, permission)
	})
}

// Can reports whether role holds permission in the Default table.
func Can(role Role, permission string) bool {
	return Default.Can(role, permission)
}

func matches(granted, permission string) bool {
	if granted == "*" || granted == permission {
		return true
	}
	if resource, ok := strings.CutSuffix(granted, ":*"); ok {
		return strings.HasPrefix(permission, resource+":")
	}
	return false
}

// Require returns middleware that responds 401 without an identity and 403
// when the identity's role lacks permission in the Default table.
func Require(permission string, logger *slog.Logger) func(http.Handler) http.Handler {
	return Default.Require(permission, logger)
}

// Require returns middleware enforcing permission against t.
func (t Table) Require(permission string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				handlers.RespondAppError(w, logger, apperr.ErrUnauthorized)
				return
			}
			if !t.Can(id.Role, permission) {
				handlers.RespondAppError(w, logger, apperr.ErrForbidden.WithDetails(map[string]string{
					"role":       id.Role,
					"permission": permission,
				}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
