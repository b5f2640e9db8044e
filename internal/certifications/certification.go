package certifications

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/progress"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
)

// Certification is an append-only sign-off record. A reset marks it revoked
// rather than deleting it.
type Certification struct {
	ID            uuid.UUID  `json:"id"`
	CategoryID    *uuid.UUID `json:"categoryId,omitempty"`
	ContestID     *uuid.UUID `json:"contestId,omitempty"`
	JudgeID       *string    `json:"judgeId,omitempty"`
	Role          string     `json:"role"`
	UserID        string     `json:"userId"`
	SignatureName string     `json:"signatureName"`
	CertifiedAt   time.Time  `json:"certifiedAt"`
	Comments      string     `json:"comments"`
	TenantID      string     `json:"tenantId,omitempty"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
	RevokedBy     *string    `json:"revokedBy,omitempty"`
}

// Active reports whether the certification has not been revoked.
func (c Certification) Active() bool {
	return c.RevokedAt == nil
}

// Roles lists certification roles in workflow order.
var Roles = []string{
	progress.RoleJudge,
	progress.RoleTallyMaster,
	progress.RoleAuditor,
	progress.RoleBoard,
}

// Level returns the position of role in the workflow, or -1 for roles that
// do not certify.
func Level(role string) int {
	return slices.Index(Roles, role)
}

// SignCommand carries the optional signature details of a certification.
type SignCommand struct {
	Role          string `json:"role,omitempty"`
	SignatureName string `json:"signatureName,omitempty"`
	Comments      string `json:"comments,omitempty"`
}

// Signature returns the signature name, falling back to the actor's display name.
func (c SignCommand) Signature(actor auth.Identity) string {
	if s := strings.TrimSpace(c.SignatureName); s != "" {
		return s
	}
	return actor.DisplayName()
}

// CertifyRole resolves the role a score certification is written under.
// Judges certify as JUDGE, Tally Masters and admins as TALLY_MASTER.
// A requested role other than the actor's own is forbidden.
func CertifyRole(actor auth.Identity, requested string) (string, error) {
	requested = strings.ToUpper(strings.TrimSpace(requested))

	var own string
	switch actor.Role {
	case authz.RoleJudge:
		own = progress.RoleJudge
	case authz.RoleTallyMaster, authz.RoleAdmin:
		own = progress.RoleTallyMaster
	default:
		return "", ErrRoleMismatch.WithDetails(map[string]string{"role": actor.Role})
	}

	if requested != "" && requested != own {
		if requested != progress.RoleJudge && requested != progress.RoleTallyMaster {
			return "", ErrInvalid.WithDetails(map[string]string{"role": "must be JUDGE or TALLY_MASTER"})
		}
		return "", ErrRoleMismatch.WithDetails(map[string]string{"role": actor.Role, "requested": requested})
	}
	return own, nil
}

// ResetCommand names the certification to revoke.
type ResetCommand struct {
	Role    string  `json:"role"`
	JudgeID *string `json:"judgeId,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// Normalize uppercases the role, forces judges onto their own records, and
// validates the command for actor.
func (c *ResetCommand) Normalize(actor auth.Identity) error {
	c.Role = strings.ToUpper(strings.TrimSpace(c.Role))
	if Level(c.Role) < 0 {
		return ErrInvalid.WithDetails(map[string]string{"role": "must be one of " + strings.Join(Roles, ", ")})
	}

	if c.JudgeID != nil && strings.TrimSpace(*c.JudgeID) == "" {
		c.JudgeID = nil
	}
	if c.JudgeID != nil && c.Role != progress.RoleJudge && c.Role != progress.RoleTallyMaster {
		return ErrInvalid.WithDetails(map[string]string{"judgeId": "only JUDGE and TALLY_MASTER certifications are judge scoped"})
	}

	if actor.Role == authz.RoleJudge && c.JudgeID == nil {
		id := actor.ID
		c.JudgeID = &id
	}

	return CanReset(actor, c.Role, c.judge())
}

func (c ResetCommand) judge() string {
	if c.JudgeID == nil {
		return ""
	}
	return *c.JudgeID
}

// CanReset reports whether actor may revoke a certification of role. Admins
// and the Board may reset anything; others only at or below their own
// level, and judges only their own record.
func CanReset(actor auth.Identity, role, judgeID string) error {
	if actor.Role == authz.RoleAdmin || actor.Role == authz.RoleBoard {
		return nil
	}

	denied := ErrResetNotPermitted.WithDetails(map[string]string{"role": actor.Role, "target": role})

	own := Level(actor.Role)
	if own < 0 || Level(role) > own {
		return denied
	}
	if actor.Role == authz.RoleJudge && (role != progress.RoleJudge || judgeID != actor.ID) {
		return denied
	}
	return nil
}

// Plan describes the records a reset revokes.
type Plan struct {
	// Target is the role the reset was requested for.
	Target string
	// JudgeID scopes JudgeRoles to one judge when set.
	JudgeID string
	// JudgeRoles are revoked for JudgeID, or for every judge when JudgeID is empty.
	JudgeRoles []string
	// CategoryRoles are revoked for the whole category.
	CategoryRoles []string
	// Board revokes the contest's Board certification.
	Board bool
	// Uncertify clears the certified flag on the affected scores.
	Uncertify bool
	// KeepAttested leaves certified the scores of judges whose own JUDGE
	// record survives the reset.
	KeepAttested bool
}

// PlanReset returns the cascade for revoking role: the target and every
// later role of the same category, plus the contest Board record.
func PlanReset(role, judgeID string) Plan {
	p := Plan{Target: role, JudgeID: judgeID, Board: true}

	switch role {
	case progress.RoleJudge:
		p.JudgeRoles = []string{progress.RoleJudge, progress.RoleTallyMaster}
		p.CategoryRoles = []string{progress.RoleAuditor}
		p.Uncertify = true
	case progress.RoleTallyMaster:
		p.JudgeRoles = []string{progress.RoleTallyMaster}
		p.CategoryRoles = []string{progress.RoleAuditor}
		p.Uncertify = true
		p.KeepAttested = true
	case progress.RoleAuditor:
		p.CategoryRoles = []string{progress.RoleAuditor}
	}

	return p
}

// CertifyResult reports the outcome of a score certification.
type CertifyResult struct {
	Role            string          `json:"role"`
	CertifiedScores int64           `json:"certifiedScores"`
	Certifications  []Certification `json:"certifications"`
}

// ResetResult reports the records revoked by a reset.
type ResetResult struct {
	Revoked           []Certification `json:"revoked"`
	UncertifiedScores int64           `json:"uncertifiedScores"`
}
