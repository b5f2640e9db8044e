package removals

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/certifications"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
)

// Status is the lifecycle state of a removal request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusRejected Status = "REJECTED"
	StatusExecuted Status = "EXECUTED"
)

// Terminal reports whether no further signing or execution is possible.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusExecuted
}

// Request asks for every score of one judge in one category to be deleted.
// It needs Tally Master, Auditor, and Board signatures, in any order,
// before it can be executed.
type Request struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"categoryId"`
	JudgeID     string    `json:"judgeId"`
	Reason      string    `json:"reason"`
	RequestedBy string    `json:"requestedBy"`
	RequestedAt time.Time `json:"requestedAt"`
	Status      Status    `json:"status"`

	TallySignature   *string    `json:"tallySignature,omitempty"`
	TallySignedAt    *time.Time `json:"tallySignedAt,omitempty"`
	TallySignedBy    *string    `json:"tallySignedBy,omitempty"`
	AuditorSignature *string    `json:"auditorSignature,omitempty"`
	AuditorSignedAt  *time.Time `json:"auditorSignedAt,omitempty"`
	AuditorSignedBy  *string    `json:"auditorSignedBy,omitempty"`
	BoardSignature   *string    `json:"boardSignature,omitempty"`
	BoardSignedAt    *time.Time `json:"boardSignedAt,omitempty"`
	BoardSignedBy    *string    `json:"boardSignedBy,omitempty"`

	RejectedBy      *string    `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	ExecutedBy      *string    `json:"executedBy,omitempty"`
	ExecutedAt      *time.Time `json:"executedAt,omitempty"`
	DeletedCount    *int       `json:"deletedCount,omitempty"`
	TenantID        string     `json:"tenantId,omitempty"`

	AllSigned bool `json:"allSigned"`
}

// Signed reports whether all three signatures are present.
func (r *Request) Signed() bool {
	return r.TallySignature != nil && r.AuditorSignature != nil && r.BoardSignature != nil
}

// signature returns the signature fields for role.
func (r *Request) signature(role string) (sig **string, at **time.Time, by **string, ok bool) {
	switch role {
	case authz.RoleTallyMaster:
		return &r.TallySignature, &r.TallySignedAt, &r.TallySignedBy, true
	case authz.RoleAuditor:
		return &r.AuditorSignature, &r.AuditorSignedAt, &r.AuditorSignedBy, true
	case authz.RoleBoard:
		return &r.BoardSignature, &r.BoardSignedAt, &r.BoardSignedBy, true
	}
	return nil, nil, nil, false
}

// Sign records role's signature.
func (r *Request) Sign(role, userID, signatureName string, at time.Time) error {
	if r.Status.Terminal() {
		return ErrTerminal.WithDetails(map[string]string{"status": string(r.Status)})
	}

	sig, signedAt, signedBy, ok := r.signature(role)
	if !ok {
		return ErrSignerRole.WithDetails(map[string]string{"role": role})
	}
	if *sig != nil {
		return ErrAlreadySigned.WithDetails(map[string]string{"role": role})
	}

	*sig, *signedAt, *signedBy = &signatureName, &at, &userID
	r.AllSigned = r.Signed()
	return nil
}

// Reject moves the request to the terminal REJECTED state.
func (r *Request) Reject(userID, reason string, at time.Time) error {
	if r.Status.Terminal() {
		return ErrTerminal.WithDetails(map[string]string{"status": string(r.Status)})
	}

	r.Status = StatusRejected
	r.RejectedBy, r.RejectedAt = &userID, &at
	if reason = strings.TrimSpace(reason); reason != "" {
		r.RejectionReason = &reason
	}
	return nil
}

// CanExecute reports whether the request may be executed.
func (r *Request) CanExecute() error {
	if r.Status.Terminal() {
		return ErrTerminal.WithDetails(map[string]string{"status": string(r.Status)})
	}
	if !r.Signed() {
		missing := []string{}
		for _, role := range []string{authz.RoleTallyMaster, authz.RoleAuditor, authz.RoleBoard} {
			if sig, _, _, _ := r.signature(role); *sig == nil {
				missing = append(missing, role)
			}
		}
		return ErrNotSigned.WithDetails(map[string]any{"missingSignatures": missing})
	}
	return nil
}

// Execute marks the request EXECUTED.
func (r *Request) Execute(userID string, deleted int, at time.Time) {
	r.Status = StatusExecuted
	r.ExecutedBy, r.ExecutedAt, r.DeletedCount = &userID, &at, &deleted
}

// CreateCommand opens a removal request.
type CreateCommand struct {
	CategoryID uuid.UUID `json:"categoryId"`
	JudgeID    string    `json:"judgeId"`
	Reason     string    `json:"reason"`
}

// Normalize validates the command for actor. Judges may only request
// removal of their own scores and default to themselves.
func (c *CreateCommand) Normalize(actor auth.Identity) error {
	c.JudgeID = strings.TrimSpace(c.JudgeID)
	c.Reason = strings.TrimSpace(c.Reason)

	if actor.Role == authz.RoleJudge {
		if c.JudgeID == "" {
			c.JudgeID = actor.ID
		}
		if c.JudgeID != actor.ID {
			return ErrSignerRole.WithMessage("judges may only request removal of their own scores")
		}
	}

	problems := map[string]string{}
	if c.CategoryID == uuid.Nil {
		problems["categoryId"] = "required"
	}
	if c.JudgeID == "" {
		problems["judgeId"] = "required"
	}
	if c.Reason == "" {
		problems["reason"] = "required"
	}
	if len(problems) > 0 {
		return ErrInvalid.WithDetails(problems)
	}
	return nil
}

// SignCommand signs a request. Role, when present, must match the caller.
type SignCommand struct {
	Role          string `json:"role,omitempty"`
	SignatureName string `json:"signatureName,omitempty"`
}

// SignerRole resolves the role a signature is recorded under: always the
// caller's own role.
func (c SignCommand) SignerRole(actor auth.Identity) (string, error) {
	requested := strings.ToUpper(strings.TrimSpace(c.Role))
	if requested != "" && requested != actor.Role {
		return "", ErrSignerRole.WithDetails(map[string]string{"role": actor.Role, "requested": requested})
	}
	switch actor.Role {
	case authz.RoleTallyMaster, authz.RoleAuditor, authz.RoleBoard:
		return actor.Role, nil
	}
	return "", ErrSignerRole.WithDetails(map[string]string{"role": actor.Role})
}

// RejectCommand rejects a request.
type RejectCommand struct {
	Reason string `json:"reason,omitempty"`
}

// SignResult is the response to a signature.
type SignResult struct {
	Request   *Request `json:"request"`
	AllSigned bool     `json:"allSigned"`
}

// ExecuteResult is the response to an execution.
type ExecuteResult struct {
	DeletedCount int                            `json:"deletedCount"`
	Request      *Request                       `json:"request"`
	Revoked      []certifications.Certification `json:"revoked"`
}
