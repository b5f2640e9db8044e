package removals

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/query"
	"github.com/JaimeStill/certify/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "score_removal_requests", "r").
	Project("id", "ID").
	Project("category_id", "CategoryID").
	Project("judge_id", "JudgeID").
	Project("reason", "Reason").
	Project("requested_by", "RequestedBy").
	Project("requested_at", "RequestedAt").
	Project("status", "Status").
	Project("tally_signature", "TallySignature").
	Project("tally_signed_at", "TallySignedAt").
	Project("tally_signed_by", "TallySignedBy").
	Project("auditor_signature", "AuditorSignature").
	Project("auditor_signed_at", "AuditorSignedAt").
	Project("auditor_signed_by", "AuditorSignedBy").
	Project("board_signature", "BoardSignature").
	Project("board_signed_at", "BoardSignedAt").
	Project("board_signed_by", "BoardSignedBy").
	Project("rejected_by", "RejectedBy").
	Project("rejected_at", "RejectedAt").
	Project("rejection_reason", "RejectionReason").
	Project("executed_by", "ExecutedBy").
	Project("executed_at", "ExecutedAt").
	Project("deleted_count", "DeletedCount").
	Project("tenant_id", "TenantID")

const requestColumns = `id, category_id, judge_id, reason, requested_by, requested_at, status,
	tally_signature, tally_signed_at, tally_signed_by,
	auditor_signature, auditor_signed_at, auditor_signed_by,
	board_signature, board_signed_at, board_signed_by,
	rejected_by, rejected_at, rejection_reason,
	executed_by, executed_at, deleted_count, tenant_id`

var defaultSort = query.SortField{Field: "RequestedAt", Descending: true}

// Filters contains optional filtering criteria for removal request queries.
type Filters struct {
	Status     *string    `json:"status,omitempty"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
	JudgeID    *string    `json:"judgeId,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("CategoryID", f.CategoryID).
		WhereEquals("JudgeID", f.JudgeID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unparseable category identifiers are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := strings.ToUpper(values.Get("status")); s != "" {
		f.Status = &s
	}
	if id, err := uuid.Parse(values.Get("categoryId")); err == nil {
		f.CategoryID = &id
	}
	if j := values.Get("judgeId"); j != "" {
		f.JudgeID = &j
	}

	return f
}

func scanRequest(s repository.Scanner) (Request, error) {
	var r Request
	err := s.Scan(
		&r.ID,
		&r.CategoryID,
		&r.JudgeID,
		&r.Reason,
		&r.RequestedBy,
		&r.RequestedAt,
		&r.Status,
		&r.TallySignature,
		&r.TallySignedAt,
		&r.TallySignedBy,
		&r.AuditorSignature,
		&r.AuditorSignedAt,
		&r.AuditorSignedBy,
		&r.BoardSignature,
		&r.BoardSignedAt,
		&r.BoardSignedBy,
		&r.RejectedBy,
		&r.RejectedAt,
		&r.RejectionReason,
		&r.ExecutedBy,
		&r.ExecutedAt,
		&r.DeletedCount,
		&r.TenantID,
	)
	r.AllSigned = r.Signed()
	return r, err
}
