package certifications

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/certify/pkg/query"
)

// history selects certifications together with the contest that owns them,
// whether they were written against the contest or one of its categories.
var history = query.
	NewProjectionMap("public", "certifications", "c").
	Project("id", "ID").
	Project("category_id", "CategoryID").
	Project("contest_id", "ContestID").
	Project("judge_id", "JudgeID").
	Project("role", "Role").
	Project("user_id", "UserID").
	Project("signature_name", "SignatureName").
	Project("certified_at", "CertifiedAt").
	Project("comments", "Comments").
	Project("tenant_id", "TenantID").
	Project("revoked_at", "RevokedAt").
	Project("revoked_by", "RevokedBy").
	Join("public", "categories", "cat", "LEFT JOIN", "cat.id = c.category_id").
	Join("public", "contests", "ct", "JOIN", "ct.id = COALESCE(c.contest_id, cat.contest_id)").
	Alias("ct", "id", "OwningContestID")

var historySort = []query.SortField{{Field: "CertifiedAt"}, {Field: "Role"}}

// HistoryFilters narrows a contest's certification history.
type HistoryFilters struct {
	Roles  []string `json:"roles,omitempty"`
	Active *bool    `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder. Active selects records
// that have not been revoked; inactive selects only revoked records.
func (f HistoryFilters) Apply(b *query.Builder) *query.Builder {
	roles := make([]any, len(f.Roles))
	for i, r := range f.Roles {
		roles[i] = r
	}
	return b.
		WhereIn("Role", roles).
		WhereNull("RevokedAt", f.Active)
}

// HistoryFiltersFromQuery reads repeated or comma-separated role parameters
// and an optional active flag.
func HistoryFiltersFromQuery(values url.Values) HistoryFilters {
	var f HistoryFilters

	for _, v := range values["role"] {
		for r := range strings.SplitSeq(v, ",") {
			if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
				f.Roles = append(f.Roles, r)
			}
		}
	}
	if v, err := strconv.ParseBool(values.Get("active")); err == nil {
		f.Active = &v
	}

	return f
}
