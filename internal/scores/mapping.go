package scores

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/certify/pkg/query"
	"github.com/JaimeStill/certify/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "scores", "s").
	Project("id", "ID").
	Project("category_id", "CategoryID").
	Project("contestant_id", "ContestantID").
	Project("judge_id", "JudgeID").
	Project("criterion_id", "CriterionID").
	Project("value", "Value").
	Project("certified", "Certified").
	Project("notes", "Notes").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const scoreColumns = `id, category_id, contestant_id, judge_id, criterion_id,
	value, certified, notes, created_at, updated_at`

var defaultSort = query.SortField{Field: "ContestantID"}

// Filters contains optional filtering criteria for score queries.
type Filters struct {
	JudgeID      *string `json:"judgeId,omitempty"`
	ContestantID *string `json:"contestantId,omitempty"`
	Certified    *bool   `json:"certified,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("JudgeID", f.JudgeID).
		WhereEquals("ContestantID", f.ContestantID).
		WhereEquals("Certified", f.Certified)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if j := values.Get("judgeId"); j != "" {
		f.JudgeID = &j
	}
	if c := values.Get("contestantId"); c != "" {
		f.ContestantID = &c
	}
	if v, err := strconv.ParseBool(values.Get("certified")); err == nil {
		f.Certified = &v
	}

	return f
}

func scanScore(s repository.Scanner) (Score, error) {
	var sc Score
	err := s.Scan(
		&sc.ID,
		&sc.CategoryID,
		&sc.ContestantID,
		&sc.JudgeID,
		&sc.CriterionID,
		&sc.Value,
		&sc.Certified,
		&sc.Notes,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	return sc, err
}
