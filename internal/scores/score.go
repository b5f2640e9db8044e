package scores

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/certify/internal/events"
)

// Score is one cell of a category grid: a judge's value for a contestant
// on a criterion. A nil value is a placeholder awaiting entry.
type Score struct {
	ID           uuid.UUID           `json:"id"`
	CategoryID   uuid.UUID           `json:"categoryId"`
	ContestantID string              `json:"contestantId"`
	JudgeID      string              `json:"judgeId"`
	CriterionID  uuid.UUID           `json:"criterionId"`
	Value        decimal.NullDecimal `json:"value"`
	Certified    bool                `json:"certified"`
	Notes        string              `json:"notes"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// Status summarizes certification of a category's scores.
type Status struct {
	Total       int  `json:"total"`
	Uncertified int  `json:"uncertified"`
	Completed   bool `json:"completed"`
}

// NewStatus derives Completed from the counts.
func NewStatus(total, uncertified int) Status {
	return Status{
		Total:       total,
		Uncertified: uncertified,
		Completed:   uncertified == 0,
	}
}

// SubmitCommand records a judge's score.
type SubmitCommand struct {
	ContestantID string              `json:"contestantId"`
	CriterionID  uuid.UUID           `json:"criterionId"`
	Value        decimal.NullDecimal `json:"value"`
	Notes        string              `json:"notes,omitempty"`
}

// Check validates the command against the category the score belongs to.
func (c SubmitCommand) Check(category *events.Category, judgeID string) error {
	problems := map[string]string{}

	if !category.HasJudge(judgeID) {
		problems["judgeId"] = "judge not assigned to category"
	}
	if strings.TrimSpace(c.ContestantID) == "" {
		problems["contestantId"] = "required"
	} else if !category.HasContestant(c.ContestantID) {
		problems["contestantId"] = "contestant not in category"
	}

	criterion, ok := category.Criterion(c.CriterionID)
	if !ok {
		problems["criterionId"] = "criterion not in category"
	} else if c.Value.Valid {
		if err := CheckValue(c.Value.Decimal, criterion.MaxScore); err != nil {
			problems["value"] = err.Error()
		}
	}

	if len(problems) > 0 {
		return ErrInvalid.WithDetails(problems)
	}
	return nil
}

// CheckValue reports whether value lies within [0, max].
func CheckValue(value, max decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(max) {
		return fmt.Errorf("must be between 0 and %s", max.String())
	}
	return nil
}
