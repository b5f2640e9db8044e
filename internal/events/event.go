package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Event is the top of the scoring hierarchy and the unit of the Board lock.
type Event struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	IsLocked       bool       `json:"isLocked"`
	LockedAt       *time.Time `json:"lockedAt,omitempty"`
	LockVerifiedBy *string    `json:"lockVerifiedBy,omitempty"`
	Archived       bool       `json:"archived"`
	ArchivedAt     *time.Time `json:"archivedAt,omitempty"`
	ArchiveKey     *string    `json:"archiveKey,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// EventDetail is an event with its contests and their categories.
type EventDetail struct {
	Event
	Contests []Contest `json:"contests"`
}

// Contest groups categories within an event.
type Contest struct {
	ID         uuid.UUID         `json:"id"`
	EventID    uuid.UUID         `json:"eventId"`
	Name       string            `json:"name"`
	CreatedAt  time.Time         `json:"createdAt"`
	Categories []CategorySummary `json:"categories"`
}

// CategorySummary identifies a category inside a contest listing.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Category is the smallest scored unit. Its score grid is
// contestants x judges x criteria.
type Category struct {
	ID          uuid.UUID    `json:"id"`
	ContestID   uuid.UUID    `json:"contestId"`
	EventID     uuid.UUID    `json:"eventId"`
	Name        string       `json:"name"`
	CreatedAt   time.Time    `json:"createdAt"`
	Criteria    []Criterion  `json:"criteria"`
	Judges      []Judge      `json:"judges"`
	Contestants []Contestant `json:"contestants"`
}

// Criterion is a scored dimension of a category.
type Criterion struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	MaxScore decimal.Decimal `json:"maxScore"`
	Position int             `json:"position"`
}

// Judge is a judge assigned to a category. JudgeID is the judge's identity subject.
type Judge struct {
	JudgeID   string `json:"judgeId"`
	JudgeName string `json:"judgeName"`
}

// Contestant is a contestant entered in a category.
type Contestant struct {
	ContestantID     string `json:"contestantId"`
	ContestantName   string `json:"contestantName"`
	ContestantNumber *int   `json:"contestantNumber,omitempty"`
}

// CreateCommand creates an event. Dates use YYYY-MM-DD.
type CreateCommand struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Validate checks the command and returns the parsed dates.
func (c CreateCommand) Validate() (start, end *time.Time, err error) {
	problems := map[string]string{}

	if strings.TrimSpace(c.Name) == "" {
		problems["name"] = "required"
	}

	start, ok := parseDate(c.StartDate)
	if !ok {
		problems["startDate"] = "must be YYYY-MM-DD"
	}
	end, ok = parseDate(c.EndDate)
	if !ok {
		problems["endDate"] = "must be YYYY-MM-DD"
	}
	if start != nil && end != nil && end.Before(*start) {
		problems["endDate"] = "must not precede startDate"
	}

	if len(problems) > 0 {
		return nil, nil, ErrInvalid.WithDetails(problems)
	}
	return start, end, nil
}

// CreateContestCommand creates a contest in an event.
type CreateContestCommand struct {
	Name string `json:"name"`
}

// Validate checks the command.
func (c CreateContestCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalid.WithDetails(map[string]string{"name": "required"})
	}
	return nil
}

// CriterionInput describes a criterion to create.
type CriterionInput struct {
	Name     string          `json:"name"`
	MaxScore decimal.Decimal `json:"maxScore"`
}

// CreateCategoryCommand creates a category with its criteria and assignments.
type CreateCategoryCommand struct {
	Name        string           `json:"name"`
	Criteria    []CriterionInput `json:"criteria"`
	Judges      []Judge          `json:"judges"`
	Contestants []Contestant     `json:"contestants"`
}

// Validate checks the command. Contestants without an id are assigned one.
func (c *CreateCategoryCommand) Validate() error {
	problems := map[string]string{}

	if strings.TrimSpace(c.Name) == "" {
		problems["name"] = "required"
	}

	if len(c.Criteria) == 0 {
		problems["criteria"] = "at least one criterion required"
	}
	for i, cr := range c.Criteria {
		if strings.TrimSpace(cr.Name) == "" {
			problems[field("criteria", i, "name")] = "required"
		}
		if !cr.MaxScore.IsPositive() {
			problems[field("criteria", i, "maxScore")] = "must be greater than zero"
		}
	}

	judges := map[string]bool{}
	for i, j := range c.Judges {
		id := strings.TrimSpace(j.JudgeID)
		switch {
		case id == "":
			problems[field("judges", i, "judgeId")] = "required"
		case judges[id]:
			problems[field("judges", i, "judgeId")] = "duplicate judge"
		}
		judges[id] = true
	}

	contestants := map[string]bool{}
	for i := range c.Contestants {
		if strings.TrimSpace(c.Contestants[i].ContestantID) == "" {
			c.Contestants[i].ContestantID = uuid.NewString()
		}
		id := c.Contestants[i].ContestantID
		if contestants[id] {
			problems[field("contestants", i, "contestantId")] = "duplicate contestant"
		}
		contestants[id] = true
	}

	if len(problems) > 0 {
		return ErrInvalid.WithDetails(problems)
	}
	return nil
}

func field(collection string, i int, name string) string {
	return fmt.Sprintf("%s[%d].%s", collection, i, name)
}

func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
