package events

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/certify/pkg/query"
	"github.com/JaimeStill/certify/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "events", "e").
	Project("id", "ID").
	Project("name", "Name").
	Project("start_date", "StartDate").
	Project("end_date", "EndDate").
	Project("is_locked", "IsLocked").
	Project("locked_at", "LockedAt").
	Project("lock_verified_by", "LockVerifiedBy").
	Project("archived", "Archived").
	Project("archived_at", "ArchivedAt").
	Project("archive_key", "ArchiveKey").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const eventColumns = `id, name, start_date, end_date, is_locked, locked_at, lock_verified_by,
	archived, archived_at, archive_key, created_at, updated_at`

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for event queries.
type Filters struct {
	Locked   *bool `json:"locked,omitempty"`
	Archived *bool `json:"archived,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("IsLocked", f.Locked).
		WhereEquals("Archived", f.Archived)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v, err := strconv.ParseBool(values.Get("locked")); err == nil {
		f.Locked = &v
	}
	if v, err := strconv.ParseBool(values.Get("archived")); err == nil {
		f.Archived = &v
	}

	return f
}

func scanEvent(s repository.Scanner) (Event, error) {
	var e Event
	err := s.Scan(
		&e.ID,
		&e.Name,
		&e.StartDate,
		&e.EndDate,
		&e.IsLocked,
		&e.LockedAt,
		&e.LockVerifiedBy,
		&e.Archived,
		&e.ArchivedAt,
		&e.ArchiveKey,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func scanContest(s repository.Scanner) (Contest, error) {
	c := Contest{Categories: []CategorySummary{}}
	err := s.Scan(&c.ID, &c.EventID, &c.Name, &c.CreatedAt)
	return c, err
}

func scanCriterion(s repository.Scanner) (Criterion, error) {
	var c Criterion
	err := s.Scan(&c.ID, &c.Name, &c.MaxScore, &c.Position)
	return c, err
}

func scanJudge(s repository.Scanner) (Judge, error) {
	var j Judge
	err := s.Scan(&j.JudgeID, &j.JudgeName)
	return j, err
}

func scanContestant(s repository.Scanner) (Contestant, error) {
	var c Contestant
	err := s.Scan(&c.ContestantID, &c.ContestantName, &c.ContestantNumber)
	return c, err
}

func scanContestStatus(s repository.Scanner) (ContestStatus, error) {
	var c ContestStatus
	err := s.Scan(&c.ContestID, &c.Name, &c.BoardCertified)
	return c, err
}
