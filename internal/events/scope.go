package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/repository"
)

// Scope places a category or contest within its event and carries the
// event's lock state. Loading a scope inside a transaction takes a share
// lock on the event row, so a concurrent Lock waits for the write to finish.
type Scope struct {
	EventID    uuid.UUID
	ContestID  uuid.UUID
	CategoryID uuid.UUID
	Locked     bool
	Archived   bool
}

// EnsureUnlocked returns ErrLocked when the event is locked.
func (s Scope) EnsureUnlocked() error {
	if s.Locked {
		return ErrLocked
	}
	return nil
}

const categoryScopeQuery = `
	SELECT e.id, c.id, cat.id, e.is_locked, e.archived
	FROM categories cat
	JOIN contests c ON c.id = cat.contest_id
	JOIN events e ON e.id = c.event_id
	WHERE cat.id = $1
	FOR SHARE OF e`

const contestScopeQuery = `
	SELECT e.id, c.id, e.is_locked, e.archived
	FROM contests c
	JOIN events e ON e.id = c.event_id
	WHERE c.id = $1
	FOR SHARE OF e`

// CategoryScope loads the scope of a category.
func CategoryScope(ctx context.Context, q repository.Querier, categoryID uuid.UUID) (Scope, error) {
	s, err := repository.QueryOne(ctx, q, categoryScopeQuery, []any{categoryID}, func(sc repository.Scanner) (Scope, error) {
		var s Scope
		err := sc.Scan(&s.EventID, &s.ContestID, &s.CategoryID, &s.Locked, &s.Archived)
		return s, err
	})
	if err != nil {
		return Scope{}, repository.MapError(err, ErrCategoryNotFound, ErrDuplicate)
	}
	return s, nil
}

// ContestScope loads the scope of a contest. CategoryID is zero.
func ContestScope(ctx context.Context, q repository.Querier, contestID uuid.UUID) (Scope, error) {
	s, err := repository.QueryOne(ctx, q, contestScopeQuery, []any{contestID}, func(sc repository.Scanner) (Scope, error) {
		var s Scope
		err := sc.Scan(&s.EventID, &s.ContestID, &s.Locked, &s.Archived)
		return s, err
	})
	if err != nil {
		return Scope{}, repository.MapError(err, ErrContestNotFound, ErrDuplicate)
	}
	return s, nil
}

// ContestCategoryIDs returns the ids of every category in a contest, ordered by name.
func ContestCategoryIDs(ctx context.Context, q repository.Querier, contestID uuid.UUID) ([]uuid.UUID, error) {
	return repository.QueryMany(ctx, q,
		"SELECT id FROM categories WHERE contest_id = $1 ORDER BY name",
		[]any{contestID},
		func(s repository.Scanner) (uuid.UUID, error) {
			var id uuid.UUID
			err := s.Scan(&id)
			return id, err
		},
	)
}

// LoadCategory loads a category with its criteria, judges, and contestants.
func LoadCategory(ctx context.Context, q repository.Querier, id uuid.UUID) (*Category, error) {
	c, err := repository.QueryOne(ctx, q, `
		SELECT cat.id, cat.contest_id, c.event_id, cat.name, cat.created_at
		FROM categories cat
		JOIN contests c ON c.id = cat.contest_id
		WHERE cat.id = $1`,
		[]any{id},
		func(s repository.Scanner) (Category, error) {
			var c Category
			err := s.Scan(&c.ID, &c.ContestID, &c.EventID, &c.Name, &c.CreatedAt)
			return c, err
		},
	)
	if err != nil {
		return nil, repository.MapError(err, ErrCategoryNotFound, ErrDuplicate)
	}

	if c.Criteria, err = repository.QueryMany(ctx, q,
		"SELECT id, name, max_score, position FROM criteria WHERE category_id = $1 ORDER BY position, name",
		[]any{id}, scanCriterion,
	); err != nil {
		return nil, err
	}

	if c.Judges, err = repository.QueryMany(ctx, q,
		"SELECT judge_id, judge_name FROM category_judges WHERE category_id = $1 ORDER BY judge_id",
		[]any{id}, scanJudge,
	); err != nil {
		return nil, err
	}

	if c.Contestants, err = repository.QueryMany(ctx, q,
		`SELECT contestant_id, contestant_name, contestant_number
		FROM category_contestants WHERE category_id = $1
		ORDER BY contestant_number NULLS LAST, contestant_id`,
		[]any{id}, scanContestant,
	); err != nil {
		return nil, err
	}

	return &c, nil
}

// HasJudge reports whether judgeID is assigned to the category.
func (c *Category) HasJudge(judgeID string) bool {
	for _, j := range c.Judges {
		if j.JudgeID == judgeID {
			return true
		}
	}
	return false
}

// HasContestant reports whether contestantID is entered in the category.
func (c *Category) HasContestant(contestantID string) bool {
	for _, ct := range c.Contestants {
		if ct.ContestantID == contestantID {
			return true
		}
	}
	return false
}

// Criterion returns the criterion with id, if it belongs to the category.
func (c *Category) Criterion(id uuid.UUID) (Criterion, bool) {
	for _, cr := range c.Criteria {
		if cr.ID == id {
			return cr, true
		}
	}
	return Criterion{}, false
}
