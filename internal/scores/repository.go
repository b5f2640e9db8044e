package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/internal/notifications"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/pagination"
	"github.com/JaimeStill/certify/pkg/query"
	"github.com/JaimeStill/certify/pkg/repository"
)

type repo struct {
	db         *sql.DB
	notify     notifications.Publisher
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a score repository implementing the System interface.
func New(
	db *sql.DB,
	notify notifications.Publisher,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		notify:     notify,
		logger:     logger.With("system", "scores"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

type submitted struct {
	score   Score
	created bool
}

func (r *repo) Submit(
	ctx context.Context,
	categoryID uuid.UUID,
	cmd SubmitCommand,
	judge auth.Identity,
) (*Score, bool, error) {
	out, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (submitted, error) {
		scope, err := events.CategoryScope(ctx, tx, categoryID)
		if err != nil {
			return submitted{}, err
		}
		if err := scope.EnsureUnlocked(); err != nil {
			return submitted{}, err
		}

		category, err := events.LoadCategory(ctx, tx, categoryID)
		if err != nil {
			return submitted{}, err
		}
		if err := cmd.Check(category, judge.ID); err != nil {
			return submitted{}, err
		}

		var out submitted
		err = tx.QueryRowContext(ctx, `
			INSERT INTO scores (category_id, contestant_id, judge_id, criterion_id, value, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT ON CONSTRAINT scores_grid_unique DO UPDATE
			SET value = EXCLUDED.value, notes = EXCLUDED.notes, updated_at = now()
			WHERE NOT scores.certified
			RETURNING `+scoreColumns+`, (xmax = 0)`,
			categoryID, cmd.ContestantID, judge.ID, cmd.CriterionID, cmd.Value, cmd.Notes,
		).Scan(
			&out.score.ID,
			&out.score.CategoryID,
			&out.score.ContestantID,
			&out.score.JudgeID,
			&out.score.CriterionID,
			&out.score.Value,
			&out.score.Certified,
			&out.score.Notes,
			&out.score.CreatedAt,
			&out.score.UpdatedAt,
			&out.created,
		)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return submitted{}, ErrCertified
		case repository.IsForeignKeyViolation(err):
			// The contestant or judge left the roster after it was checked.
			return submitted{}, ErrInvalid
		}
		return out, err
	})
	if err != nil {
		return nil, false, err
	}

	r.logger.Info("score submitted",
		"id", out.score.ID,
		"category", categoryID,
		"contestant", out.score.ContestantID,
		"criterion", out.score.CriterionID,
		"created", out.created,
		"actor", judge.ID,
		"role", judge.Role,
	)
	r.notify.Publish(ctx, notifications.ScoreSubmitted, out.score,
		authz.RoleTallyMaster, authz.RoleAuditor, authz.RoleBoard)

	return &out.score, out.created, nil
}

func (r *repo) List(
	ctx context.Context,
	categoryID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Score], error) {
	if err := r.ensureCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort, query.SortField{Field: "JudgeID"}, query.SortField{Field: "CriterionID"}).
		WhereEquals("CategoryID", categoryID)

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count scores: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanScore)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Status(ctx context.Context, categoryID uuid.UUID) (*Status, error) {
	if err := r.ensureCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	s, err := StatusOf(ctx, r.db, categoryID)
	if err != nil {
		return nil, fmt.Errorf("count scores: %w", err)
	}
	return &s, nil
}

func (r *repo) ensureCategory(ctx context.Context, categoryID uuid.UUID) error {
	ok, err := repository.Exists(ctx, r.db, "SELECT 1 FROM categories WHERE id = $1", categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return events.ErrCategoryNotFound
	}
	return nil
}
