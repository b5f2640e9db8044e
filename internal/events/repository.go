package events

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/JaimeStill/certify/internal/notifications"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/pagination"
	"github.com/JaimeStill/certify/pkg/query"
	"github.com/JaimeStill/certify/pkg/repository"
	"github.com/JaimeStill/certify/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	notify     notifications.Publisher
	clock      clockwork.Clock
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an event repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	notify notifications.Publisher,
	clock clockwork.Clock,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		notify:     notify,
		clock:      clock,
		logger:     logger.With("system", "events"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Event], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*EventDetail, error) {
	e, err := r.findEvent(ctx, r.db, id, "")
	if err != nil {
		return nil, err
	}

	contests, err := r.contests(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	return &EventDetail{Event: e, Contests: contests}, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand, actor auth.Identity) (*Event, error) {
	start, end, err := cmd.Validate()
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO events (name, start_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING ` + eventColumns

	e, err := repository.QueryOne(ctx, r.db, q, []any{cmd.Name, start, end}, scanEvent)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("event created", "id", e.ID, "name", e.Name, "actor", actor.ID, "role", actor.Role)
	return &e, nil
}

func (r *repo) CreateContest(
	ctx context.Context,
	eventID uuid.UUID,
	cmd CreateContestCommand,
	actor auth.Identity,
) (*Contest, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Contest, error) {
		e, err := r.findEvent(ctx, tx, eventID, forShare)
		if err != nil {
			return Contest{}, err
		}
		if e.IsLocked {
			return Contest{}, ErrLocked
		}

		return repository.QueryOne(ctx, tx, `
			INSERT INTO contests (event_id, name)
			VALUES ($1, $2)
			RETURNING id, event_id, name, created_at`,
			[]any{eventID, cmd.Name},
			scanContest,
		)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("contest created", "id", c.ID, "event", eventID, "actor", actor.ID, "role", actor.Role)
	return &c, nil
}

func (r *repo) CreateCategory(
	ctx context.Context,
	contestID uuid.UUID,
	cmd CreateCategoryCommand,
	actor auth.Identity,
) (*Category, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Category, error) {
		scope, err := ContestScope(ctx, tx, contestID)
		if err != nil {
			return nil, err
		}
		if err := scope.EnsureUnlocked(); err != nil {
			return nil, err
		}

		var id uuid.UUID
		if err := tx.QueryRowContext(ctx,
			"INSERT INTO categories (contest_id, name) VALUES ($1, $2) RETURNING id",
			contestID, cmd.Name,
		).Scan(&id); err != nil {
			return nil, err
		}

		for i, cr := range cmd.Criteria {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO criteria (category_id, name, max_score, position) VALUES ($1, $2, $3, $4)",
				id, cr.Name, cr.MaxScore, i,
			); err != nil {
				return nil, err
			}
		}

		for _, j := range cmd.Judges {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO category_judges (category_id, judge_id, judge_name) VALUES ($1, $2, $3)",
				id, j.JudgeID, j.JudgeName,
			); err != nil {
				return nil, err
			}
		}

		for _, ct := range cmd.Contestants {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO category_contestants (category_id, contestant_id, contestant_name, contestant_number)
				VALUES ($1, $2, $3, $4)`,
				id, ct.ContestantID, ct.ContestantName, ct.ContestantNumber,
			); err != nil {
				return nil, err
			}
		}

		return LoadCategory(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrContestNotFound, ErrDuplicate)
	}

	r.logger.Info("category created",
		"id", c.ID,
		"contest", contestID,
		"criteria", len(c.Criteria),
		"judges", len(c.Judges),
		"contestants", len(c.Contestants),
		"actor", actor.ID,
		"role", actor.Role,
	)
	return c, nil
}

func (r *repo) FindCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	return LoadCategory(ctx, r.db, id)
}

func (r *repo) Lock(ctx context.Context, id uuid.UUID, actor auth.Identity) (*Event, bool, error) {
	type outcome struct {
		event   Event
		changed bool
	}

	out, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (outcome, error) {
		e, err := r.findEvent(ctx, tx, id, forUpdate)
		if err != nil {
			return outcome{}, err
		}
		if e.IsLocked {
			return outcome{event: e}, nil
		}

		statuses, err := repository.QueryMany(ctx, tx, `
			SELECT c.id, c.name, EXISTS (
				SELECT 1 FROM certifications cert
				WHERE cert.contest_id = c.id AND cert.role = 'BOARD' AND cert.revoked_at IS NULL
			)
			FROM contests c
			WHERE c.event_id = $1
			ORDER BY c.name`,
			[]any{id}, scanContestStatus,
		)
		if err != nil {
			return outcome{}, err
		}

		if err := CheckLockable(statuses); err != nil {
			return outcome{}, err
		}

		now := r.clock.Now().UTC()
		locked, err := repository.QueryOne(ctx, tx, `
			UPDATE events
			SET is_locked = true, locked_at = $2, lock_verified_by = $3, updated_at = $2
			WHERE id = $1
			RETURNING `+eventColumns,
			[]any{id, now, actor.ID},
			scanEvent,
		)
		if err != nil {
			return outcome{}, err
		}
		return outcome{event: locked, changed: true}, nil
	})
	if err != nil {
		return nil, false, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if out.changed {
		r.logger.Info("event locked", "id", id, "actor", actor.ID, "role", actor.Role)
		r.notify.Publish(ctx, notifications.EventLocked, out.event)
	}
	return &out.event, out.changed, nil
}

func (r *repo) Unlock(ctx context.Context, id uuid.UUID, actor auth.Identity) (*Event, error) {
	type outcome struct {
		event   Event
		changed bool
	}

	out, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (outcome, error) {
		e, err := r.findEvent(ctx, tx, id, forUpdate)
		if err != nil {
			return outcome{}, err
		}
		if e.Archived {
			return outcome{}, ErrArchived
		}
		if !e.IsLocked {
			return outcome{event: e}, nil
		}

		unlocked, err := repository.QueryOne(ctx, tx, `
			UPDATE events
			SET is_locked = false, locked_at = NULL, lock_verified_by = NULL, updated_at = $2
			WHERE id = $1
			RETURNING `+eventColumns,
			[]any{id, r.clock.Now().UTC()},
			scanEvent,
		)
		if err != nil {
			return outcome{}, err
		}
		return outcome{event: unlocked, changed: true}, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if out.changed {
		r.logger.Info("event unlocked", "id", id, "actor", actor.ID, "role", actor.Role)
		r.notify.Publish(ctx, notifications.EventUnlocked, out.event)
	}
	return &out.event, nil
}

func (r *repo) Archive(ctx context.Context, id uuid.UUID, actor auth.Identity) (*Event, error) {
	e, err := r.findEvent(ctx, r.db, id, "")
	if err != nil {
		return nil, err
	}
	if e.Archived {
		return &e, nil
	}
	if !e.IsLocked {
		return nil, ErrNotLocked
	}

	now := r.clock.Now().UTC()
	doc, err := r.buildArchive(ctx, e, now, actor)
	if err != nil {
		return nil, fmt.Errorf("build archive: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}

	key := ArchiveKey(id, now)
	if err := r.storage.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return nil, fmt.Errorf("upload archive: %w", err)
	}

	archived, err := repository.QueryOne(ctx, r.db, `
		UPDATE events
		SET archived = true, archived_at = $2, archive_key = $3, updated_at = $2
		WHERE id = $1 AND is_locked AND NOT archived
		RETURNING `+eventColumns,
		[]any{id, now, key},
		scanEvent,
	)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating archive delete failed", "key", key, "error", delErr)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		current, findErr := r.findEvent(ctx, r.db, id, "")
		if findErr != nil {
			return nil, findErr
		}
		if current.Archived {
			return &current, nil
		}
		return nil, ErrNotLocked
	}

	r.logger.Info("event archived", "id", id, "key", key, "bytes", len(data), "actor", actor.ID, "role", actor.Role)
	r.notify.Publish(ctx, notifications.EventArchived, archived, authz.RoleAdmin, authz.RoleBoard)
	return &archived, nil
}

func (r *repo) Restore(ctx context.Context, id uuid.UUID, actor auth.Identity) (*Event, error) {
	e, err := r.findEvent(ctx, r.db, id, "")
	if err != nil {
		return nil, err
	}
	if !e.Archived {
		return &e, nil
	}

	restored, err := repository.QueryOne(ctx, r.db, `
		UPDATE events
		SET archived = false, archived_at = NULL, updated_at = $2
		WHERE id = $1
		RETURNING `+eventColumns,
		[]any{id, r.clock.Now().UTC()},
		scanEvent,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("event restored", "id", id, "actor", actor.ID, "role", actor.Role)
	return &restored, nil
}

const (
	forShare  = "FOR SHARE"
	forUpdate = "FOR UPDATE"
)

func (r *repo) findEvent(ctx context.Context, q repository.Querier, id uuid.UUID, lock string) (Event, error) {
	stmt := "SELECT " + eventColumns + " FROM events WHERE id = $1 " + lock

	e, err := repository.QueryOne(ctx, q, stmt, []any{id}, scanEvent)
	if err != nil {
		return Event{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return e, nil
}

func (r *repo) contests(ctx context.Context, q repository.Querier, eventID uuid.UUID) ([]Contest, error) {
	contests, err := repository.QueryMany(ctx, q,
		"SELECT id, event_id, name, created_at FROM contests WHERE event_id = $1 ORDER BY name",
		[]any{eventID}, scanContest,
	)
	if err != nil {
		return nil, fmt.Errorf("query contests: %w", err)
	}

	type row struct {
		contestID uuid.UUID
		summary   CategorySummary
	}

	rows, err := repository.QueryMany(ctx, q, `
		SELECT cat.contest_id, cat.id, cat.name
		FROM categories cat
		JOIN contests c ON c.id = cat.contest_id
		WHERE c.event_id = $1
		ORDER BY cat.name`,
		[]any{eventID},
		func(s repository.Scanner) (row, error) {
			var rw row
			err := s.Scan(&rw.contestID, &rw.summary.ID, &rw.summary.Name)
			return rw, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	index := make(map[uuid.UUID]int, len(contests))
	for i, c := range contests {
		index[c.ID] = i
	}
	for _, rw := range rows {
		i := index[rw.contestID]
		contests[i].Categories = append(contests[i].Categories, rw.summary)
	}

	return contests, nil
}

func (r *repo) buildArchive(ctx context.Context, e Event, at time.Time, actor auth.Identity) (*Archive, error) {
	contests, err := r.contests(ctx, r.db, e.ID)
	if err != nil {
		return nil, err
	}

	doc := &Archive{
		Event:      e,
		Contests:   make([]ArchivedContest, 0, len(contests)),
		ArchivedAt: at,
		ArchivedBy: actor.ID,
	}

	for _, c := range contests {
		ac := ArchivedContest{ID: c.ID, Name: c.Name, Categories: make([]Category, 0, len(c.Categories))}
		for _, summary := range c.Categories {
			cat, err := LoadCategory(ctx, r.db, summary.ID)
			if err != nil {
				return nil, err
			}
			ac.Categories = append(ac.Categories, *cat)
		}
		doc.Contests = append(doc.Contests, ac)
	}

	doc.Certifications, err = repository.QueryMany(ctx, r.db, `
		SELECT cert.id, cert.category_id, cert.contest_id, cert.judge_id, cert.role,
			cert.user_id, cert.signature_name, cert.certified_at, cert.comments
		FROM certifications cert
		LEFT JOIN categories cat ON cat.id = cert.category_id
		JOIN contests c ON c.id = COALESCE(cat.contest_id, cert.contest_id)
		WHERE c.event_id = $1 AND cert.revoked_at IS NULL
		ORDER BY cert.certified_at`,
		[]any{e.ID},
		func(s repository.Scanner) (ArchivedCertificate, error) {
			var a ArchivedCertificate
			err := s.Scan(
				&a.ID, &a.CategoryID, &a.ContestID, &a.JudgeID, &a.Role,
				&a.UserID, &a.SignatureName, &a.CertifiedAt, &a.Comments,
			)
			return a, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("query certifications: %w", err)
	}

	return doc, nil
}
