package certifications

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/internal/notifications"
	"github.com/JaimeStill/certify/internal/progress"
	"github.com/JaimeStill/certify/internal/scores"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/query"
	"github.com/JaimeStill/certify/pkg/repository"
)

type repo struct {
	db     *sql.DB
	notify notifications.Publisher
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates a certification repository implementing the System interface.
func New(
	db *sql.DB,
	notify notifications.Publisher,
	clock clockwork.Clock,
	logger *slog.Logger,
) System {
	return &repo{
		db:     db,
		notify: notify,
		clock:  clock,
		logger: logger.With("system", "certifications"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) CertifyScores(
	ctx context.Context,
	categoryID uuid.UUID,
	cmd SignCommand,
	actor auth.Identity,
) (*CertifyResult, error) {
	role, err := CertifyRole(actor, cmd.Role)
	if err != nil {
		return nil, err
	}

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*CertifyResult, error) {
		scope, err := events.CategoryScope(ctx, tx, categoryID)
		if err != nil {
			return nil, err
		}
		if err := scope.EnsureUnlocked(); err != nil {
			return nil, err
		}

		in, err := progress.Load(ctx, tx, categoryID)
		if err != nil {
			return nil, err
		}

		judges, err := pendingJudges(in, role, actor.ID)
		if err != nil {
			return nil, err
		}

		judgeScope := ""
		if role == progress.RoleJudge {
			judgeScope = actor.ID
		}
		if missing := progress.Missing(in.Category, in.Cells, judgeScope); len(missing) > 0 {
			return nil, ErrIncomplete.WithDetails(map[string]any{"missing": missing})
		}

		certified, err := scores.MarkCertified(ctx, tx, categoryID, judgeScope)
		if err != nil {
			return nil, err
		}

		now := r.clock.Now().UTC()
		result := &CertifyResult{Role: role, CertifiedScores: certified, Certifications: []Certification{}}
		for _, judgeID := range judges {
			c, err := insert(ctx, tx, record{
				categoryID:    &categoryID,
				judgeID:       &judgeID,
				role:          role,
				userID:        actor.ID,
				signatureName: cmd.Signature(actor),
				comments:      cmd.Comments,
				tenantID:      actor.TenantID,
				at:            now,
			})
			if err != nil {
				return nil, err
			}
			result.Certifications = append(result.Certifications, c)
		}
		return result, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrAlreadyCertified)
	}

	r.logger.Info("scores certified",
		"category", categoryID,
		"role", role,
		"scores", result.CertifiedScores,
		"records", len(result.Certifications),
		"actor", actor.ID,
	)
	r.notify.Publish(ctx, notifications.ScoresCertified, map[string]any{
		"categoryId": categoryID,
		"role":       role,
		"result":     result,
	}, authz.RoleTallyMaster, authz.RoleAuditor, authz.RoleBoard, authz.RoleJudge)

	return result, nil
}

// pendingJudges returns the judges a certification under role is written
// for: the acting judge for JUDGE, every assigned judge lacking a record
// for TALLY_MASTER.
func pendingJudges(in progress.Input, role, actorID string) ([]string, error) {
	if progress.Expected(in.Category) == 0 {
		return nil, ErrIncomplete.WithMessage("category has no score grid")
	}

	held := map[string]bool{}
	for _, c := range in.Certifications {
		if c.Role == role && c.JudgeID != nil {
			held[*c.JudgeID] = true
		}
	}

	if role == progress.RoleJudge {
		if !in.Category.HasJudge(actorID) {
			return nil, ErrInvalid.WithDetails(map[string]string{"judgeId": "judge not assigned to category"})
		}
		if held[actorID] {
			return nil, ErrAlreadyCertified
		}
		return []string{actorID}, nil
	}

	var pending []string
	for _, j := range in.Category.Judges {
		if !held[j.JudgeID] {
			pending = append(pending, j.JudgeID)
		}
	}
	if len(pending) == 0 {
		return nil, ErrAlreadyCertified
	}
	return pending, nil
}

func (r *repo) FinalStatus(ctx context.Context, categoryID uuid.UUID) (*progress.Category, error) {
	in, err := progress.Load(ctx, r.db, categoryID)
	if err != nil {
		return nil, err
	}
	p := progress.Compute(in)
	return &p, nil
}

func (r *repo) SubmitFinal(
	ctx context.Context,
	categoryID uuid.UUID,
	cmd SignCommand,
	actor auth.Identity,
) (*Certification, error) {
	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certification, error) {
		scope, err := events.CategoryScope(ctx, tx, categoryID)
		if err != nil {
			return Certification{}, err
		}
		if err := scope.EnsureUnlocked(); err != nil {
			return Certification{}, err
		}

		in, err := progress.Load(ctx, tx, categoryID)
		if err != nil {
			return Certification{}, err
		}

		p := progress.Compute(in)
		if p.AuditorCertified {
			return Certification{}, ErrAlreadyCertified
		}
		if !p.ReadyForFinalCertification {
			return Certification{}, ErrNotReady.WithDetails(p)
		}

		return insert(ctx, tx, record{
			categoryID:    &categoryID,
			role:          progress.RoleAuditor,
			userID:        actor.ID,
			signatureName: cmd.Signature(actor),
			comments:      cmd.Comments,
			tenantID:      actor.TenantID,
			at:            r.clock.Now().UTC(),
		})
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrAlreadyCertified)
	}

	r.logger.Info("final certification submitted", "id", c.ID, "category", categoryID, "actor", actor.ID, "role", actor.Role)
	r.notify.Publish(ctx, notifications.CertificationSubmitted, c, authz.RoleAuditor, authz.RoleBoard, authz.RoleTallyMaster)

	return &c, nil
}

func (r *repo) CertifyContest(
	ctx context.Context,
	contestID uuid.UUID,
	cmd SignCommand,
	actor auth.Identity,
) (*Certification, error) {
	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certification, error) {
		scope, err := events.ContestScope(ctx, tx, contestID)
		if err != nil {
			return Certification{}, err
		}
		if err := scope.EnsureUnlocked(); err != nil {
			return Certification{}, err
		}

		board, err := progress.BoardCertification(ctx, tx, contestID)
		if err != nil {
			return Certification{}, err
		}
		if board != nil {
			return Certification{}, ErrAlreadyCertified
		}

		type pending struct {
			ID   uuid.UUID `json:"id"`
			Name string    `json:"name"`
		}

		ids, err := events.ContestCategoryIDs(ctx, tx, contestID)
		if err != nil {
			return Certification{}, err
		}
		if len(ids) == 0 {
			return Certification{}, ErrCategoriesUncertified.WithMessage("contest has no categories")
		}

		uncertified, err := repository.QueryMany(ctx, tx, `
			SELECT cat.id, cat.name
			FROM categories cat
			WHERE cat.contest_id = $1 AND NOT EXISTS (
				SELECT 1 FROM certifications cert
				WHERE cert.category_id = cat.id AND cert.role = 'AUDITOR' AND cert.revoked_at IS NULL
			)
			ORDER BY cat.name`,
			[]any{contestID},
			func(s repository.Scanner) (pending, error) {
				var p pending
				err := s.Scan(&p.ID, &p.Name)
				return p, err
			},
		)
		if err != nil {
			return Certification{}, err
		}
		if len(uncertified) > 0 {
			return Certification{}, ErrCategoriesUncertified.WithDetails(map[string]any{"categories": uncertified})
		}

		return insert(ctx, tx, record{
			contestID:     &contestID,
			role:          progress.RoleBoard,
			userID:        actor.ID,
			signatureName: cmd.Signature(actor),
			comments:      cmd.Comments,
			tenantID:      actor.TenantID,
			at:            r.clock.Now().UTC(),
		})
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrAlreadyCertified)
	}

	r.logger.Info("contest certified", "id", c.ID, "contest", contestID, "actor", actor.ID, "role", actor.Role)
	r.notify.Publish(ctx, notifications.ContestCertified, c, authz.RoleBoard, authz.RoleAuditor, authz.RoleOrganizer)

	return &c, nil
}

func (r *repo) Reset(
	ctx context.Context,
	categoryID uuid.UUID,
	cmd ResetCommand,
	actor auth.Identity,
) (*ResetResult, error) {
	if err := cmd.Normalize(actor); err != nil {
		return nil, err
	}
	plan := PlanReset(cmd.Role, cmd.judge())

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*ResetResult, error) {
		scope, err := events.CategoryScope(ctx, tx, categoryID)
		if err != nil {
			return nil, err
		}
		if err := scope.EnsureUnlocked(); err != nil {
			return nil, err
		}

		revoked, err := Revoke(ctx, tx, categoryID, scope.ContestID, plan, actor.ID, r.clock.Now().UTC())
		if err != nil {
			return nil, err
		}

		if !revokedTarget(revoked, plan) {
			return nil, ErrNotFound
		}

		result := &ResetResult{Revoked: revoked}
		if !plan.Uncertify {
			return result, nil
		}

		var attested []string
		if plan.KeepAttested {
			if attested, err = attestedJudges(ctx, tx, categoryID); err != nil {
				return nil, err
			}
		}
		if result.UncertifiedScores, err = scores.Uncertify(ctx, tx, categoryID, plan.JudgeID, attested...); err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("certification reset",
		"category", categoryID,
		"target", cmd.Role,
		"judge", plan.JudgeID,
		"revoked", len(result.Revoked),
		"uncertified", result.UncertifiedScores,
		"reason", cmd.Reason,
		"actor", actor.ID,
		"role", actor.Role,
	)
	r.notify.Publish(ctx, notifications.CertificationReset, map[string]any{
		"categoryId": categoryID,
		"role":       cmd.Role,
		"judgeId":    cmd.JudgeID,
		"revoked":    result.Revoked,
	})

	return result, nil
}

func revokedTarget(revoked []Certification, plan Plan) bool {
	for _, c := range revoked {
		if c.Role != plan.Target {
			continue
		}
		if plan.JudgeID == "" || c.JudgeID == nil || *c.JudgeID == plan.JudgeID {
			return true
		}
	}
	return false
}

func (r *repo) List(ctx context.Context, categoryID uuid.UUID) ([]Certification, error) {
	ok, err := repository.Exists(ctx, r.db, "SELECT 1 FROM categories WHERE id = $1", categoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, events.ErrCategoryNotFound
	}

	return repository.QueryMany(ctx, r.db,
		"SELECT "+columns+" FROM certifications WHERE category_id = $1 ORDER BY certified_at, role",
		[]any{categoryID}, scanCertification,
	)
}

func (r *repo) ListContest(ctx context.Context, contestID uuid.UUID, filters HistoryFilters) ([]Certification, error) {
	ok, err := repository.Exists(ctx, r.db, "SELECT 1 FROM contests WHERE id = $1", contestID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, events.ErrContestNotFound
	}

	qb := query.NewBuilder(history, historySort...).WhereEquals("OwningContestID", contestID)
	filters.Apply(qb)

	stmt, args := qb.Build()
	return repository.QueryMany(ctx, r.db, stmt, args, scanCertification)
}
