package removals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/JaimeStill/certify/internal/certifications"
	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/internal/notifications"
	"github.com/JaimeStill/certify/internal/scores"
	"github.com/JaimeStill/certify/pkg/auth"
	"github.com/JaimeStill/certify/pkg/authz"
	"github.com/JaimeStill/certify/pkg/pagination"
	"github.com/JaimeStill/certify/pkg/query"
	"github.com/JaimeStill/certify/pkg/repository"
)

const pendingIndex = "score_removal_requests_pending_unique"

var signers = []string{authz.RoleTallyMaster, authz.RoleAuditor, authz.RoleBoard}

type repo struct {
	db         *sql.DB
	notify     notifications.Publisher
	clock      clockwork.Clock
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a removal request repository implementing the System interface.
func New(
	db *sql.DB,
	notify notifications.Publisher,
	clock clockwork.Clock,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		notify:     notify,
		clock:      clock,
		logger:     logger.With("system", "removals"),
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
) (*pagination.PageResult[Request], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count removal requests: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("query removal requests: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Request, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)
	req, err := repository.QueryOne(ctx, r.db, q, args, scanRequest)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicatePending)
	}
	return &req, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand, actor auth.Identity) (*Request, error) {
	if err := cmd.Normalize(actor); err != nil {
		return nil, err
	}

	req, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Request, error) {
		category, err := events.LoadCategory(ctx, tx, cmd.CategoryID)
		if errors.Is(err, events.ErrCategoryNotFound) {
			return Request{}, ErrInvalid.WithDetails(map[string]string{"categoryId": "category not found"})
		}
		if err != nil {
			return Request{}, err
		}
		if !category.HasJudge(cmd.JudgeID) {
			return Request{}, ErrInvalid.WithDetails(map[string]string{"judgeId": "judge not assigned to category"})
		}

		pending, err := repository.Exists(ctx, tx, `
			SELECT 1 FROM score_removal_requests
			WHERE category_id = $1 AND judge_id = $2 AND status = $3`,
			cmd.CategoryID, cmd.JudgeID, string(StatusPending),
		)
		if err != nil {
			return Request{}, err
		}
		if pending {
			return Request{}, ErrDuplicatePending
		}

		return repository.QueryOne(ctx, tx, `
			INSERT INTO score_removal_requests
				(category_id, judge_id, reason, requested_by, requested_at, status, tenant_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+requestColumns,
			[]any{cmd.CategoryID, cmd.JudgeID, cmd.Reason, actor.ID, r.clock.Now().UTC(), string(StatusPending), actor.TenantID},
			scanRequest,
		)
	})
	if err != nil {
		if repository.IsUniqueViolation(err, pendingIndex) {
			return nil, ErrDuplicatePending
		}
		return nil, err
	}

	r.logger.Info("removal requested",
		"id", req.ID,
		"category", req.CategoryID,
		"judge", req.JudgeID,
		"actor", actor.ID,
		"role", actor.Role,
	)
	r.notify.Publish(ctx, notifications.RemovalCreated, req, signers...)

	return &req, nil
}

func (r *repo) Sign(ctx context.Context, id uuid.UUID, cmd SignCommand, actor auth.Identity) (*SignResult, error) {
	role, err := cmd.SignerRole(actor)
	if err != nil {
		return nil, err
	}

	signature := cmd.SignatureName
	if signature == "" {
		signature = actor.DisplayName()
	}

	req, err := r.transition(ctx, id, func(req *Request) error {
		return req.Sign(role, actor.ID, signature, r.clock.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("removal signed",
		"id", req.ID,
		"role", role,
		"all_signed", req.AllSigned,
		"actor", actor.ID,
	)
	r.notify.Publish(ctx, notifications.RemovalSigned, map[string]any{
		"request":   req,
		"role":      role,
		"allSigned": req.AllSigned,
	}, append(signers, authz.RoleAdmin)...)

	return &SignResult{Request: req, AllSigned: req.AllSigned}, nil
}

func (r *repo) Reject(ctx context.Context, id uuid.UUID, cmd RejectCommand, actor auth.Identity) (*Request, error) {
	req, err := r.transition(ctx, id, func(req *Request) error {
		return req.Reject(actor.ID, cmd.Reason, r.clock.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("removal rejected",
		"id", req.ID,
		"actor", actor.ID,
		"role", actor.Role,
	)
	r.notify.Publish(ctx, notifications.RemovalRejected, req,
		append(signers, authz.RoleJudge, authz.RoleAdmin)...)

	return req, nil
}

func (r *repo) Execute(ctx context.Context, id uuid.UUID, actor auth.Identity) (*ExecuteResult, error) {
	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*ExecuteResult, error) {
		req, err := lockRequest(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if err := req.CanExecute(); err != nil {
			return nil, err
		}

		scope, err := events.CategoryScope(ctx, tx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		if err := scope.EnsureUnlocked(); err != nil {
			return nil, err
		}

		deleted, err := scores.DeleteForJudge(ctx, tx, req.CategoryID, req.JudgeID)
		if err != nil {
			return nil, err
		}

		now := r.clock.Now().UTC()
		revoked, err := certifications.RevokeForRemoval(ctx, tx, req.CategoryID, scope.ContestID, req.JudgeID, actor.ID, now)
		if err != nil {
			return nil, err
		}

		req.Execute(actor.ID, int(deleted), now)
		if err := save(ctx, tx, req); err != nil {
			return nil, err
		}

		return &ExecuteResult{DeletedCount: int(deleted), Request: req, Revoked: revoked}, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("removal executed",
		"id", result.Request.ID,
		"category", result.Request.CategoryID,
		"judge", result.Request.JudgeID,
		"deleted", result.DeletedCount,
		"revoked", len(result.Revoked),
		"actor", actor.ID,
		"role", actor.Role,
	)
	r.notify.Publish(ctx, notifications.RemovalExecuted, result)

	return result, nil
}

// transition applies fn to the locked request and persists the result.
func (r *repo) transition(ctx context.Context, id uuid.UUID, fn func(*Request) error) (*Request, error) {
	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Request, error) {
		req, err := lockRequest(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(req); err != nil {
			return nil, err
		}
		if err := save(ctx, tx, req); err != nil {
			return nil, err
		}
		return req, nil
	})
}

func lockRequest(ctx context.Context, q repository.Querier, id uuid.UUID) (*Request, error) {
	stmt, args := query.NewBuilder(projection).WhereEquals("ID", id).BuildForUpdate()
	req, err := repository.QueryOne(ctx, q, stmt, args, scanRequest)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicatePending)
	}
	return &req, nil
}

func save(ctx context.Context, e repository.Executor, req *Request) error {
	return repository.ExecExpectOne(ctx, e, `
		UPDATE score_removal_requests SET
			status = $2,
			tally_signature = $3, tally_signed_at = $4, tally_signed_by = $5,
			auditor_signature = $6, auditor_signed_at = $7, auditor_signed_by = $8,
			board_signature = $9, board_signed_at = $10, board_signed_by = $11,
			rejected_by = $12, rejected_at = $13, rejection_reason = $14,
			executed_by = $15, executed_at = $16, deleted_count = $17
		WHERE id = $1`,
		req.ID,
		string(req.Status),
		req.TallySignature, req.TallySignedAt, req.TallySignedBy,
		req.AuditorSignature, req.AuditorSignedAt, req.AuditorSignedBy,
		req.BoardSignature, req.BoardSignedAt, req.BoardSignedBy,
		req.RejectedBy, req.RejectedAt, req.RejectionReason,
		req.ExecutedBy, req.ExecutedAt, req.DeletedCount,
	)
}
