package certifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/progress"
	"github.com/JaimeStill/certify/pkg/repository"
)

const columns = `id, category_id, contest_id, judge_id, role, user_id, signature_name,
	certified_at, comments, tenant_id, revoked_at, revoked_by`

func scanCertification(s repository.Scanner) (Certification, error) {
	var c Certification
	err := s.Scan(
		&c.ID,
		&c.CategoryID,
		&c.ContestID,
		&c.JudgeID,
		&c.Role,
		&c.UserID,
		&c.SignatureName,
		&c.CertifiedAt,
		&c.Comments,
		&c.TenantID,
		&c.RevokedAt,
		&c.RevokedBy,
	)
	return c, err
}

// record is the insert shape of a certification.
type record struct {
	categoryID    *uuid.UUID
	contestID     *uuid.UUID
	judgeID       *string
	role          string
	userID        string
	signatureName string
	comments      string
	tenantID      string
	at            time.Time
}

func insert(ctx context.Context, q repository.Querier, r record) (Certification, error) {
	return repository.QueryOne(ctx, q, `
		INSERT INTO certifications
			(category_id, contest_id, judge_id, role, user_id, signature_name, comments, tenant_id, certified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+columns,
		[]any{r.categoryID, r.contestID, r.judgeID, r.role, r.userID, r.signatureName, r.comments, r.tenantID, r.at},
		scanCertification,
	)
}

// Revoke applies plan to the category and its contest inside the caller's
// transaction and returns the revoked records.
func Revoke(
	ctx context.Context,
	q repository.Querier,
	categoryID, contestID uuid.UUID,
	plan Plan,
	by string,
	at time.Time,
) ([]Certification, error) {
	revoked := []Certification{}

	if len(plan.JudgeRoles) > 0 {
		rows, err := repository.QueryMany(ctx, q, `
			UPDATE certifications SET revoked_at = $1, revoked_by = $2
			WHERE revoked_at IS NULL AND category_id = $3 AND role = ANY($4)
				AND ($5::text = '' OR judge_id = $5::text)
			RETURNING `+columns,
			[]any{at, by, categoryID, plan.JudgeRoles, plan.JudgeID},
			scanCertification,
		)
		if err != nil {
			return nil, err
		}
		revoked = append(revoked, rows...)
	}

	if len(plan.CategoryRoles) > 0 {
		rows, err := repository.QueryMany(ctx, q, `
			UPDATE certifications SET revoked_at = $1, revoked_by = $2
			WHERE revoked_at IS NULL AND category_id = $3 AND role = ANY($4)
			RETURNING `+columns,
			[]any{at, by, categoryID, plan.CategoryRoles},
			scanCertification,
		)
		if err != nil {
			return nil, err
		}
		revoked = append(revoked, rows...)
	}

	if plan.Board {
		rows, err := repository.QueryMany(ctx, q, `
			UPDATE certifications SET revoked_at = $1, revoked_by = $2
			WHERE revoked_at IS NULL AND contest_id = $3 AND role = $4
			RETURNING `+columns,
			[]any{at, by, contestID, progress.RoleBoard},
			scanCertification,
		)
		if err != nil {
			return nil, err
		}
		revoked = append(revoked, rows...)
	}

	return revoked, nil
}

// attestedJudges lists the judges holding an active JUDGE certification
// for the category.
func attestedJudges(ctx context.Context, q repository.Querier, categoryID uuid.UUID) ([]string, error) {
	return repository.QueryMany(ctx, q, `
		SELECT judge_id FROM certifications
		WHERE category_id = $1 AND role = $2 AND revoked_at IS NULL AND judge_id IS NOT NULL`,
		[]any{categoryID, progress.RoleJudge},
		func(s repository.Scanner) (string, error) {
			var id string
			err := s.Scan(&id)
			return id, err
		},
	)
}

// RevokeForRemoval revokes the records a judge's score removal makes stale:
// the judge's JUDGE and TALLY_MASTER records, the category AUDITOR record,
// and the contest BOARD record.
func RevokeForRemoval(
	ctx context.Context,
	q repository.Querier,
	categoryID, contestID uuid.UUID,
	judgeID, by string,
	at time.Time,
) ([]Certification, error) {
	return Revoke(ctx, q, categoryID, contestID, PlanReset(progress.RoleJudge, judgeID), by, at)
}
