package scores

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/pkg/repository"
)

// Functions in this file run inside a caller's transaction.

// MarkCertified certifies the category's scores. A non-empty judgeID limits
// the update to that judge's scores.
func MarkCertified(ctx context.Context, e repository.Executor, categoryID uuid.UUID, judgeID string) (int64, error) {
	return setCertified(ctx, e, categoryID, judgeID, true, nil)
}

// Uncertify clears the certified flag on the category's scores. A non-empty
// judgeID limits the update to that judge's scores; scores of the judges in
// except stay certified.
func Uncertify(ctx context.Context, e repository.Executor, categoryID uuid.UUID, judgeID string, except ...string) (int64, error) {
	return setCertified(ctx, e, categoryID, judgeID, false, except)
}

// DeleteForJudge removes every score a judge holds in a category.
func DeleteForJudge(ctx context.Context, e repository.Executor, categoryID uuid.UUID, judgeID string) (int64, error) {
	return repository.ExecCount(ctx, e,
		"DELETE FROM scores WHERE category_id = $1 AND judge_id = $2",
		categoryID, judgeID,
	)
}

// StatusOf counts the category's scores.
func StatusOf(ctx context.Context, q repository.Querier, categoryID uuid.UUID) (Status, error) {
	var total, uncertified int
	err := q.QueryRowContext(ctx, `
		SELECT count(*), count(*) FILTER (WHERE NOT certified)
		FROM scores WHERE category_id = $1`,
		categoryID,
	).Scan(&total, &uncertified)
	if err != nil {
		return Status{}, err
	}
	return NewStatus(total, uncertified), nil
}

func setCertified(ctx context.Context, e repository.Executor, categoryID uuid.UUID, judgeID string, certified bool, except []string) (int64, error) {
	if except == nil {
		except = []string{}
	}
	return repository.ExecCount(ctx, e, `
		UPDATE scores SET certified = $2, updated_at = now()
		WHERE category_id = $1 AND certified <> $2
			AND ($3::text = '' OR judge_id = $3::text)
			AND NOT (judge_id = ANY($4::text[]))`,
		categoryID, certified, judgeID, except,
	)
}
