package progress

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/pkg/repository"
)

const certificationColumns = "id, role, judge_id, user_id, signature_name, certified_at, comments"

// Load reads the inputs of Compute for a category. Pass a transaction to
// evaluate progress consistently with a write.
func Load(ctx context.Context, q repository.Querier, categoryID uuid.UUID) (Input, error) {
	category, err := events.LoadCategory(ctx, q, categoryID)
	if err != nil {
		return Input{}, err
	}

	cells, err := repository.QueryMany(ctx, q, `
		SELECT contestant_id, judge_id, criterion_id, value IS NOT NULL, certified
		FROM scores WHERE category_id = $1`,
		[]any{categoryID},
		func(s repository.Scanner) (Cell, error) {
			var c Cell
			err := s.Scan(&c.ContestantID, &c.JudgeID, &c.CriterionID, &c.HasValue, &c.Certified)
			return c, err
		},
	)
	if err != nil {
		return Input{}, err
	}

	certs, err := repository.QueryMany(ctx, q,
		"SELECT "+certificationColumns+` FROM certifications
		WHERE category_id = $1 AND revoked_at IS NULL
		ORDER BY certified_at`,
		[]any{categoryID}, scanCertification,
	)
	if err != nil {
		return Input{}, err
	}

	return Input{Category: *category, Cells: cells, Certifications: certs}, nil
}

// BoardCertification returns the contest's active Board certification, or nil.
func BoardCertification(ctx context.Context, q repository.Querier, contestID uuid.UUID) (*Certification, error) {
	cert, err := repository.QueryOne(ctx, q,
		"SELECT "+certificationColumns+` FROM certifications
		WHERE contest_id = $1 AND role = 'BOARD' AND revoked_at IS NULL`,
		[]any{contestID}, scanCertification,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func scanCertification(s repository.Scanner) (Certification, error) {
	var c Certification
	err := s.Scan(&c.ID, &c.Role, &c.JudgeID, &c.UserID, &c.SignatureName, &c.CertifiedAt, &c.Comments)
	return c, err
}
