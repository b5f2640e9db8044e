package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MapError translates database errors to domain errors.
// sql.ErrNoRows maps to notFoundErr and unique violations (23505) map to
// conflictErr. Other errors are returned unchanged.
func MapError(err error, notFoundErr, conflictErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	if IsUniqueViolation(err, "") {
		return conflictErr
	}

	return err
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation.
// A non-empty constraint restricts the match to that constraint or index name.
func IsUniqueViolation(err error, constraint string) bool {
	return isPgCode(err, pgUniqueViolation, constraint)
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return isPgCode(err, pgForeignKeyViolation, "")
}

func isPgCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
