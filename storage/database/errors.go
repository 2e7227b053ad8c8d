package database

import (
	"database/sql"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation raised by lib/pq or pgx.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// TranslateError maps driver errors to the core error taxonomy:
// sql.ErrNoRows becomes notFound and unique violations become a core.DuplicateError.
func TranslateError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, sql.ErrNoRows):
		return notFound
	case IsUniqueViolation(err):
		var constraint string
		var pqErr *pq.Error
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pqErr) {
			constraint = pqErr.Constraint
		} else if stderrors.As(err, &pgErr) {
			constraint = pgErr.ConstraintName
		}
		return core.NewDuplicateError("duplicate value violates %q", constraint)
	}
	return errors.WithStack(err)
}
