package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// handle is what *sqlx.DB and *sqlx.Tx have in common.
type handle interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// base gives a repository access to the database, bound to a transaction when tx is set.
type base struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func (b base) h() handle {
	if b.tx != nil {
		return b.tx
	}
	return b.db
}

// inTx runs fn in the current transaction, or in a new one committed when fn succeeds and rolled back otherwise.
func (b base) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if b.tx != nil {
		return fn(b.tx)
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// lockSequence takes a transaction scoped advisory lock on prefix.
func (b base) lockSequence(ctx context.Context, prefix string) error {
	_, err := b.h().ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", prefix)
	return errors.Wrap(err, "taking advisory lock")
}

// idsWithPrefix lists the values of the `id` column of table starting with prefix.
func (b base) idsWithPrefix(ctx context.Context, table, prefix string) ([]string, error) {
	var ids []string
	err := b.h().SelectContext(ctx, &ids, "SELECT id FROM "+table+" WHERE id LIKE $1 || '%'", prefix)
	return ids, errors.Wrap(err, "selecting ids")
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting affected rows")
}

// affectedOrNotFound returns notFound when res did not touch any row.
func affectedOrNotFound(res sql.Result, notFound error) error {
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
