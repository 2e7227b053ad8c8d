package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/user"
	"github.com/vishvavidya/traininghub/storage/database"
)

type userStore struct {
	base
}

var _ user.Store = (*userStore)(nil)

func NewUserStore(db *sqlx.DB) *userStore {
	return &userStore{base: base{db: db}}
}

func (s *userStore) Atomic(ctx context.Context, fn func(tx user.Store) error) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&userStore{base: base{db: s.db, tx: tx}})
	})
}

func (s *userStore) LockSequence(ctx context.Context, prefix string) error {
	return s.lockSequence(ctx, prefix)
}

func (s *userStore) IDsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	return s.idsWithPrefix(ctx, "staff_users", prefix)
}

func (s *userStore) CreateUser(ctx context.Context, usr user.User) error {
	q := `INSERT INTO staff_users (
			id, name, email, contact_no, role, technology, company_name, company_website,
			password_hash, is_active, created_by_userid, created_by_role, created_at, updated_at
		) VALUES (
			:id, :name, :email, :contact_no, :role, :technology, :company_name, :company_website,
			:password_hash, :is_active, :created_by_userid, :created_by_role, :created_at, :updated_at
		)`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, usr)
	return database.TranslateError(err, nil)
}

func (s *userStore) GetUser(ctx context.Context, idOrEmail string) (user.User, error) {
	var usr user.User
	err := s.h().GetContext(ctx, &usr, "SELECT * FROM staff_users WHERE id = $1 OR email = lower($1) LIMIT 1", idOrEmail)
	return usr, database.TranslateError(err, user.ErrNotFound)
}

func (s *userStore) ListUsers(ctx context.Context, role string) ([]user.User, error) {
	q := "SELECT * FROM staff_users"
	var args []interface{}
	if role != "" {
		q += " WHERE role = $1"
		args = append(args, role)
	}
	q += " ORDER BY created_at DESC, id"

	users := make([]user.User, 0)
	err := s.h().SelectContext(ctx, &users, q, args...)
	return users, errors.Wrap(err, "selecting users")
}

func (s *userStore) SetPassword(ctx context.Context, id string, hash []byte, at time.Time) error {
	res, err := s.h().ExecContext(ctx, "UPDATE staff_users SET password_hash = $1, updated_at = $2 WHERE id = $3", hash, at, id)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	return affectedOrNotFound(res, user.ErrNotFound)
}

func (s *userStore) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.h().ExecContext(ctx, "UPDATE staff_users SET last_login = $1 WHERE id = $2", at, id)
	if err != nil {
		return errors.Wrap(err, "updating last login")
	}
	return affectedOrNotFound(res, user.ErrNotFound)
}

func (s *userStore) UpdateUser(ctx context.Context, usr user.User) error {
	q := `UPDATE staff_users SET
			name = :name, email = :email, contact_no = :contact_no, technology = :technology,
			updated_by_userid = :updated_by_userid, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, s.h(), q, usr)
	if err != nil {
		return database.TranslateError(err, nil)
	}
	return affectedOrNotFound(res, user.ErrNotFound)
}

func (s *userStore) DeleteUsers(ctx context.Context, role string, ids ...string) (int, error) {
	q, args, err := sqlx.In("DELETE FROM staff_users WHERE id IN (?)", ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	if role != "" {
		q += " AND role = ?"
		args = append(args, role)
	}
	res, err := s.h().ExecContext(ctx, s.h().Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return rowsAffected(res)
}
