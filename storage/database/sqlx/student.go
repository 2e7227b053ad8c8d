package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/storage/database"
)

const studentColumns = `id, student_name, email_id, contact_no, batch_name, training_status, placement_status,
	passout_year, highest_qualification, skillset, certification, current_location, experience,
	created_by_userid, created_by_role, created_at`

var studentOrderings = map[string]string{
	"id":              "id",
	"student_name":    "student_name",
	"email_id":        "email_id",
	"batch_name":      "batch_name",
	"training_status": "training_status",
	"created_at":      "created_at",
}

type studentStore struct {
	base
}

var _ student.Store = (*studentStore)(nil)

func NewStudentStore(db *sqlx.DB) *studentStore {
	return &studentStore{base: base{db: db}}
}

func (s *studentStore) Atomic(ctx context.Context, fn func(tx student.Store) error) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&studentStore{base: base{db: s.db, tx: tx}})
	})
}

func (s *studentStore) LockSequence(ctx context.Context, prefix string) error {
	return s.lockSequence(ctx, prefix)
}

func (s *studentStore) IDsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	return s.idsWithPrefix(ctx, "student_registration", prefix)
}

func (s *studentStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.h().GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM student_registration WHERE email_id = $1)", email)
	return exists, errors.Wrap(err, "checking email")
}

func (s *studentStore) CreateStudent(ctx context.Context, st student.Student) error {
	q := `INSERT INTO student_registration (` + studentColumns + `)
		VALUES (:id, :student_name, :email_id, :contact_no, :batch_name, :training_status, :placement_status,
			:passout_year, :highest_qualification, :skillset, :certification, :current_location, :experience,
			:created_by_userid, :created_by_role, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, st)
	return database.TranslateError(err, nil)
}

func (s *studentStore) CreateAptitude(ctx context.Context, apt student.Aptitude) error {
	q := `INSERT INTO aptitude_result (id, aptitude_marks, percentage, result, created_by_userid, created_by_role)
		VALUES (:id, :aptitude_marks, :percentage, :result, :created_by_userid, :created_by_role)`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, apt)
	return database.TranslateError(err, nil)
}

func (s *studentStore) CreateLogin(ctx context.Context, cred student.LoginCredential) error {
	q := `INSERT INTO intern_login (student_id, name, email_id, contact_no, role, password_hash, status)
		VALUES (:student_id, :name, :email_id, :contact_no, :role, :password_hash, :status)`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, cred)
	return database.TranslateError(err, nil)
}

func (s *studentStore) getStudent(ctx context.Context, id string, forUpdate bool) (student.Student, error) {
	q := "SELECT " + studentColumns + " FROM student_registration WHERE id = $1"
	if forUpdate {
		q += " FOR UPDATE"
	}
	var st student.Student
	err := s.h().GetContext(ctx, &st, q, id)
	return st, database.TranslateError(err, student.ErrNotFound)
}

func (s *studentStore) GetStudent(ctx context.Context, id string) (student.Student, error) {
	return s.getStudent(ctx, id, false)
}

func (s *studentStore) GetStudentForUpdate(ctx context.Context, id string) (student.Student, error) {
	return s.getStudent(ctx, id, true)
}

func (s *studentStore) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In("SELECT id FROM student_registration WHERE id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "expanding ids")
	}
	var existing []string
	err = s.h().SelectContext(ctx, &existing, s.h().Rebind(q), args...)
	return existing, errors.Wrap(err, "selecting ids")
}

func (s *studentStore) ListStudents(ctx context.Context, filter student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "?"
	}
	if filter.Batch != "" {
		conds = append(conds, "batch_name = "+arg(filter.Batch))
	}
	if filter.Status != "" {
		conds = append(conds, "training_status = "+arg(filter.Status))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		conds = append(conds, "(student_name ILIKE "+arg(like)+" OR email_id ILIKE "+arg(like)+" OR id ILIKE "+arg(like)+")")
	}

	q := "SELECT " + studentColumns + " FROM student_registration"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + core.OrderBy(ordering, studentOrderings, "created_at DESC")

	students := make([]student.Student, 0)
	err := s.h().SelectContext(ctx, &students, s.h().Rebind(q), args...)
	return students, errors.Wrap(err, "selecting students")
}

func (s *studentStore) SetBatch(ctx context.Context, id, batch string) error {
	res, err := s.h().ExecContext(ctx, "UPDATE student_registration SET batch_name = $1 WHERE id = $2", batch, id)
	if err != nil {
		return errors.Wrap(err, "updating batch")
	}
	return affectedOrNotFound(res, student.ErrNotFound)
}

func (s *studentStore) SetTrainingStatus(ctx context.Context, id, status string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE student_registration SET training_status = $1 WHERE id = $2", status, id)
		if err != nil {
			return errors.Wrap(err, "updating training status")
		}
		if err := affectedOrNotFound(res, student.ErrNotFound); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE intern_login SET status = $1 WHERE student_id = $2", status, id)
		return errors.Wrap(err, "mirroring login status")
	})
}

func (s *studentStore) GetLogin(ctx context.Context, studentID string) (student.LoginCredential, error) {
	var cred student.LoginCredential
	err := s.h().GetContext(ctx, &cred,
		"SELECT student_id, name, email_id, contact_no, role, password_hash, status FROM intern_login WHERE student_id = $1",
		studentID,
	)
	return cred, database.TranslateError(err, student.ErrNotFound)
}
