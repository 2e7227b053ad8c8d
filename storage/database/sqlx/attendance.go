package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/attendance"
	"github.com/vishvavidya/traininghub/storage/database"
)

type attendanceStore struct {
	base
}

var _ attendance.Store = (*attendanceStore)(nil)

func NewAttendanceStore(db *sqlx.DB) *attendanceStore {
	return &attendanceStore{base: base{db: db}}
}

func (s *attendanceStore) Atomic(ctx context.Context, fn func(tx attendance.Store) error) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&attendanceStore{base: base{db: s.db, tx: tx}})
	})
}

func (s *attendanceStore) LectureRecorded(ctx context.Context, batch string, date time.Time, lectureNo int) (bool, error) {
	var recorded bool
	err := s.h().GetContext(ctx, &recorded,
		"SELECT EXISTS(SELECT 1 FROM attendance WHERE batch_name = $1 AND date = $2 AND lecture_no = $3)",
		batch, date, lectureNo,
	)
	return recorded, errors.Wrap(err, "checking attendance")
}

func (s *attendanceStore) AddRecord(ctx context.Context, rec attendance.Record) error {
	q := `INSERT INTO attendance (batch_name, student_id, student_name, date, lecture_no, status, marked_by_userid, marked_by_role)
		VALUES (:batch_name, :student_id, :student_name, :date, :lecture_no, :status, :marked_by_userid, :marked_by_role)`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, rec)
	return database.TranslateError(err, nil)
}

func (s *attendanceStore) Query(ctx context.Context, c attendance.Criteria) ([]attendance.Record, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		conds = append(conds, cond)
		args = append(args, v)
	}
	if c.Batch != "" {
		add("batch_name = ?", c.Batch)
	}
	if !c.Date.IsZero() {
		add("date = ?", c.Date)
	}
	if c.Present != nil {
		add("status = ?", *c.Present)
	}
	if c.Name != "" {
		add("student_name ILIKE ?", "%"+c.Name+"%")
	}
	if c.LectureNo > 0 {
		add("lecture_no = ?", c.LectureNo)
	}

	q := "SELECT * FROM attendance"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date DESC, lecture_no, student_name"

	recs := make([]attendance.Record, 0)
	err := s.h().SelectContext(ctx, &recs, s.h().Rebind(q), args...)
	return recs, errors.Wrap(err, "selecting attendance")
}

func (s *attendanceStore) AbsentStudents(ctx context.Context, from, to time.Time, minDays int) ([]attendance.AbsentStudent, error) {
	absents := make([]attendance.AbsentStudent, 0)
	err := s.h().SelectContext(ctx, &absents, `
		SELECT sr.id, sr.student_name, sr.batch_name
		FROM student_registration sr
		JOIN (
			SELECT a.student_id
			FROM attendance a
			WHERE a.date >= $1 AND a.date < $2 AND a.status = false
			GROUP BY a.student_id
			HAVING COUNT(DISTINCT a.date) >= $3
		) AS absent_ids ON sr.id = absent_ids.student_id
		ORDER BY sr.id`,
		from, to, minDays,
	)
	return absents, errors.Wrap(err, "selecting absent students")
}

func (s *attendanceStore) FlagAbsentee(ctx context.Context, a attendance.Absentee) (bool, error) {
	q := `INSERT INTO absentee_notifications (student_id, student_name, batch_name, flagged_on, seen, created_at)
		VALUES (:student_id, :student_name, :batch_name, :flagged_on, :seen, :created_at)
		ON CONFLICT (student_id, flagged_on) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, s.h(), q, a)
	if err != nil {
		return false, database.TranslateError(err, nil)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (s *attendanceStore) LatestAbsentees(ctx context.Context, limit int) ([]attendance.Absentee, error) {
	absentees := make([]attendance.Absentee, 0)
	err := s.h().SelectContext(ctx, &absentees,
		"SELECT * FROM absentee_notifications ORDER BY created_at DESC, id DESC LIMIT $1", limit)
	return absentees, errors.Wrap(err, "selecting absentees")
}

func (s *attendanceStore) MarkAbsenteesSeen(ctx context.Context) (int, error) {
	res, err := s.h().ExecContext(ctx, "UPDATE absentee_notifications SET seen = true WHERE seen = false")
	if err != nil {
		return 0, errors.Wrap(err, "updating absentees")
	}
	return rowsAffected(res)
}

func (s *attendanceStore) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := `UPDATE attendance SET status = :status, marked_by_userid = :marked_by_userid, marked_by_role = :marked_by_role
		WHERE student_id = :student_id AND batch_name = :batch_name AND date = :date AND lecture_no = :lecture_no
		RETURNING *`
	q, args, err := s.h().BindNamed(q, rec)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "binding record")
	}
	var updated attendance.Record
	err = s.h().GetContext(ctx, &updated, q, args...)
	return updated, database.TranslateError(err, attendance.ErrRecordNotFound)
}
