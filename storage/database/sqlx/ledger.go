package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/ledger"
	"github.com/vishvavidya/traininghub/storage/database"
)

var errNotificationNotFound = &core.NotFoundError{Message: "Notification not found"}

func (s *studentStore) AppendBatchMove(ctx context.Context, rec ledger.BatchMoveRecord) error {
	q := `INSERT INTO student_batch_history (student_id, old_batch, new_batch, move_reason, moved_at, created_by_userid, created_by_role)
		VALUES (:student_id, :old_batch, :new_batch, :move_reason, :moved_at, :created_by_userid, :created_by_role)`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, rec)
	return database.TranslateError(err, nil)
}

func (s *studentStore) AppendStatusChange(ctx context.Context, rec ledger.StatusChangeRecord) error {
	q := `INSERT INTO status_change_history (student_id, old_status, new_status, reason, changed_at, created_by_userid, created_by_role)
		VALUES (:student_id, :old_status, :new_status, :reason, :changed_at, :created_by_userid, :created_by_role)`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, rec)
	return database.TranslateError(err, nil)
}

func (s *studentStore) AppendNotification(ctx context.Context, n ledger.Notification) error {
	q := `INSERT INTO student_notifications (student_id, message, created_at, seen)
		VALUES (:student_id, :message, :created_at, :seen)`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, n)
	return database.TranslateError(err, nil)
}

func (s *studentStore) BatchHistory(ctx context.Context, studentID string) ([]ledger.BatchMoveRecord, error) {
	recs := make([]ledger.BatchMoveRecord, 0)
	err := s.h().SelectContext(ctx, &recs,
		`SELECT id, student_id, old_batch, new_batch, move_reason, moved_at, created_by_userid, created_by_role
		FROM student_batch_history WHERE student_id = $1 ORDER BY moved_at DESC, id DESC`,
		studentID,
	)
	return recs, errors.Wrap(err, "selecting batch history")
}

func (s *studentStore) StatusHistory(ctx context.Context, studentID string) ([]ledger.StatusChangeRecord, error) {
	recs := make([]ledger.StatusChangeRecord, 0)
	err := s.h().SelectContext(ctx, &recs,
		`SELECT id, student_id, old_status, new_status, reason, changed_at, created_by_userid, created_by_role
		FROM status_change_history WHERE student_id = $1 ORDER BY changed_at DESC, id DESC`,
		studentID,
	)
	return recs, errors.Wrap(err, "selecting status history")
}

func (s *studentStore) Notifications(ctx context.Context, studentID string, unseenOnly bool) ([]ledger.Notification, error) {
	q := "SELECT id, student_id, message, created_at, seen FROM student_notifications WHERE student_id = $1"
	if unseenOnly {
		q += " AND seen = false"
	}
	q += " ORDER BY created_at DESC, id DESC"

	ns := make([]ledger.Notification, 0)
	err := s.h().SelectContext(ctx, &ns, q, studentID)
	return ns, errors.Wrap(err, "selecting notifications")
}

func (s *studentStore) MarkNotificationSeen(ctx context.Context, id int64, studentID string) error {
	q := "UPDATE student_notifications SET seen = true WHERE id = $1"
	args := []interface{}{id}
	if studentID != "" {
		q += " AND student_id = $2"
		args = append(args, studentID)
	}
	res, err := s.h().ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "updating notification")
	}
	return affectedOrNotFound(res, errNotificationNotFound)
}
