package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/storage/database"
)

type evaluationStore struct {
	base
}

var _ evaluation.Store = (*evaluationStore)(nil)

func NewEvaluationStore(db *sqlx.DB) *evaluationStore {
	return &evaluationStore{base: base{db: db}}
}

func (s *evaluationStore) Atomic(ctx context.Context, fn func(tx evaluation.Store) error) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&evaluationStore{base: base{db: s.db, tx: tx}})
	})
}

func (s *evaluationStore) Upsert(ctx context.Context, ev evaluation.Evaluation) error {
	q := `INSERT INTO evaluations (
			email_id, student_id, student_name, batch_name, attempt, attempt_name,
			technical, mcq, oral, total, remark,
			pending_technical, pending_mcq, pending_oral, pending_remark,
			created_by_userid, created_by_role, updated_by_userid, updated_by_role, created_at
		) VALUES (
			:email_id, :student_id, :student_name, :batch_name, :attempt, :attempt_name,
			:technical, :mcq, :oral, :total, :remark,
			:pending_technical, :pending_mcq, :pending_oral, :pending_remark,
			:created_by_userid, :created_by_role, :updated_by_userid, :updated_by_role, :created_at
		)
		ON CONFLICT (email_id, batch_name, attempt) DO UPDATE SET
			attempt_name = EXCLUDED.attempt_name,
			technical = EXCLUDED.technical,
			mcq = EXCLUDED.mcq,
			oral = EXCLUDED.oral,
			total = EXCLUDED.total,
			remark = EXCLUDED.remark,
			pending_technical = EXCLUDED.pending_technical,
			pending_mcq = EXCLUDED.pending_mcq,
			pending_oral = EXCLUDED.pending_oral,
			pending_remark = EXCLUDED.pending_remark,
			updated_by_userid = EXCLUDED.updated_by_userid,
			updated_by_role = EXCLUDED.updated_by_role,
			updated_at = EXCLUDED.created_at`
	_, err := sqlx.NamedExecContext(ctx, s.h(), q, ev)
	return database.TranslateError(err, nil)
}

func (s *evaluationStore) Query(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.BatchName != "" {
		args = append(args, filter.BatchName)
		conds = append(conds, "batch_name = ?")
	}
	if filter.Attempt > 0 {
		args = append(args, filter.Attempt)
		conds = append(conds, "attempt = ?")
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conds = append(conds, "student_id = ?")
	}

	q := "SELECT * FROM evaluations"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY attempt DESC, student_name"

	evs := make([]evaluation.Evaluation, 0)
	err := s.h().SelectContext(ctx, &evs, s.h().Rebind(q), args...)
	return evs, errors.Wrap(err, "selecting evaluations")
}

func (s *evaluationStore) UpdateScores(ctx context.Context, ev evaluation.Evaluation) (evaluation.Evaluation, error) {
	q := `UPDATE evaluations SET
			technical = :technical, mcq = :mcq, oral = :oral, total = :total, remark = :remark,
			pending_technical = :pending_technical, pending_mcq = :pending_mcq,
			pending_oral = :pending_oral, pending_remark = :pending_remark,
			updated_by_userid = :updated_by_userid, updated_by_role = :updated_by_role, updated_at = :updated_at
		WHERE id = :id
		RETURNING *`
	q, args, err := s.h().BindNamed(q, ev)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "binding evaluation")
	}
	var updated evaluation.Evaluation
	err = s.h().GetContext(ctx, &updated, q, args...)
	return updated, database.TranslateError(err, evaluation.ErrNotFound)
}
