package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/vishvavidya/traininghub/core/evaluation"
)

type evaluationStore struct {
	session
}

var _ evaluation.Store = (*evaluationStore)(nil)

func NewEvaluationStore(db *DB) *evaluationStore {
	return &evaluationStore{session: session{db: db}}
}

func (s *evaluationStore) Atomic(_ context.Context, fn func(tx evaluation.Store) error) error {
	return s.atomic(func(tx session) error {
		return fn(&evaluationStore{session: tx})
	})
}

func (s *evaluationStore) Upsert(_ context.Context, ev evaluation.Evaluation) error {
	return s.update(func(t *tables) error {
		for i, old := range t.evaluations {
			if old.Email != ev.Email || old.BatchName != ev.BatchName || old.Attempt != ev.Attempt {
				continue
			}
			ev.UpdatedAt = null.TimeFrom(ev.CreatedAt)
			ev.ID = old.ID
			ev.CreatedBy, ev.CreatorRole, ev.CreatedAt = old.CreatedBy, old.CreatorRole, old.CreatedAt
			t.evaluations[i] = ev
			return nil
		}
		ev.ID = t.nextPK()
		t.evaluations = append(t.evaluations, ev)
		return nil
	})
}

func (s *evaluationStore) Query(_ context.Context, filter evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	evs := make([]evaluation.Evaluation, 0)
	err := s.view(func(t *tables) error {
		for _, ev := range t.evaluations {
			if filter.BatchName != "" && ev.BatchName != filter.BatchName {
				continue
			}
			if filter.Attempt > 0 && ev.Attempt != filter.Attempt {
				continue
			}
			if filter.StudentID != "" && ev.StudentID != filter.StudentID {
				continue
			}
			evs = append(evs, ev)
		}
		return nil
	})
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].Attempt != evs[j].Attempt {
			return evs[i].Attempt > evs[j].Attempt
		}
		return evs[i].StudentName < evs[j].StudentName
	})
	return evs, err
}

func (s *evaluationStore) UpdateScores(_ context.Context, ev evaluation.Evaluation) (evaluation.Evaluation, error) {
	var updated evaluation.Evaluation
	err := s.update(func(t *tables) error {
		for i, old := range t.evaluations {
			if old.ID != ev.ID {
				continue
			}
			old.Technical, old.MCQ, old.Oral, old.Total = ev.Technical, ev.MCQ, ev.Oral, ev.Total
			old.Remark = ev.Remark
			old.PendingTechnical, old.PendingMCQ = ev.PendingTechnical, ev.PendingMCQ
			old.PendingOral, old.PendingRemark = ev.PendingOral, ev.PendingRemark
			old.UpdatedBy, old.UpdaterRole, old.UpdatedAt = ev.UpdatedBy, ev.UpdaterRole, ev.UpdatedAt
			t.evaluations[i] = old
			updated = old
			return nil
		}
		return evaluation.ErrNotFound
	})
	return updated, err
}
