package evaluation

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vishvavidya/traininghub/core"
)

var NowFunc = time.Now // mockable

var ErrNotFound = &core.NotFoundError{Message: "Evaluation not found"}

type Store interface {
	// Atomic runs fn inside a single transaction.
	Atomic(ctx context.Context, fn func(tx Store) error) error
	// Upsert inserts ev or, when (Email, BatchName, Attempt) exists, overwrites its scores and updater.
	Upsert(ctx context.Context, ev Evaluation) error
	Query(ctx context.Context, filter QueryFilter) ([]Evaluation, error)
	// UpdateScores overwrites the scores, updater & updated_at of the evaluation ev.ID and returns it.
	// It returns ErrNotFound when there is no such evaluation.
	UpdateScores(ctx context.Context, ev Evaluation) (Evaluation, error)
}

type Service struct {
	store      Store
	validate   *validator.Validate
	translator ut.Translator
}

func NewService(store Store) *Service {
	validate, translator := core.NewValidator()
	return &Service{store: store, validate: validate, translator: translator}
}

// Record upserts the scores of every student of bs in a single transaction and returns how many were saved.
func (svc *Service) Record(ctx context.Context, actor core.Actor, bs BatchScores) (int, error) {
	bs.Clean()
	if err := svc.validate.Struct(bs); err != nil {
		return 0, core.NewRulesError("Validation failed", core.TranslateAll(err, svc.translator)...)
	}

	err := svc.store.Atomic(ctx, func(tx Store) error {
		now := NowFunc()
		for _, s := range bs.Students {
			ev := Evaluation{
				Email:            s.Email,
				StudentID:        s.StudentID,
				StudentName:      s.StudentName,
				BatchName:        bs.BatchName,
				Attempt:          s.Scores.Attempt,
				AttemptName:      core.CleanString(s.Scores.AttemptName),
				Technical:        s.Scores.Technical,
				MCQ:              s.Scores.MCQ,
				Oral:             s.Scores.Oral,
				Total:            s.Scores.Total,
				Remark:           s.Scores.Remark,
				PendingTechnical: s.Scores.PendingTechnical,
				PendingMCQ:       s.Scores.PendingMCQ,
				PendingOral:      s.Scores.PendingOral,
				PendingRemark:    s.Scores.PendingRemark,
				CreatedBy:        actor.UserID,
				CreatorRole:      actor.Role,
				UpdatedBy:        actor.UserID,
				UpdaterRole:      actor.Role,
				CreatedAt:        now,
			}
			if err := tx.Upsert(ctx, ev); err != nil {
				return errors.Wrapf(err, "saving evaluation of %s", s.Email)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(bs.Students), nil
}

// Update replaces the scores of the evaluation id.
func (svc *Service) Update(ctx context.Context, actor core.Actor, id int64, su ScoreUpdate) (Evaluation, error) {
	if id <= 0 {
		return Evaluation{}, ErrNotFound
	}
	return svc.store.UpdateScores(ctx, Evaluation{
		ID:               id,
		Technical:        su.Technical,
		MCQ:              su.MCQ,
		Oral:             su.Oral,
		Total:            su.Total,
		Remark:           su.Remark,
		PendingTechnical: su.PendingTechnical,
		PendingMCQ:       su.PendingMCQ,
		PendingOral:      su.PendingOral,
		PendingRemark:    su.PendingRemark,
		UpdatedBy:        actor.UserID,
		UpdaterRole:      actor.Role,
		UpdatedAt:        null.TimeFrom(NowFunc()),
	})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Evaluation, error) {
	filter.BatchName = core.CleanString(filter.BatchName)
	filter.StudentID = core.CleanString(filter.StudentID)
	return svc.store.Query(ctx, filter)
}

// ForStudent lists the evaluations of a student, latest attempt first.
func (svc *Service) ForStudent(ctx context.Context, studentID string) ([]Evaluation, error) {
	return svc.Query(ctx, QueryFilter{StudentID: studentID})
}
