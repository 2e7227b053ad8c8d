package evaluation_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/storage/database/inmem"
)

var trainer = core.Actor{UserID: "VVINSTRUCTOR2024001", Role: "trainer"}

func scores(id, email, name string, attempt int, total float64) evaluation.StudentScores {
	return evaluation.StudentScores{
		StudentID:   id,
		Email:       email,
		StudentName: name,
		Scores: evaluation.Scores{
			Attempt:     attempt,
			AttemptName: "Attempt " + string(rune('0'+attempt)),
			Total:       null.Float64From(total),
		},
	}
}

func TestService_Record(t *testing.T) {
	first := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	evaluation.NowFunc = func() time.Time { return first }
	defer func() { evaluation.NowFunc = time.Now }()

	svc := evaluation.NewService(inmemdb.NewEvaluationStore(inmemdb.NewDB()))
	ctx := context.Background()

	n, err := svc.Record(ctx, trainer, evaluation.BatchScores{
		BatchName: " JAVA-01 ",
		Students: []evaluation.StudentScores{
			scores("VVINTERN2024001", "Anita@mail.com", "Anita Desai", 1, 55),
			scores("VVINTERN2024002", "rahul@mail.com", "Rahul Verma", 1, 61),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("same attempt is updated in place", func(t *testing.T) {
		evaluation.NowFunc = func() time.Time { return first.Add(48 * time.Hour) }
		n, err := svc.Record(ctx, trainer, evaluation.BatchScores{
			BatchName: "JAVA-01",
			Students:  []evaluation.StudentScores{scores("VVINTERN2024001", "anita@mail.com", "Anita Desai", 1, 72)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		evs, err := svc.ForStudent(ctx, "VVINTERN2024001")
		require.NoError(t, err)
		require.Len(t, evs, 1)
		assert.Equal(t, 72.0, evs[0].Total.Float64)
		assert.Equal(t, first, evs[0].CreatedAt)
		assert.True(t, evs[0].UpdatedAt.Valid)
	})

	t.Run("new attempt is inserted", func(t *testing.T) {
		_, err := svc.Record(ctx, trainer, evaluation.BatchScores{
			BatchName: "JAVA-01",
			Students:  []evaluation.StudentScores{scores("VVINTERN2024001", "anita@mail.com", "Anita Desai", 2, 80)},
		})
		require.NoError(t, err)

		evs, err := svc.ForStudent(ctx, "VVINTERN2024001")
		require.NoError(t, err)
		require.Len(t, evs, 2)
		assert.Equal(t, 2, evs[0].Attempt)
		assert.Equal(t, 1, evs[1].Attempt)
	})

	t.Run("query", func(t *testing.T) {
		evs, err := svc.Query(ctx, evaluation.QueryFilter{BatchName: "JAVA-01", Attempt: 1})
		require.NoError(t, err)
		require.Len(t, evs, 2)
		assert.Equal(t, "Anita Desai", evs[0].StudentName)
		assert.Equal(t, "Rahul Verma", evs[1].StudentName)

		evs, err = svc.Query(ctx, evaluation.QueryFilter{BatchName: "PY-01"})
		require.NoError(t, err)
		assert.Empty(t, evs)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := svc.Record(ctx, trainer, evaluation.BatchScores{
			BatchName: "",
			Students:  []evaluation.StudentScores{scores("VVINTERN2024001", "", "Anita Desai", 0, 10)},
		})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Len(t, vErr.Messages, 3)
	})
}

func TestService_Update(t *testing.T) {
	first := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	evaluation.NowFunc = func() time.Time { return first }
	defer func() { evaluation.NowFunc = time.Now }()

	svc := evaluation.NewService(inmemdb.NewEvaluationStore(inmemdb.NewDB()))
	ctx := context.Background()
	_, err := svc.Record(ctx, trainer, evaluation.BatchScores{
		BatchName: "JAVA-01",
		Students:  []evaluation.StudentScores{scores("VVINTERN2024001", "anita@mail.com", "Anita Desai", 1, 55)},
	})
	require.NoError(t, err)
	evs, err := svc.ForStudent(ctx, "VVINTERN2024001")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	id := evs[0].ID

	later := first.Add(24 * time.Hour)
	evaluation.NowFunc = func() time.Time { return later }
	manager := core.Actor{UserID: "VVMANAGER2024001", Role: "manager"}
	ev, err := svc.Update(ctx, manager, id, evaluation.ScoreUpdate{
		Technical:  null.Float64From(7),
		Total:      null.Float64From(64),
		Remark:     null.StringFrom("retest passed"),
		PendingMCQ: null.StringFrom("pending"),
	})
	require.NoError(t, err)
	assert.Equal(t, id, ev.ID)
	assert.Equal(t, 64.0, ev.Total.Float64)
	assert.Equal(t, "retest passed", ev.Remark.String)
	assert.False(t, ev.MCQ.Valid)
	assert.Equal(t, 1, ev.Attempt, "attempt kept")
	assert.Equal(t, "Anita Desai", ev.StudentName)
	assert.Equal(t, trainer.UserID, ev.CreatedBy)
	assert.Equal(t, manager.UserID, ev.UpdatedBy)
	assert.Equal(t, null.TimeFrom(later), ev.UpdatedAt)

	evs, err = svc.ForStudent(ctx, "VVINTERN2024001")
	require.NoError(t, err)
	assert.Equal(t, ev, evs[0])

	t.Run("unknown", func(t *testing.T) {
		_, err := svc.Update(ctx, manager, id+100, evaluation.ScoreUpdate{})
		assert.Equal(t, evaluation.ErrNotFound, err)
		_, err = svc.Update(ctx, manager, 0, evaluation.ScoreUpdate{})
		assert.True(t, core.IsNotFound(err))
	})
}
