package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/catalog"
	"github.com/vishvavidya/traininghub/storage/database"
)

type catalogStore struct {
	base
}

var _ catalog.Store = (*catalogStore)(nil)

func NewCatalogStore(db *sqlx.DB) *catalogStore {
	return &catalogStore{base: base{db: db}}
}

func (s *catalogStore) Atomic(ctx context.Context, fn func(tx catalog.Store) error) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&catalogStore{base: base{db: s.db, tx: tx}})
	})
}

func (s *catalogStore) CreateTrack(ctx context.Context, t catalog.Track) (catalog.Track, error) {
	q, args, err := sqlx.Named(`INSERT INTO tracks (
			track_name, start_date, recognition_code,
			created_by_userid, created_by_role, updated_by_userid, updated_by_role, created_at
		) VALUES (
			:track_name, :start_date, :recognition_code,
			:created_by_userid, :created_by_role, :updated_by_userid, :updated_by_role, :created_at
		) RETURNING id`, t)
	if err != nil {
		return catalog.Track{}, errors.Wrap(err, "binding track")
	}
	err = s.h().GetContext(ctx, &t.ID, s.h().Rebind(q), args...)
	return t, database.TranslateError(err, nil)
}

func (s *catalogStore) UpdateTrack(ctx context.Context, t catalog.Track) (catalog.Track, error) {
	var updated catalog.Track
	err := s.h().GetContext(ctx, &updated,
		`UPDATE tracks SET track_name = $1, start_date = $2, recognition_code = $3, updated_by_userid = $4, updated_by_role = $5
		WHERE id = $6 RETURNING *`,
		t.Name, t.StartDate, t.RecognitionCode, t.UpdatedBy, t.UpdaterRole, t.ID,
	)
	return updated, database.TranslateError(err, catalog.ErrTrackNotFound)
}

func (s *catalogStore) DeleteTrack(ctx context.Context, id int) error {
	res, err := s.h().ExecContext(ctx, "DELETE FROM tracks WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting track")
	}
	return affectedOrNotFound(res, catalog.ErrTrackNotFound)
}

func (s *catalogStore) GetTrack(ctx context.Context, name string) (catalog.Track, error) {
	var t catalog.Track
	err := s.h().GetContext(ctx, &t, "SELECT * FROM tracks WHERE track_name = $1", name)
	return t, database.TranslateError(err, catalog.ErrTrackNotFound)
}

func (s *catalogStore) ListTracks(ctx context.Context) ([]catalog.Track, error) {
	tracks := make([]catalog.Track, 0)
	err := s.h().SelectContext(ctx, &tracks, "SELECT * FROM tracks ORDER BY start_date DESC, track_name")
	return tracks, errors.Wrap(err, "selecting tracks")
}

func (s *catalogStore) CreateBatch(ctx context.Context, b catalog.Batch) (catalog.Batch, error) {
	q, args, err := sqlx.Named(`INSERT INTO batches (
			batch_name, track_name, num_of_weeks, batch_start_date, instructor_name, batch_type,
			created_by_userid, created_by_role, created_at
		) VALUES (
			:batch_name, :track_name, :num_of_weeks, :batch_start_date, :instructor_name, :batch_type,
			:created_by_userid, :created_by_role, :created_at
		) RETURNING id`, b)
	if err != nil {
		return catalog.Batch{}, errors.Wrap(err, "binding batch")
	}
	err = s.h().GetContext(ctx, &b.ID, s.h().Rebind(q), args...)
	return b, database.TranslateError(err, nil)
}

func (s *catalogStore) ListBatches(ctx context.Context, trackName string) ([]catalog.Batch, error) {
	q := "SELECT * FROM batches"
	var args []interface{}
	if trackName != "" {
		q += " WHERE track_name = $1"
		args = append(args, trackName)
	}
	q += " ORDER BY batch_start_date DESC, batch_name"

	batches := make([]catalog.Batch, 0)
	err := s.h().SelectContext(ctx, &batches, q, args...)
	return batches, errors.Wrap(err, "selecting batches")
}

func (s *catalogStore) CountBatchesWithPrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := s.h().GetContext(ctx, &n, "SELECT count(*) FROM batches WHERE batch_name LIKE $1 || '%'", prefix)
	return n, errors.Wrap(err, "counting batches")
}
