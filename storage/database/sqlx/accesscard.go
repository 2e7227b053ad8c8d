package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/accesscard"
	"github.com/vishvavidya/traininghub/storage/database"
)

type accessCardStore struct {
	base
}

var _ accesscard.Store = (*accessCardStore)(nil)

func NewAccessCardStore(db *sqlx.DB) *accessCardStore {
	return &accessCardStore{base: base{db: db}}
}

func (s *accessCardStore) Atomic(ctx context.Context, fn func(tx accesscard.Store) error) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&accessCardStore{base: base{db: s.db, tx: tx}})
	})
}

func (s *accessCardStore) CardHeld(ctx context.Context, number string, exceptID int64) (bool, error) {
	var held bool
	err := s.h().GetContext(ctx, &held,
		`SELECT EXISTS(
			SELECT 1 FROM access_card_details
			WHERE access_card_number = $1 AND card_submitted_date IS NULL AND id <> $2
		)`,
		number, exceptID,
	)
	return held, errors.Wrap(err, "checking access cards")
}

func (s *accessCardStore) CreateCard(ctx context.Context, c accesscard.Card) (int64, error) {
	q := `INSERT INTO access_card_details (
			trainee_code, trainee_name, email, contact, id_card_type, access_card_number,
			card_allocation_date, training_duration, trainer_name, manager_name, deposit,
			created_by_userid, created_at, updated_at
		) VALUES (
			:trainee_code, :trainee_name, :email, :contact, :id_card_type, :access_card_number,
			:card_allocation_date, :training_duration, :trainer_name, :manager_name, :deposit,
			:created_by_userid, :created_at, :updated_at
		)
		RETURNING id`
	q, args, err := s.h().BindNamed(q, c)
	if err != nil {
		return 0, errors.Wrap(err, "binding access card")
	}
	var id int64
	err = s.h().GetContext(ctx, &id, q, args...)
	return id, database.TranslateError(err, nil)
}

func (s *accessCardStore) ListCards(ctx context.Context) ([]accesscard.Card, error) {
	cards := make([]accesscard.Card, 0)
	err := s.h().SelectContext(ctx, &cards, "SELECT * FROM access_card_details ORDER BY created_at DESC, id DESC")
	return cards, errors.Wrap(err, "selecting access cards")
}

func (s *accessCardStore) UpdateCard(ctx context.Context, c accesscard.Card) (accesscard.Card, error) {
	q := `UPDATE access_card_details SET
			trainee_code = :trainee_code, trainee_name = :trainee_name, email = :email, contact = :contact,
			id_card_type = :id_card_type, access_card_number = :access_card_number,
			card_allocation_date = :card_allocation_date, card_submitted_date = :card_submitted_date,
			training_duration = :training_duration, trainer_name = :trainer_name, manager_name = :manager_name,
			updated_at = :updated_at
		WHERE id = :id
		RETURNING *`
	q, args, err := s.h().BindNamed(q, c)
	if err != nil {
		return accesscard.Card{}, errors.Wrap(err, "binding access card")
	}
	var updated accesscard.Card
	err = s.h().GetContext(ctx, &updated, q, args...)
	return updated, database.TranslateError(err, accesscard.ErrNotFound)
}
