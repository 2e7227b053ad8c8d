package inmemdb

import (
	"context"
	"sort"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/accesscard"
)

type accessCardStore struct {
	session
}

var _ accesscard.Store = (*accessCardStore)(nil)

func NewAccessCardStore(db *DB) *accessCardStore {
	return &accessCardStore{session: session{db: db}}
}

func (s *accessCardStore) Atomic(_ context.Context, fn func(tx accesscard.Store) error) error {
	return s.atomic(func(tx session) error {
		return fn(&accessCardStore{session: tx})
	})
}

func cardHeld(t *tables, number string, exceptID int64) bool {
	for _, c := range t.accessCards {
		if c.Number == number && c.Held() && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *accessCardStore) CardHeld(_ context.Context, number string, exceptID int64) (bool, error) {
	var held bool
	err := s.view(func(t *tables) error {
		held = cardHeld(t, number, exceptID)
		return nil
	})
	return held, err
}

func (s *accessCardStore) CreateCard(_ context.Context, c accesscard.Card) (int64, error) {
	err := s.update(func(t *tables) error {
		if c.Held() && cardHeld(t, c.Number, 0) {
			return core.NewDuplicateError("duplicate value violates %q", "access_card_details_held_number_key")
		}
		c.ID = t.nextPK()
		t.accessCards = append(t.accessCards, c)
		return nil
	})
	return c.ID, err
}

func (s *accessCardStore) ListCards(context.Context) ([]accesscard.Card, error) {
	var cards []accesscard.Card
	err := s.view(func(t *tables) error {
		cards = append(make([]accesscard.Card, 0, len(t.accessCards)), t.accessCards...)
		return nil
	})
	sort.SliceStable(cards, func(i, j int) bool {
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.After(cards[j].CreatedAt)
		}
		return cards[i].ID > cards[j].ID
	})
	return cards, err
}

func (s *accessCardStore) UpdateCard(_ context.Context, c accesscard.Card) (accesscard.Card, error) {
	var updated accesscard.Card
	err := s.update(func(t *tables) error {
		for i, old := range t.accessCards {
			if old.ID != c.ID {
				continue
			}
			if c.Held() && cardHeld(t, c.Number, c.ID) {
				return core.NewDuplicateError("duplicate value violates %q", "access_card_details_held_number_key")
			}
			c.Deposit, c.CreatedBy, c.CreatedAt = old.Deposit, old.CreatedBy, old.CreatedAt
			t.accessCards[i] = c
			updated = c
			return nil
		}
		return accesscard.ErrNotFound
	})
	return updated, err
}
