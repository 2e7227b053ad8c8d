// Package accesscard tracks the office access cards lent to trainees and their deposits.
package accesscard

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

var (
	ErrNotFound = &core.NotFoundError{Message: "Access card not found."}
	ErrCardHeld = core.NewConflictError("Access card is already allocated to another trainee")
)

type Store interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error

	// CardHeld reports whether a card numbered number, other than exceptID, has not been handed back.
	CardHeld(ctx context.Context, number string, exceptID int64) (bool, error)
	// CreateCard returns the ID of the inserted card.
	CreateCard(ctx context.Context, c Card) (int64, error)
	// ListCards lists every card, latest first.
	ListCards(ctx context.Context) ([]Card, error)
	// UpdateCard saves the editable fields of c and returns the stored card, or ErrNotFound.
	UpdateCard(ctx context.Context, c Card) (Card, error)
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

// check validates d and parses its dates, reporting every violated rule.
func (svc *Service) check(d *details) (allocated time.Time, submitted null.Time, err error) {
	d.clean()
	var rules []string
	if err := svc.validate.Struct(d); err != nil {
		rules = core.TranslateAll(err, svc.translator)
	}
	if d.AllocatedOn != "" {
		if allocated, err = time.Parse(DateLayout, d.AllocatedOn); err != nil {
			rules = append(rules, "card_allocation_date must be formatted as YYYY-MM-DD")
		}
	}
	if d.SubmittedOn != "" {
		t, err := time.Parse(DateLayout, d.SubmittedOn)
		switch {
		case err != nil:
			rules = append(rules, "card_submitted_date must be formatted as YYYY-MM-DD")
		case !allocated.IsZero() && t.Before(allocated):
			rules = append(rules, "card_submitted_date cannot precede card_allocation_date")
		default:
			submitted = null.TimeFrom(t)
		}
	}
	if len(rules) > 0 {
		return time.Time{}, null.Time{}, core.NewRulesError("Missing required fields", rules...)
	}
	return allocated, submitted, nil
}

// Issue lends a card to a trainee against a paid deposit. A card still held by someone cannot be issued.
func (svc *Service) Issue(ctx context.Context, actor core.Actor, nc NewCard) (Card, error) {
	d := nc.details()
	allocated, _, err := svc.check(&d)
	if err != nil {
		return Card{}, err
	}

	now := NowFunc().UTC()
	c := Card{
		TraineeCode:      d.TraineeCode,
		TraineeName:      d.TraineeName,
		Email:            d.Email,
		Contact:          d.Contact,
		IDCardType:       d.IDCardType,
		Number:           d.Number,
		AllocatedOn:      allocated,
		TrainingDuration: d.TrainingDuration,
		TrainerName:      d.TrainerName,
		ManagerName:      d.ManagerName,
		Deposit:          DepositPaid,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err = svc.store.Atomic(ctx, func(tx Store) error {
		held, err := tx.CardHeld(ctx, c.Number, 0)
		if err != nil {
			return errors.Wrap(err, "checking held cards")
		}
		if held {
			return ErrCardHeld
		}
		if c.ID, err = tx.CreateCard(ctx, c); err != nil {
			if core.IsDuplicate(err) {
				return ErrCardHeld
			}
			return errors.Wrap(err, "inserting access card")
		}
		return nil
	})
	if err != nil {
		return Card{}, err
	}
	return c, nil
}

func (svc *Service) List(ctx context.Context) ([]Card, error) {
	return svc.store.ListCards(ctx)
}

// Update edits the card cu.ID, or records its return when cu.SubmittedOn is set.
func (svc *Service) Update(ctx context.Context, cu CardUpdate) (Card, error) {
	if cu.ID <= 0 {
		return Card{}, ErrNotFound
	}
	d := cu.details()
	allocated, submitted, err := svc.check(&d)
	if err != nil {
		return Card{}, err
	}

	c := Card{
		ID:               cu.ID,
		TraineeCode:      d.TraineeCode,
		TraineeName:      d.TraineeName,
		Email:            d.Email,
		Contact:          d.Contact,
		IDCardType:       d.IDCardType,
		Number:           d.Number,
		AllocatedOn:      allocated,
		SubmittedOn:      submitted,
		TrainingDuration: d.TrainingDuration,
		TrainerName:      d.TrainerName,
		ManagerName:      d.ManagerName,
		UpdatedAt:        NowFunc().UTC(),
	}
	var saved Card
	err = svc.store.Atomic(ctx, func(tx Store) error {
		if c.Held() {
			held, err := tx.CardHeld(ctx, c.Number, c.ID)
			if err != nil {
				return errors.Wrap(err, "checking held cards")
			}
			if held {
				return ErrCardHeld
			}
		}
		var err error
		if saved, err = tx.UpdateCard(ctx, c); core.IsDuplicate(err) {
			return ErrCardHeld
		}
		return err
	})
	return saved, err
}
