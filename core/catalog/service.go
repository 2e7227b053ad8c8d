package catalog

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
)

var NowFunc = time.Now // mockable

const batchSeqWidth = 3

var (
	ErrTrackNotFound = &core.NotFoundError{Message: "Track not found"}
	ErrBatchNotFound = &core.NotFoundError{Message: "Batch not found"}
)

type Store interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error

	// CreateTrack returns a core.DuplicateError when the track name is taken.
	CreateTrack(ctx context.Context, t Track) (Track, error)
	// UpdateTrack returns ErrTrackNotFound when t.ID does not exist.
	UpdateTrack(ctx context.Context, t Track) (Track, error)
	DeleteTrack(ctx context.Context, id int) error
	GetTrack(ctx context.Context, name string) (Track, error)
	ListTracks(ctx context.Context) ([]Track, error)

	// CreateBatch returns a core.DuplicateError when the batch name is taken.
	CreateBatch(ctx context.Context, b Batch) (Batch, error)
	// ListBatches lists every batch, or only those of trackName when it is not empty.
	ListBatches(ctx context.Context, trackName string) ([]Batch, error)
	// CountBatchesWithPrefix counts the batches whose name starts with prefix.
	CountBatchesWithPrefix(ctx context.Context, prefix string) (int, error)
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

// validateStruct validates s and requires date to be set, reporting every violated rule.
func (svc *Service) validateStruct(s interface{}, date Date, dateField string) error {
	var rules []string
	if err := svc.validate.Struct(s); err != nil {
		rules = core.TranslateAll(err, svc.translator)
	}
	if date.IsZero() {
		rules = append(rules, dateField+" is required")
	}
	if len(rules) > 0 {
		return core.NewRulesError("Validation failed", rules...)
	}
	return nil
}

func (svc *Service) CreateTrack(ctx context.Context, actor core.Actor, in TrackInput) (Track, error) {
	in.Clean()
	if err := svc.validateStruct(in, in.StartDate, "startDate"); err != nil {
		return Track{}, err
	}
	t := Track{
		Name:            in.Name,
		StartDate:       in.StartDate.Time,
		RecognitionCode: in.RecognitionCode,
		CreatedBy:       actor.UserID,
		CreatorRole:     actor.Role,
		UpdatedBy:       actor.UserID,
		UpdaterRole:     actor.Role,
		CreatedAt:       NowFunc(),
	}
	t, err := svc.store.CreateTrack(ctx, t)
	if core.IsDuplicate(err) {
		return Track{}, core.NewDuplicateError("Track already exists")
	}
	return t, err
}

func (svc *Service) UpdateTrack(ctx context.Context, actor core.Actor, id int, in TrackInput) (Track, error) {
	in.Clean()
	if err := svc.validateStruct(in, in.StartDate, "startDate"); err != nil {
		return Track{}, err
	}
	t, err := svc.store.UpdateTrack(ctx, Track{
		ID:              id,
		Name:            in.Name,
		StartDate:       in.StartDate.Time,
		RecognitionCode: in.RecognitionCode,
		UpdatedBy:       actor.UserID,
		UpdaterRole:     actor.Role,
	})
	if core.IsDuplicate(err) {
		return Track{}, core.NewDuplicateError("Track already exists")
	}
	return t, err
}

func (svc *Service) DeleteTrack(ctx context.Context, id int) error {
	return svc.store.DeleteTrack(ctx, id)
}

func (svc *Service) ListTracks(ctx context.Context) ([]Track, error) {
	return svc.store.ListTracks(ctx)
}

func (svc *Service) CreateBatch(ctx context.Context, actor core.Actor, in BatchInput) (Batch, error) {
	in.Clean()
	if err := svc.validateStruct(in, in.StartDate, "batchStartDate"); err != nil {
		return Batch{}, err
	}
	var b Batch
	err := svc.store.Atomic(ctx, func(tx Store) error {
		if _, err := tx.GetTrack(ctx, in.TrackName); err != nil {
			return err
		}
		var err error
		b, err = tx.CreateBatch(ctx, Batch{
			Name:           in.Name,
			TrackName:      in.TrackName,
			NumOfWeeks:     in.NumOfWeeks,
			StartDate:      in.StartDate.Time,
			InstructorName: in.InstructorName,
			BatchType:      in.BatchType,
			CreatedBy:      actor.UserID,
			CreatorRole:    actor.Role,
			CreatedAt:      NowFunc(),
		})
		return err
	})
	if core.IsDuplicate(err) {
		return Batch{}, core.NewDuplicateError("Batch already exists")
	}
	return b, err
}

func (svc *Service) ListBatches(ctx context.Context) ([]Batch, error) {
	return svc.store.ListBatches(ctx, "")
}

func (svc *Service) BatchesByTrack(ctx context.Context, trackName string) ([]Batch, error) {
	return svc.store.ListBatches(ctx, core.CleanString(trackName))
}

// GenerateBatchName suggests the next batch name of a track: its recognition code followed by
// the count of batches already carrying that code plus one, zero padded.
func (svc *Service) GenerateBatchName(ctx context.Context, trackName string) (string, error) {
	t, err := svc.store.GetTrack(ctx, core.CleanString(trackName))
	if err != nil {
		return "", err
	}
	n, err := svc.store.CountBatchesWithPrefix(ctx, t.RecognitionCode)
	if err != nil {
		return "", errors.Wrap(err, "counting batches")
	}
	return fmt.Sprintf("%s%0*d", t.RecognitionCode, batchSeqWidth, n+1), nil
}
