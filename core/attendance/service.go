package attendance

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
)

var NowFunc = time.Now // mockable

const (
	MsgAlreadyRecorded = "Attendance already recorded for this batch, date, and lecture number!"

	latestAbsentees = 20
)

var ErrRecordNotFound = &core.NotFoundError{Message: "Attendance record not found"}

type Store interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error

	// LectureRecorded reports whether any attendance exists for the batch lecture of that day.
	LectureRecorded(ctx context.Context, batch string, date time.Time, lectureNo int) (bool, error)
	// AddRecord returns a core.DuplicateError when the student is already recorded for that lecture.
	AddRecord(ctx context.Context, rec Record) error
	// UpdateRecord sets the presence & marker of the record matching rec's student lecture and returns it.
	// It returns ErrRecordNotFound when there is none.
	UpdateRecord(ctx context.Context, rec Record) (Record, error)
	Query(ctx context.Context, c Criteria) ([]Record, error)

	// AbsentStudents lists the students absent on at least minDays distinct days in [from, to).
	AbsentStudents(ctx context.Context, from, to time.Time, minDays int) ([]AbsentStudent, error)
	// FlagAbsentee inserts a unless (StudentID, FlaggedOn) exists. It reports whether a row was inserted.
	FlagAbsentee(ctx context.Context, a Absentee) (bool, error)
	LatestAbsentees(ctx context.Context, limit int) ([]Absentee, error)
	MarkAbsenteesSeen(ctx context.Context) (int, error)
}

// ScanConfig bounds the absentee scan: students absent on MinDays distinct days among the WindowDays before today.
type ScanConfig struct {
	WindowDays int
	MinDays    int
}

type Service struct {
	store      Store
	scan       ScanConfig
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func NewService(store Store, scan ScanConfig, logger core.Logger) *Service {
	validate, translator := core.NewValidator()
	return &Service{
		store:      store,
		scan:       scan,
		logger:     logger,
		validate:   validate,
		translator: translator,
	}
}

// Save records the attendance of every student of sheet in a single transaction.
// It fails with a core.ConflictError when the lecture was already recorded.
func (svc *Service) Save(ctx context.Context, actor core.Actor, sheet Sheet) (int, error) {
	sheet.Clean()
	var rules []string
	if err := svc.validate.Struct(sheet); err != nil {
		rules = core.TranslateAll(err, svc.translator)
	}
	date, err := time.Parse(DateLayout, sheet.Date)
	if err != nil && sheet.Date != "" {
		rules = append(rules, "date must be formatted as YYYY-MM-DD")
	}
	if len(rules) > 0 {
		return 0, core.NewRulesError("Missing required fields", rules...)
	}

	err = svc.store.Atomic(ctx, func(tx Store) error {
		recorded, err := tx.LectureRecorded(ctx, sheet.BatchName, date, sheet.LectureNo)
		if err != nil {
			return errors.Wrap(err, "checking recorded lectures")
		}
		if recorded {
			return core.NewConflictError(MsgAlreadyRecorded)
		}
		for _, st := range sheet.Students {
			rec := Record{
				BatchName:   sheet.BatchName,
				StudentID:   st.ID,
				StudentName: st.Name,
				Date:        date,
				LectureNo:   sheet.LectureNo,
				Present:     sheet.Attendance[st.ID],
				MarkedBy:    actor.UserID,
				MarkerRole:  actor.Role,
			}
			if err := tx.AddRecord(ctx, rec); err != nil {
				if core.IsDuplicate(err) {
					return core.NewConflictError(MsgAlreadyRecorded)
				}
				return errors.Wrapf(err, "recording attendance of %s", st.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(sheet.Students), nil
}

// Correct overwrites the presence recorded for a student at a lecture.
func (svc *Service) Correct(ctx context.Context, actor core.Actor, c Correction) (Record, error) {
	c.Clean()
	var rules []string
	if err := svc.validate.Struct(c); err != nil {
		rules = core.TranslateAll(err, svc.translator)
	}
	date, err := time.Parse(DateLayout, c.Date)
	if err != nil && c.Date != "" {
		rules = append(rules, "date must be formatted as YYYY-MM-DD")
	}
	if len(rules) > 0 {
		return Record{}, core.NewRulesError("Missing required fields", rules...)
	}

	return svc.store.UpdateRecord(ctx, Record{
		BatchName:  c.BatchName,
		StudentID:  c.StudentID,
		Date:       date,
		LectureNo:  c.LectureNo,
		Present:    *c.Present,
		MarkedBy:   actor.UserID,
		MarkerRole: actor.Role,
	})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	filter.Clean()
	c := Criteria{Batch: filter.Batch, Name: filter.Name, LectureNo: filter.LectureNo}
	if filter.Date != "" {
		d, err := time.Parse(DateLayout, filter.Date)
		if err != nil {
			return nil, core.NewRulesError("Invalid date", "date must be formatted as YYYY-MM-DD")
		}
		c.Date = d
	}
	if filter.Status != "" {
		present := filter.Status == "true"
		c.Present = &present
	}
	return svc.store.Query(ctx, c)
}

// GenerateAbsenteeFlags flags the students absent too often in the days before today. Students already
// flagged today are skipped so re-runs are idempotent. It returns the number of new flags.
func (svc *Service) GenerateAbsenteeFlags(ctx context.Context, today time.Time) (int, error) {
	day := truncateDay(today)
	from := day.AddDate(0, 0, -svc.scan.WindowDays)

	var flagged int
	err := svc.store.Atomic(ctx, func(tx Store) error {
		absents, err := tx.AbsentStudents(ctx, from, day, svc.scan.MinDays)
		if err != nil {
			return errors.Wrap(err, "scanning absences")
		}
		now := NowFunc()
		for _, a := range absents {
			inserted, err := tx.FlagAbsentee(ctx, Absentee{
				StudentID:   a.StudentID,
				StudentName: a.StudentName,
				BatchName:   a.BatchName,
				FlaggedOn:   day,
				CreatedAt:   now,
			})
			if err != nil {
				return errors.Wrapf(err, "flagging %s", a.StudentID)
			}
			if inserted {
				flagged++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return flagged, nil
}

// RunAbsenteeScan is the scheduled form of GenerateAbsenteeFlags; failures are only logged.
func (svc *Service) RunAbsenteeScan() {
	n, err := svc.GenerateAbsenteeFlags(context.Background(), NowFunc())
	if err != nil {
		svc.logger.Error("generating absentee notifications", err)
		return
	}
	svc.logger.Info("absentee notifications generated", map[string]interface{}{"count": n})
}

func (svc *Service) LatestAbsentees(ctx context.Context) ([]Absentee, error) {
	return svc.store.LatestAbsentees(ctx, latestAbsentees)
}

func (svc *Service) MarkAbsenteesSeen(ctx context.Context) (int, error) {
	return svc.store.MarkAbsenteesSeen(ctx)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
