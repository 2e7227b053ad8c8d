package student

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/identity"
	"github.com/vishvavidya/traininghub/core/ledger"
)

var NowFunc = time.Now // mockable

// user-facing messages
const (
	MsgValidationFailed = "Validation failed"
	MsgEmailExists      = "Email already exists."
	MsgMissingFields    = "Missing required fields."
	MsgNotFound         = "Student not found."
	MsgAlreadyInBatch   = "Student is already in this batch."
	MsgInvalidIDs       = "Some student IDs are invalid."
)

var (
	// ErrNotFound is returned by Store lookups of unknown students.
	ErrNotFound = &core.NotFoundError{Message: MsgNotFound}
	// ErrInvalidCredentials is returned by Authenticate for unknown students or wrong passwords.
	ErrInvalidCredentials = errors.New("invalid student id or password")
)

type Service struct {
	store      Store
	mailSvc    core.EmailService
	senders    SenderDirectory
	evals      EvaluationSource
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func NewService(store Store, mailSvc core.EmailService, senders SenderDirectory, evals EvaluationSource, logger core.Logger) *Service {
	validate, translator := core.NewValidator()
	return &Service{
		store:      store,
		mailSvc:    mailSvc,
		senders:    senders,
		evals:      evals,
		logger:     logger,
		validate:   validate,
		translator: translator,
	}
}

// Register validates ns and creates the Student, its registration ledger entry, its aptitude row and its login.
// It returns the generated student ID.
func (svc *Service) Register(ctx context.Context, actor core.Actor, ns NewStudent) (string, error) {
	ns.Clean()

	var rules []string
	if err := svc.validate.Struct(ns); err != nil {
		rules = core.TranslateAll(err, svc.translator)
	}
	if ns.Email != "" {
		exists, err := svc.store.EmailExists(ctx, ns.Email)
		if err != nil {
			return "", errors.Wrap(err, "checking email uniqueness")
		}
		if exists {
			if len(rules) == 0 {
				return "", core.NewDuplicateError(MsgEmailExists)
			}
			rules = append(rules, MsgEmailExists)
		}
	}
	if len(rules) > 0 {
		return "", core.NewRulesError(MsgValidationFailed, rules...)
	}

	var id string
	err := svc.store.Atomic(ctx, func(tx Store) error {
		var err error
		id, err = svc.create(ctx, tx, actor, ns, NowFunc())
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// create inserts a validated student. It must run inside tx.
func (svc *Service) create(ctx context.Context, tx Store, actor core.Actor, ns NewStudent, now time.Time) (string, error) {
	id, err := identity.NextID(ctx, tx, identity.KindIntern, now.Year())
	if err != nil {
		return "", errors.Wrap(err, "generating student id")
	}

	st := Student{
		ID:                   id,
		Name:                 ns.Name,
		Email:                ns.Email,
		Contact:              ns.Contact,
		BatchName:            NoBatch,
		TrainingStatus:       NoStatus,
		PlacementStatus:      PlacementUnplaced,
		PassoutYear:          NotDefined,
		HighestQualification: NotDefined,
		Skillset:             NotDefined,
		Certification:        NotDefined,
		CurrentLocation:      NotDefined,
		Experience:           NotDefined,
		CreatedBy:            actor.UserID,
		CreatorRole:          actor.Role,
		CreatedAt:            now,
	}
	if err := tx.CreateStudent(ctx, st); err != nil {
		return "", errors.Wrap(err, "inserting student")
	}

	rec := ledger.NewBatchMove(id, NoBatch, NoBatch, registeredReason, actor, now)
	if err := tx.AppendBatchMove(ctx, rec); err != nil {
		return "", errors.Wrap(err, "appending registration history")
	}

	apt := Aptitude{
		StudentID:   id,
		Marks:       ns.Marks,
		Percentage:  ns.Percentage,
		Result:      ns.Result,
		CreatedBy:   actor.UserID,
		CreatorRole: actor.Role,
	}
	if err := tx.CreateAptitude(ctx, apt); err != nil {
		return "", errors.Wrap(err, "inserting aptitude result")
	}

	cred := LoginCredential{
		StudentID: id,
		Name:      st.Name,
		Email:     st.Email,
		Contact:   st.Contact,
		Role:      RoleIntern,
		Status:    st.TrainingStatus,
	}
	if err := cred.SetPassword(identity.InternPassword(st.Name, st.Contact)); err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	if err := tx.CreateLogin(ctx, cred); err != nil {
		return "", errors.Wrap(err, "inserting login credentials")
	}
	return id, nil
}

// MoveToBatch moves one student to newBatch. A student still at NoStatus is promoted to StatusInTraining.
func (svc *Service) MoveToBatch(ctx context.Context, actor core.Actor, studentID, newBatch, reason string) error {
	return svc.moveOne(ctx, actor, studentID, newBatch, reason, promoteUnstarted)
}

// RemoveFromBatch moves a student back to NoBatch. The training status is left as is and students are
// never deleted.
func (svc *Service) RemoveFromBatch(ctx context.Context, actor core.Actor, studentID, reason string) error {
	if core.CleanString(reason) == "" {
		reason = defaultRemoveReason
	}
	return svc.moveOne(ctx, actor, studentID, NoBatch, reason, promoteNever)
}

func (svc *Service) moveOne(ctx context.Context, actor core.Actor, studentID, newBatch, reason string, promo promotion) error {
	studentID = core.CleanString(studentID)
	newBatch = core.CleanString(newBatch)
	reason = core.CleanString(reason)
	if studentID == "" || newBatch == "" || reason == "" {
		return core.NewRulesError(MsgMissingFields)
	}

	var (
		before   Student
		promoted bool
	)
	err := svc.store.Atomic(ctx, func(tx Store) error {
		var err error
		if before, err = tx.GetStudentForUpdate(ctx, studentID); err != nil {
			return err
		}
		if before.BatchName == newBatch {
			return core.NewNoOpError(MsgAlreadyInBatch)
		}
		promoted, err = svc.applyMove(ctx, tx, actor, before, newBatch, reason, promo)
		if err != nil {
			return err
		}
		return errors.Wrap(
			tx.AppendNotification(ctx, ledger.NewNotification(studentID, movedNotification(newBatch, reason), NowFunc())),
			"appending notification",
		)
	})
	if err != nil {
		return err
	}

	var note string
	if promoted {
		note = fmt.Sprintf("Your training status has been updated to %s.", StatusInTraining)
	}
	svc.sendEmails(ctx, actor, batchMovedEmail(before, newBatch, reason, note))
	return nil
}

// MoveBulk moves every student of ids to newBatch and forces their status to StatusInTraining.
// Nothing is written when any id is unknown.
func (svc *Service) MoveBulk(ctx context.Context, actor core.Actor, ids []string, newBatch, reason string) (int, error) {
	newBatch = core.CleanString(newBatch)
	reason = core.CleanString(reason)
	ids = uniqueIDs(ids)
	if len(ids) == 0 || newBatch == "" || reason == "" {
		return 0, core.NewRulesError(MsgMissingFields)
	}

	moved := make([]Student, 0, len(ids))
	err := svc.store.Atomic(ctx, func(tx Store) error {
		existing, err := tx.ExistingIDs(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "checking student ids")
		}
		if len(existing) != len(ids) {
			return core.NewRulesError(MsgInvalidIDs)
		}

		now := NowFunc()
		for _, id := range ids {
			before, err := tx.GetStudentForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if _, err := svc.applyMove(ctx, tx, actor, before, newBatch, reason, promoteAlways); err != nil {
				return err
			}
			n := ledger.NewNotification(id, bulkMovedNotification(newBatch, reason), now)
			if err := tx.AppendNotification(ctx, n); err != nil {
				return errors.Wrap(err, "appending notification")
			}
			moved = append(moved, before)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	note := fmt.Sprintf("Your training status has been updated to %s.", StatusInTraining)
	messages := make([]*core.EmailMessage, 0, len(moved))
	for _, st := range moved {
		messages = append(messages, batchMovedEmail(st, newBatch, reason, note))
	}
	svc.sendEmails(ctx, actor, messages...)
	return len(moved), nil
}

// promotion decides whether a batch move sets the training status to StatusInTraining.
type promotion int

const (
	promoteUnstarted promotion = iota // only students at NoStatus
	promoteAlways
	promoteNever
)

func (p promotion) applies(status string) bool {
	switch p {
	case promoteAlways:
		return true
	case promoteUnstarted:
		return status == NoStatus
	}
	return false
}

// applyMove sets the batch of st and appends the ledger rows, promoting the status as promo says.
// It reports whether the status changed.
func (svc *Service) applyMove(ctx context.Context, tx Store, actor core.Actor, st Student, newBatch, reason string, promo promotion) (bool, error) {
	now := NowFunc()
	if err := tx.SetBatch(ctx, st.ID, newBatch); err != nil {
		return false, errors.Wrap(err, "updating batch")
	}
	if err := tx.AppendBatchMove(ctx, ledger.NewBatchMove(st.ID, st.BatchName, newBatch, reason, actor, now)); err != nil {
		return false, errors.Wrap(err, "appending batch history")
	}

	if !promo.applies(st.TrainingStatus) {
		return false, nil
	}
	if err := tx.SetTrainingStatus(ctx, st.ID, StatusInTraining); err != nil {
		return false, errors.Wrap(err, "updating training status")
	}
	rec := ledger.NewStatusChange(st.ID, st.TrainingStatus, StatusInTraining, moveStatusReason, actor, now)
	if err := tx.AppendStatusChange(ctx, rec); err != nil {
		return false, errors.Wrap(err, "appending status history")
	}
	return true, nil
}

// ChangeStatus sets the training status of a student. Terminal statuses also reset the batch to NoBatch.
// It reports whether an email was handed to the mail service.
func (svc *Service) ChangeStatus(ctx context.Context, actor core.Actor, studentID, newStatus, reason string) (bool, error) {
	studentID = core.CleanString(studentID)
	newStatus = core.CleanString(newStatus)
	reason = core.CleanString(reason)
	if studentID == "" || newStatus == "" || reason == "" {
		return false, core.NewRulesError(MsgMissingFields)
	}

	var before Student
	err := svc.store.Atomic(ctx, func(tx Store) error {
		var err error
		if before, err = tx.GetStudentForUpdate(ctx, studentID); err != nil {
			return err
		}

		now := NowFunc()
		if err := tx.SetTrainingStatus(ctx, studentID, newStatus); err != nil {
			return errors.Wrap(err, "updating training status")
		}
		rec := ledger.NewStatusChange(studentID, before.TrainingStatus, newStatus, reason, actor, now)
		if err := tx.AppendStatusChange(ctx, rec); err != nil {
			return errors.Wrap(err, "appending status history")
		}

		if ClearsBatch(newStatus) && before.BatchName != NoBatch {
			if err := tx.SetBatch(ctx, studentID, NoBatch); err != nil {
				return errors.Wrap(err, "clearing batch")
			}
			moveReason := fmt.Sprintf("Status changed to %s: %s", newStatus, reason)
			if err := tx.AppendBatchMove(ctx, ledger.NewBatchMove(studentID, before.BatchName, NoBatch, moveReason, actor, now)); err != nil {
				return errors.Wrap(err, "appending batch history")
			}
		}

		n := ledger.NewNotification(studentID, statusNotification(newStatus), now)
		return errors.Wrap(tx.AppendNotification(ctx, n), "appending notification")
	})
	if err != nil {
		return false, err
	}

	if msg := statusChangedEmail(before, newStatus, reason); msg != nil {
		svc.sendEmails(ctx, actor, msg)
		return true, nil
	}
	return false, nil
}

// sendEmails resolves the sender of actor and hands messages to the mail service. Failures are only logged.
func (svc *Service) sendEmails(ctx context.Context, actor core.Actor, messages ...*core.EmailMessage) {
	if len(messages) == 0 || svc.mailSvc == nil {
		return
	}
	if svc.senders != nil {
		from, err := svc.senders.SenderFor(ctx, actor)
		if err != nil {
			svc.logger.Warn("resolving email sender, using default", err, actor)
		} else {
			for _, msg := range messages {
				msg.From = &from
			}
		}
	}
	svc.mailSvc.SendMessages(messages...)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.store.GetStudent(ctx, core.CleanString(id))
}

// CurrentBatch returns the batch name of a student.
func (svc *Service) CurrentBatch(ctx context.Context, id string) (string, error) {
	st, err := svc.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return st.BatchName, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.store.ListStudents(ctx, filter, ordering)
}

// ListUnassigned lists the students sitting in NoBatch.
func (svc *Service) ListUnassigned(ctx context.Context) ([]Student, error) {
	return svc.store.ListStudents(ctx, QueryFilter{Batch: NoBatch}, nil)
}

// Details gathers the record, both histories, evaluations and unseen notifications of a student.
func (svc *Service) Details(ctx context.Context, id string) (Details, error) {
	st, err := svc.Get(ctx, id)
	if err != nil {
		return Details{}, err
	}
	d := Details{Student: st}
	if d.History, err = svc.store.BatchHistory(ctx, st.ID); err != nil {
		return Details{}, errors.Wrap(err, "listing batch history")
	}
	if d.StatusHistory, err = svc.store.StatusHistory(ctx, st.ID); err != nil {
		return Details{}, errors.Wrap(err, "listing status history")
	}
	if svc.evals != nil {
		if d.Evaluations, err = svc.evals.ForStudent(ctx, st.ID); err != nil {
			return Details{}, errors.Wrap(err, "listing evaluations")
		}
	}
	if d.Notifications, err = svc.store.Notifications(ctx, st.ID, true /* unseenOnly */); err != nil {
		return Details{}, errors.Wrap(err, "listing notifications")
	}
	return d, nil
}

func (svc *Service) Notifications(ctx context.Context, studentID string) ([]ledger.Notification, error) {
	return svc.store.Notifications(ctx, core.CleanString(studentID), false)
}

// MarkNotificationSeen flips a notification to seen. Interns can only reach their own notifications,
// anyone else's answer core.NotFoundError like an unknown id.
func (svc *Service) MarkNotificationSeen(ctx context.Context, actor core.Actor, id int64) error {
	var owner string
	if actor.Role == RoleIntern {
		owner = actor.UserID
		if owner == "" {
			return errors.New("intern actor without id")
		}
	}
	return svc.store.MarkNotificationSeen(ctx, id, owner)
}

// Authenticate checks the credentials of an intern. Interns whose status denies login get a core.ForbiddenError.
func (svc *Service) Authenticate(ctx context.Context, studentID, pwd string) (LoginCredential, error) {
	cred, err := svc.store.GetLogin(ctx, core.CleanString(studentID))
	if err != nil {
		if core.IsNotFound(err) {
			return LoginCredential{}, ErrInvalidCredentials
		}
		return LoginCredential{}, errors.Wrap(err, "finding login credentials")
	}
	if err := cred.CheckPassword(pwd); err != nil {
		return LoginCredential{}, ErrInvalidCredentials
	}
	if DeniesLogin(cred.Status) {
		return LoginCredential{}, core.NewForbiddenError("Access denied: Intern is %s", cred.Status)
	}
	return cred, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = core.CleanString(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
