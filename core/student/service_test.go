package student_test

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/identity"
	"github.com/vishvavidya/traininghub/core/ledger"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/services/email"
	"github.com/vishvavidya/traininghub/storage/database/inmem"
)

var (
	staff = core.Actor{UserID: "VVMANAGER2024001", Role: "manager"}
	now   = time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC)
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type senders map[string]mail.Address

func (s senders) SenderFor(_ context.Context, actor core.Actor) (mail.Address, error) {
	addr, ok := s[actor.UserID]
	if !ok {
		return mail.Address{}, errors.New("unknown sender")
	}
	return addr, nil
}

func setup(t *testing.T) (*student.Service, student.Store) {
	t.Helper()
	student.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { student.NowFunc = time.Now })
	emailsvc.ResetSent()

	store := inmemdb.NewStudentStore(inmemdb.NewDB())
	dir := senders{staff.UserID: {Name: "Priya Manager", Address: "priya@vishvavidya.in"}}
	return student.NewService(store, emailsvc.NewConsoleServiceMock(), dir, nil, nopLogger{}), store
}

func register(t *testing.T, svc *student.Service, name, email, contact string) string {
	t.Helper()
	id, err := svc.Register(context.Background(), staff, student.NewStudent{Name: name, Email: email, Contact: contact})
	require.NoError(t, err)
	return id
}

func TestService_Register(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	id1 := register(t, svc, "  Anita Desai ", "Anita@Mail.com", "9876543210")
	id2 := register(t, svc, "Rahul Verma", "rahul@mail.com", "8123456789")
	assert.Equal(t, "VVINTERN2024001", id1)
	assert.Equal(t, "VVINTERN2024002", id2)

	st, err := svc.Get(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "Anita Desai", st.Name)
	assert.Equal(t, "anita@mail.com", st.Email)
	assert.Equal(t, student.NoBatch, st.BatchName)
	assert.Equal(t, student.NoStatus, st.TrainingStatus)
	assert.Equal(t, student.PlacementUnplaced, st.PlacementStatus)
	assert.Equal(t, student.NotDefined, st.Skillset)
	assert.Equal(t, staff.UserID, st.CreatedBy)

	history, err := store.BatchHistory(ctx, id1)
	require.NoError(t, err)
	if assert.Len(t, history, 1) {
		assert.Equal(t, student.NoBatch, history[0].OldBatch)
		assert.Equal(t, student.NoBatch, history[0].NewBatch)
	}

	cred, err := svc.Authenticate(ctx, id1, identity.InternPassword("Anita Desai", "9876543210"))
	require.NoError(t, err)
	assert.Equal(t, student.RoleIntern, cred.Role)
	assert.Equal(t, student.NoStatus, cred.Status)
	assert.Equal(t, "Anita@3210VV", identity.InternPassword("Anita Desai", "9876543210"))

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, staff, student.NewStudent{Name: "Anita D", Email: "ANITA@mail.com", Contact: "9876543211"})
		require.Error(t, err)
		assert.True(t, core.IsDuplicate(err))
		assert.Equal(t, student.MsgEmailExists, err.Error())
	})

	t.Run("every rule listed", func(t *testing.T) {
		_, err := svc.Register(ctx, staff, student.NewStudent{Name: "Al", Email: "anita@mail.com", Contact: "12345"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, student.MsgValidationFailed, vErr.Error())
		assert.Equal(t, []string{
			"Full Name must be at least 3 characters.",
			"Contact number must be 10 digits starting with 6-9.",
			student.MsgEmailExists,
		}, vErr.Messages)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.Register(ctx, staff, student.NewStudent{Name: "Sunil Rao", Email: "sunil.mail.com", Contact: "9876543219"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, []string{"Invalid Email format."}, vErr.Messages)
	})

	all, err := svc.Query(ctx, student.QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_MoveToBatch(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	id := register(t, svc, "Anita Desai", "anita@mail.com", "9876543210")

	t.Run("missing fields", func(t *testing.T) {
		err := svc.MoveToBatch(ctx, staff, id, "JAVA-01", " ")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, student.MsgMissingFields, vErr.Error())
	})

	t.Run("unknown student", func(t *testing.T) {
		err := svc.MoveToBatch(ctx, staff, "VVINTERN2024999", "JAVA-01", "joining")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("same batch is a no-op", func(t *testing.T) {
		err := svc.MoveToBatch(ctx, staff, id, student.NoBatch, "nothing")
		var noop *core.NoOpError
		require.True(t, errors.As(err, &noop))
		assert.Equal(t, student.MsgAlreadyInBatch, noop.Message)

		history, err := store.BatchHistory(ctx, id)
		require.NoError(t, err)
		assert.Len(t, history, 1)
		assert.Empty(t, emailsvc.Sent())
	})

	t.Run("first move promotes the status", func(t *testing.T) {
		require.NoError(t, svc.MoveToBatch(ctx, staff, id, "JAVA-01", "Joining Java"))

		st, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "JAVA-01", st.BatchName)
		assert.Equal(t, student.StatusInTraining, st.TrainingStatus)

		cred, err := store.GetLogin(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, student.StatusInTraining, cred.Status)

		statuses, err := store.StatusHistory(ctx, id)
		require.NoError(t, err)
		if assert.Len(t, statuses, 1) {
			assert.Equal(t, student.NoStatus, statuses[0].OldStatus)
			assert.Equal(t, student.StatusInTraining, statuses[0].NewStatus)
		}

		sent := emailsvc.Sent()
		if assert.Len(t, sent, 1) {
			assert.Equal(t, "anita@mail.com", sent[0].To[0].Address)
			assert.Equal(t, "priya@vishvavidya.in", sent[0].From.Address)
			assert.Contains(t, sent[0].TextContent, "Your training status has been updated to In Training.")
		}
	})

	t.Run("later moves keep the status", func(t *testing.T) {
		emailsvc.ResetSent()
		require.NoError(t, svc.MoveToBatch(ctx, staff, id, "JAVA-02", "Advanced track"))

		st, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "JAVA-02", st.BatchName)

		statuses, err := store.StatusHistory(ctx, id)
		require.NoError(t, err)
		assert.Len(t, statuses, 1)

		history, err := store.BatchHistory(ctx, id)
		require.NoError(t, err)
		if assert.Len(t, history, 3) {
			assert.Equal(t, "JAVA-01", history[0].OldBatch)
			assert.Equal(t, "JAVA-02", history[0].NewBatch)
			assert.Equal(t, "Advanced track", history[0].Reason)
		}

		sent := emailsvc.Sent()
		if assert.Len(t, sent, 1) {
			assert.NotContains(t, sent[0].TextContent, "training status")
		}
	})

	t.Run("unknown sender falls back to the default", func(t *testing.T) {
		emailsvc.ResetSent()
		other := core.Actor{UserID: "VVADMIN2024001", Role: "admin"}
		require.NoError(t, svc.RemoveFromBatch(ctx, other, id, ""))

		batch, err := svc.CurrentBatch(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, student.NoBatch, batch)

		sent := emailsvc.Sent()
		if assert.Len(t, sent, 1) {
			assert.Nil(t, sent[0].From)
		}
	})

	unassigned, err := svc.ListUnassigned(ctx)
	require.NoError(t, err)
	assert.Len(t, unassigned, 1)
}

func TestService_RemoveFromBatch(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	id := register(t, svc, "Anita Desai", "anita@mail.com", "9876543210")
	require.NoError(t, svc.MoveToBatch(ctx, staff, id, "JAVA-01", "Joining Java"))
	_, err := svc.ChangeStatus(ctx, staff, id, student.NoStatus, "Paused enrolment")
	require.NoError(t, err)
	emailsvc.ResetSent()

	require.NoError(t, svc.RemoveFromBatch(ctx, staff, id, " "))

	st, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, student.NoBatch, st.BatchName)
	assert.Equal(t, student.NoStatus, st.TrainingStatus)

	cred, err := store.GetLogin(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, student.NoStatus, cred.Status)

	statuses, err := store.StatusHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, statuses, 2)

	history, err := store.BatchHistory(ctx, id)
	require.NoError(t, err)
	if assert.Len(t, history, 3) {
		assert.Equal(t, "JAVA-01", history[0].OldBatch)
		assert.Equal(t, student.NoBatch, history[0].NewBatch)
	}

	sent := emailsvc.Sent()
	if assert.Len(t, sent, 1) {
		assert.NotContains(t, sent[0].TextContent, "training status")
	}

	err = svc.RemoveFromBatch(ctx, staff, id, "")
	var noop *core.NoOpError
	assert.True(t, errors.As(err, &noop))
}

func TestService_ChangeStatus(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	id := register(t, svc, "Anita Desai", "anita@mail.com", "9876543210")
	pwd := identity.InternPassword("Anita Desai", "9876543210")
	require.NoError(t, svc.MoveToBatch(ctx, staff, id, "JAVA-01", "Joining Java"))
	emailsvc.ResetSent()

	t.Run("status without notice", func(t *testing.T) {
		emailed, err := svc.ChangeStatus(ctx, staff, id, "On Hold", "Medical leave")
		require.NoError(t, err)
		assert.False(t, emailed)
		assert.Empty(t, emailsvc.Sent())

		st, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "JAVA-01", st.BatchName)
	})

	t.Run("placed clears the batch and denies login", func(t *testing.T) {
		emailed, err := svc.ChangeStatus(ctx, staff, id, "placed", "Joined Infosys")
		require.NoError(t, err)
		assert.True(t, emailed)

		st, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, student.NoBatch, st.BatchName)
		assert.Equal(t, "placed", st.TrainingStatus)

		history, err := store.BatchHistory(ctx, id)
		require.NoError(t, err)
		if assert.NotEmpty(t, history) {
			assert.Equal(t, "JAVA-01", history[0].OldBatch)
			assert.Equal(t, student.NoBatch, history[0].NewBatch)
		}

		_, err = svc.Authenticate(ctx, id, pwd)
		var forbidden *core.ForbiddenError
		require.True(t, errors.As(err, &forbidden))
		assert.Equal(t, "Access denied: Intern is placed", forbidden.Message)

		sent := emailsvc.Sent()
		if assert.Len(t, sent, 1) {
			assert.Equal(t, "🎉 Congratulations! You Have Been Placed!", sent[0].Subject)
		}

		notes, err := svc.Notifications(ctx, id)
		require.NoError(t, err)
		if assert.NotEmpty(t, notes) {
			assert.Equal(t, "🎉 Congratulations! You've been placed successfully.", notes[0].Message)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, id, "nope")
		assert.Equal(t, student.ErrInvalidCredentials, err)
	})
}

func TestService_MoveBulk(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	id1 := register(t, svc, "Anita Desai", "anita@mail.com", "9876543210")
	id2 := register(t, svc, "Rahul Verma", "rahul@mail.com", "8123456789")
	_, err := svc.ChangeStatus(ctx, staff, id2, "On Hold", "Medical leave")
	require.NoError(t, err)
	emailsvc.ResetSent()

	t.Run("an unknown id rolls everything back", func(t *testing.T) {
		_, err := svc.MoveBulk(ctx, staff, []string{id1, "VVINTERN2024999"}, "PY-01", "New batch")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, student.MsgInvalidIDs, vErr.Error())

		st, err := svc.Get(ctx, id1)
		require.NoError(t, err)
		assert.Equal(t, student.NoBatch, st.BatchName)
		history, err := store.BatchHistory(ctx, id1)
		require.NoError(t, err)
		assert.Len(t, history, 1)
		assert.Empty(t, emailsvc.Sent())
	})

	t.Run("moves and forces the status", func(t *testing.T) {
		n, err := svc.MoveBulk(ctx, staff, []string{id1, id2, id1, " "}, "PY-01", "New batch")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		for _, id := range []string{id1, id2} {
			st, err := svc.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "PY-01", st.BatchName)
			assert.Equal(t, student.StatusInTraining, st.TrainingStatus)
			cred, err := store.GetLogin(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, student.StatusInTraining, cred.Status)
		}
		assert.Len(t, emailsvc.Sent(), 2)

		batch, err := svc.Query(ctx, student.QueryFilter{Batch: "PY-01"}, nil)
		require.NoError(t, err)
		assert.Len(t, batch, 2)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.MoveBulk(ctx, staff, nil, "PY-01", "New batch")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, student.MsgMissingFields, vErr.Error())
	})
}

func TestService_Intake(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	register(t, svc, "Anita Desai", "anita@mail.com", "9876543210")

	rows := []student.Row{
		{"student_name": "Kiran Patil", "email_id": "kiran@mail.com", "contact_no": "9876500001", "aptitude_marks": "42", "percentage": "84%"},
		{"student_name": "Bad Email", "email_id": "bad.mail.com", "contact_no": "9876500002"},
		{"student_name": "Meena Shah", "email_id": "MEENA@mail.com", "contact_no": "9876500003", "result": "Pass"},
		{"student_name": "", "email_id": "", "contact_no": ""},
		{"student_name": "Om Joshi", "email_id": "om@mail.com", "contact_no": "9876500005"},
		{"student_name": "Anita Again", "email_id": "anita@mail.com", "contact_no": "9876500006"},
		{"student_name": "Om Twice", "email_id": "om@mail.com", "contact_no": "9876500007"},
	}
	summary, err := svc.Intake(ctx, staff, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Inserted)
	// the blank row 5 is skipped without an error
	assert.Equal(t, []string{"Row 3 - Invalid email: bad.mail.com"}, summary.Errors)
	assert.Equal(t, []string{
		"Row 7 - Email already registered: anita@mail.com",
		"Row 8 - Email already registered: om@mail.com",
	}, summary.Ignored)

	all, err := svc.Query(ctx, student.QueryFilter{}, []core.DBOrdering{{Field: "id", Ascending: true}})
	require.NoError(t, err)
	if assert.Len(t, all, 4) {
		assert.Equal(t, "VVINTERN2024004", all[3].ID)
		assert.Equal(t, "Om Joshi", all[3].Name)
	}

	t.Run("nothing valid", func(t *testing.T) {
		_, err := svc.Intake(ctx, staff, []student.Row{
			{"student_name": "Kiran Patil", "email_id": "kiran@mail.com", "contact_no": "9876500001"},
			{"student_name": "No Contact", "email_id": "nc@mail.com"},
		})
		var iErr *student.IntakeError
		require.True(t, errors.As(err, &iErr))
		assert.Equal(t, 0, iErr.Summary.Inserted)
		assert.Equal(t, []string{"Row 3 - Missing: contact_no"}, iErr.Summary.Errors)
		assert.Equal(t, []string{"Row 2 - Email already registered: kiran@mail.com"}, iErr.Summary.Ignored)
	})

	t.Run("only blank rows", func(t *testing.T) {
		_, err := svc.Intake(ctx, staff, []student.Row{{"student_name": " "}, {}})
		var iErr *student.IntakeError
		require.True(t, errors.As(err, &iErr))
		assert.Empty(t, iErr.Summary.Errors)
		assert.Empty(t, iErr.Summary.Ignored)
	})
}

func TestService_Details(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	id := register(t, svc, "Anita Desai", "anita@mail.com", "9876543210")
	require.NoError(t, svc.MoveToBatch(ctx, staff, id, "JAVA-01", "Joining Java"))
	_, err := svc.ChangeStatus(ctx, staff, id, "Training Closed", "Left the program")
	require.NoError(t, err)

	d, err := svc.Details(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, d.Student.ID)
	assert.Len(t, d.History, 2)
	if assert.Len(t, d.StatusHistory, 2) {
		assert.Equal(t, student.StatusInTraining, d.StatusHistory[0].OldStatus)
		assert.Equal(t, "Training Closed", d.StatusHistory[0].NewStatus)
	}
	require.Len(t, d.Notifications, 2)
	assert.Empty(t, d.Evaluations)

	other := register(t, svc, "Rahul Verma", "rahul@mail.com", "9876543211")
	otherIntern := core.Actor{UserID: other, Role: student.RoleIntern}
	assert.True(t, core.IsNotFound(svc.MarkNotificationSeen(ctx, otherIntern, d.Notifications[0].ID)))
	d, err = svc.Details(ctx, id)
	require.NoError(t, err)
	require.Len(t, d.Notifications, 2)

	self := core.Actor{UserID: id, Role: student.RoleIntern}
	require.NoError(t, svc.MarkNotificationSeen(ctx, self, d.Notifications[0].ID))
	d, err = svc.Details(ctx, id)
	require.NoError(t, err)
	assert.Len(t, d.Notifications, 1)

	all, err := svc.Notifications(ctx, id)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.MarkNotificationSeen(ctx, staff, d.Notifications[0].ID))
	assert.True(t, core.IsNotFound(svc.MarkNotificationSeen(ctx, staff, 9999)))
	_, err = svc.Details(ctx, "VVINTERN2024999")
	assert.True(t, core.IsNotFound(err))
}

var errInjected = errors.New("injected failure")

// faultyStore fails the writes named in faults, inside transactions too.
type faultyStore struct {
	student.Store
	faults map[string]bool
}

func (s *faultyStore) Atomic(ctx context.Context, fn func(tx student.Store) error) error {
	return s.Store.Atomic(ctx, func(tx student.Store) error {
		return fn(&faultyStore{Store: tx, faults: s.faults})
	})
}

func (s *faultyStore) CreateLogin(ctx context.Context, cred student.LoginCredential) error {
	if s.faults["login"] {
		return errInjected
	}
	return s.Store.CreateLogin(ctx, cred)
}

func (s *faultyStore) AppendNotification(ctx context.Context, n ledger.Notification) error {
	if s.faults["notification"] {
		return errInjected
	}
	return s.Store.AppendNotification(ctx, n)
}

func TestService_FailedStepsRollBack(t *testing.T) {
	student.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { student.NowFunc = time.Now })
	emailsvc.ResetSent()

	store := inmemdb.NewStudentStore(inmemdb.NewDB())
	faults := make(map[string]bool)
	svc := student.NewService(&faultyStore{Store: store, faults: faults}, emailsvc.NewConsoleServiceMock(), nil, nil, nopLogger{})
	ctx := context.Background()

	assertState := func(t *testing.T, id, batch, status string, moves, changes int) {
		t.Helper()
		st, err := store.GetStudent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, batch, st.BatchName)
		assert.Equal(t, status, st.TrainingStatus)

		cred, err := store.GetLogin(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, cred.Status)

		history, err := store.BatchHistory(ctx, id)
		require.NoError(t, err)
		assert.Len(t, history, moves)
		statuses, err := store.StatusHistory(ctx, id)
		require.NoError(t, err)
		assert.Len(t, statuses, changes)
		notes, err := store.Notifications(ctx, id, false)
		require.NoError(t, err)
		assert.Len(t, notes, moves-1)
	}

	t.Run("register", func(t *testing.T) {
		faults["login"] = true
		_, err := svc.Register(ctx, staff, student.NewStudent{Name: "Anita Desai", Email: "anita@mail.com", Contact: "9876543210"})
		faults["login"] = false
		assert.True(t, errors.Is(err, errInjected))

		students, err := store.ListStudents(ctx, student.QueryFilter{}, nil)
		require.NoError(t, err)
		assert.Empty(t, students)
		exists, err := store.EmailExists(ctx, "anita@mail.com")
		require.NoError(t, err)
		assert.False(t, exists)

		// the id was not consumed
		assert.Equal(t, "VVINTERN2024001", register(t, svc, "Anita Desai", "anita@mail.com", "9876543210"))
	})

	id := "VVINTERN2024001"

	t.Run("move", func(t *testing.T) {
		faults["notification"] = true
		err := svc.MoveToBatch(ctx, staff, id, "JAVA-01", "Joining Java")
		faults["notification"] = false
		assert.True(t, errors.Is(err, errInjected))

		assertState(t, id, student.NoBatch, student.NoStatus, 1, 0)
		assert.Empty(t, emailsvc.Sent())
	})

	t.Run("bulk move", func(t *testing.T) {
		other := register(t, svc, "Rahul Verma", "rahul@mail.com", "8123456789")
		faults["notification"] = true
		_, err := svc.MoveBulk(ctx, staff, []string{id, other}, "JAVA-01", "New batch")
		faults["notification"] = false
		assert.True(t, errors.Is(err, errInjected))

		assertState(t, id, student.NoBatch, student.NoStatus, 1, 0)
		assertState(t, other, student.NoBatch, student.NoStatus, 1, 0)
		assert.Empty(t, emailsvc.Sent())
	})

	t.Run("status change", func(t *testing.T) {
		require.NoError(t, svc.MoveToBatch(ctx, staff, id, "JAVA-01", "Joining Java"))
		emailsvc.ResetSent()

		faults["notification"] = true
		_, err := svc.ChangeStatus(ctx, staff, id, student.StatusPlaced, "Hired")
		faults["notification"] = false
		assert.True(t, errors.Is(err, errInjected))

		assertState(t, id, "JAVA-01", student.StatusInTraining, 2, 1)
		assert.Empty(t, emailsvc.Sent())

		cred, err := svc.Authenticate(ctx, id, identity.InternPassword("Anita Desai", "9876543210"))
		require.NoError(t, err)
		assert.Equal(t, student.StatusInTraining, cred.Status)
	})
}
