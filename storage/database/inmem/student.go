package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/ledger"
	"github.com/vishvavidya/traininghub/core/student"
)

var studentLess = map[string]func(a, b student.Student) bool{
	"id":              func(a, b student.Student) bool { return a.ID < b.ID },
	"student_name":    func(a, b student.Student) bool { return a.Name < b.Name },
	"email_id":        func(a, b student.Student) bool { return a.Email < b.Email },
	"batch_name":      func(a, b student.Student) bool { return a.BatchName < b.BatchName },
	"training_status": func(a, b student.Student) bool { return a.TrainingStatus < b.TrainingStatus },
	"created_at":      func(a, b student.Student) bool { return a.CreatedAt.Before(b.CreatedAt) },
}

type studentStore struct {
	session
}

var _ student.Store = (*studentStore)(nil)

func NewStudentStore(db *DB) *studentStore {
	return &studentStore{session: session{db: db}}
}

func (s *studentStore) Atomic(_ context.Context, fn func(tx student.Store) error) error {
	return s.atomic(func(tx session) error {
		return fn(&studentStore{session: tx})
	})
}

func (s *studentStore) LockSequence(context.Context, string) error {
	return nil // transactions are serialised
}

func (s *studentStore) IDsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	var ids []string
	err := s.view(func(t *tables) error {
		for id := range t.students {
			if strings.HasPrefix(id, prefix) {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func (s *studentStore) EmailExists(_ context.Context, email string) (bool, error) {
	var exists bool
	err := s.view(func(t *tables) error {
		for _, st := range t.students {
			if st.Email == email {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (s *studentStore) CreateStudent(_ context.Context, st student.Student) error {
	return s.update(func(t *tables) error {
		if _, ok := t.students[st.ID]; ok {
			return core.NewDuplicateError("duplicate value violates %q", "student_registration_pkey")
		}
		for _, other := range t.students {
			if other.Email == st.Email {
				return core.NewDuplicateError("duplicate value violates %q", "student_registration_email_id_key")
			}
		}
		t.students[st.ID] = st
		return nil
	})
}

func (s *studentStore) CreateAptitude(_ context.Context, apt student.Aptitude) error {
	return s.update(func(t *tables) error {
		if _, ok := t.students[apt.StudentID]; !ok {
			return student.ErrNotFound
		}
		t.aptitudes[apt.StudentID] = apt
		return nil
	})
}

func (s *studentStore) CreateLogin(_ context.Context, cred student.LoginCredential) error {
	return s.update(func(t *tables) error {
		if _, ok := t.students[cred.StudentID]; !ok {
			return student.ErrNotFound
		}
		t.logins[cred.StudentID] = cred
		return nil
	})
}

func (s *studentStore) GetStudent(_ context.Context, id string) (student.Student, error) {
	var st student.Student
	err := s.view(func(t *tables) error {
		var ok bool
		if st, ok = t.students[id]; !ok {
			return student.ErrNotFound
		}
		return nil
	})
	return st, err
}

func (s *studentStore) GetStudentForUpdate(ctx context.Context, id string) (student.Student, error) {
	return s.GetStudent(ctx, id)
}

func (s *studentStore) ExistingIDs(_ context.Context, ids []string) ([]string, error) {
	existing := make([]string, 0, len(ids))
	err := s.view(func(t *tables) error {
		for _, id := range ids {
			if _, ok := t.students[id]; ok {
				existing = append(existing, id)
			}
		}
		return nil
	})
	return existing, err
}

func (s *studentStore) ListStudents(_ context.Context, filter student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	students := make([]student.Student, 0)
	search := strings.ToLower(filter.Search)
	err := s.view(func(t *tables) error {
		for _, st := range t.students {
			if filter.Batch != "" && st.BatchName != filter.Batch {
				continue
			}
			if filter.Status != "" && st.TrainingStatus != filter.Status {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(st.Name), search) &&
				!strings.Contains(strings.ToLower(st.Email), search) &&
				!strings.Contains(strings.ToLower(st.ID), search) {
				continue
			}
			students = append(students, st)
		}
		return nil
	})
	sortStudents(students, ordering)
	return students, err
}

// sortStudents orders by the known fields of ordering, newest first by default. Ties are broken by ID.
func sortStudents(students []student.Student, ordering []core.DBOrdering) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		for _, ord := range ordering {
			less, ok := studentLess[ord.Field]
			if !ok {
				continue
			}
			if less(a, b) {
				return ord.Ascending
			}
			if less(b, a) {
				return !ord.Ascending
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func (s *studentStore) SetBatch(_ context.Context, id, batch string) error {
	return s.update(func(t *tables) error {
		st, ok := t.students[id]
		if !ok {
			return student.ErrNotFound
		}
		st.BatchName = batch
		t.students[id] = st
		return nil
	})
}

func (s *studentStore) SetTrainingStatus(_ context.Context, id, status string) error {
	return s.update(func(t *tables) error {
		st, ok := t.students[id]
		if !ok {
			return student.ErrNotFound
		}
		st.TrainingStatus = status
		t.students[id] = st
		if cred, ok := t.logins[id]; ok {
			cred.Status = status
			t.logins[id] = cred
		}
		return nil
	})
}

func (s *studentStore) GetLogin(_ context.Context, studentID string) (student.LoginCredential, error) {
	var cred student.LoginCredential
	err := s.view(func(t *tables) error {
		var ok bool
		if cred, ok = t.logins[studentID]; !ok {
			return student.ErrNotFound
		}
		return nil
	})
	return cred, err
}

// Ledger

var errNotificationNotFound = &core.NotFoundError{Message: "Notification not found"}

func (s *studentStore) AppendBatchMove(_ context.Context, rec ledger.BatchMoveRecord) error {
	return s.update(func(t *tables) error {
		if _, ok := t.students[rec.StudentID]; !ok {
			return student.ErrNotFound
		}
		rec.ID = t.nextPK()
		t.batchMoves = append(t.batchMoves, rec)
		return nil
	})
}

func (s *studentStore) AppendStatusChange(_ context.Context, rec ledger.StatusChangeRecord) error {
	return s.update(func(t *tables) error {
		if _, ok := t.students[rec.StudentID]; !ok {
			return student.ErrNotFound
		}
		rec.ID = t.nextPK()
		t.statusChanges = append(t.statusChanges, rec)
		return nil
	})
}

func (s *studentStore) AppendNotification(_ context.Context, n ledger.Notification) error {
	return s.update(func(t *tables) error {
		if _, ok := t.students[n.StudentID]; !ok {
			return student.ErrNotFound
		}
		n.ID = t.nextPK()
		t.notifications = append(t.notifications, n)
		return nil
	})
}

func (s *studentStore) BatchHistory(_ context.Context, studentID string) ([]ledger.BatchMoveRecord, error) {
	recs := make([]ledger.BatchMoveRecord, 0)
	err := s.view(func(t *tables) error {
		for _, rec := range t.batchMoves {
			if rec.StudentID == studentID {
				recs = append(recs, rec)
			}
		}
		return nil
	})
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].MovedAt.Equal(recs[j].MovedAt) {
			return recs[i].MovedAt.After(recs[j].MovedAt)
		}
		return recs[i].ID > recs[j].ID
	})
	return recs, err
}

func (s *studentStore) StatusHistory(_ context.Context, studentID string) ([]ledger.StatusChangeRecord, error) {
	recs := make([]ledger.StatusChangeRecord, 0)
	err := s.view(func(t *tables) error {
		for _, rec := range t.statusChanges {
			if rec.StudentID == studentID {
				recs = append(recs, rec)
			}
		}
		return nil
	})
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].ChangedAt.Equal(recs[j].ChangedAt) {
			return recs[i].ChangedAt.After(recs[j].ChangedAt)
		}
		return recs[i].ID > recs[j].ID
	})
	return recs, err
}

func (s *studentStore) Notifications(_ context.Context, studentID string, unseenOnly bool) ([]ledger.Notification, error) {
	ns := make([]ledger.Notification, 0)
	err := s.view(func(t *tables) error {
		for _, n := range t.notifications {
			if n.StudentID == studentID && !(unseenOnly && n.Seen) {
				ns = append(ns, n)
			}
		}
		return nil
	})
	sort.SliceStable(ns, func(i, j int) bool {
		if !ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].CreatedAt.After(ns[j].CreatedAt)
		}
		return ns[i].ID > ns[j].ID
	})
	return ns, err
}

func (s *studentStore) MarkNotificationSeen(_ context.Context, id int64, studentID string) error {
	return s.update(func(t *tables) error {
		for i := range t.notifications {
			n := t.notifications[i]
			if n.ID == id && (studentID == "" || n.StudentID == studentID) {
				t.notifications[i].Seen = true
				return nil
			}
		}
		return errNotificationNotFound
	})
}
