package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/attendance"
)

type attendanceStore struct {
	session
}

var _ attendance.Store = (*attendanceStore)(nil)

func NewAttendanceStore(db *DB) *attendanceStore {
	return &attendanceStore{session: session{db: db}}
}

func (s *attendanceStore) Atomic(_ context.Context, fn func(tx attendance.Store) error) error {
	return s.atomic(func(tx session) error {
		return fn(&attendanceStore{session: tx})
	})
}

func sameLecture(rec attendance.Record, batch string, date time.Time, lectureNo int) bool {
	return rec.BatchName == batch && rec.Date.Equal(date) && rec.LectureNo == lectureNo
}

func (s *attendanceStore) LectureRecorded(_ context.Context, batch string, date time.Time, lectureNo int) (bool, error) {
	var recorded bool
	err := s.view(func(t *tables) error {
		for _, rec := range t.attendance {
			if sameLecture(rec, batch, date, lectureNo) {
				recorded = true
				break
			}
		}
		return nil
	})
	return recorded, err
}

func (s *attendanceStore) AddRecord(_ context.Context, rec attendance.Record) error {
	return s.update(func(t *tables) error {
		for _, other := range t.attendance {
			if sameLecture(other, rec.BatchName, rec.Date, rec.LectureNo) && other.StudentID == rec.StudentID {
				return core.NewDuplicateError("duplicate value violates %q", "attendance_unique_lecture")
			}
		}
		rec.ID = t.nextPK()
		t.attendance = append(t.attendance, rec)
		return nil
	})
}

func (s *attendanceStore) Query(_ context.Context, c attendance.Criteria) ([]attendance.Record, error) {
	recs := make([]attendance.Record, 0)
	name := strings.ToLower(c.Name)
	err := s.view(func(t *tables) error {
		for _, rec := range t.attendance {
			switch {
			case c.Batch != "" && rec.BatchName != c.Batch:
			case !c.Date.IsZero() && !rec.Date.Equal(c.Date):
			case c.Present != nil && rec.Present != *c.Present:
			case name != "" && !strings.Contains(strings.ToLower(rec.StudentName), name):
			case c.LectureNo > 0 && rec.LectureNo != c.LectureNo:
			default:
				recs = append(recs, rec)
			}
		}
		return nil
	})
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.LectureNo != b.LectureNo {
			return a.LectureNo < b.LectureNo
		}
		return a.StudentName < b.StudentName
	})
	return recs, err
}

func (s *attendanceStore) AbsentStudents(_ context.Context, from, to time.Time, minDays int) ([]attendance.AbsentStudent, error) {
	absents := make([]attendance.AbsentStudent, 0)
	err := s.view(func(t *tables) error {
		days := make(map[string]map[time.Time]bool)
		for _, rec := range t.attendance {
			if rec.Present || rec.Date.Before(from) || !rec.Date.Before(to) {
				continue
			}
			if days[rec.StudentID] == nil {
				days[rec.StudentID] = make(map[time.Time]bool)
			}
			days[rec.StudentID][rec.Date] = true
		}
		for id, d := range days {
			st, ok := t.students[id]
			if !ok || len(d) < minDays {
				continue
			}
			absents = append(absents, attendance.AbsentStudent{StudentID: st.ID, StudentName: st.Name, BatchName: st.BatchName})
		}
		return nil
	})
	sort.Slice(absents, func(i, j int) bool { return absents[i].StudentID < absents[j].StudentID })
	return absents, err
}

func (s *attendanceStore) FlagAbsentee(_ context.Context, a attendance.Absentee) (bool, error) {
	var inserted bool
	err := s.update(func(t *tables) error {
		for _, other := range t.absentees {
			if other.StudentID == a.StudentID && other.FlaggedOn.Equal(a.FlaggedOn) {
				return nil
			}
		}
		a.ID = t.nextPK()
		t.absentees = append(t.absentees, a)
		inserted = true
		return nil
	})
	return inserted, err
}

func (s *attendanceStore) LatestAbsentees(_ context.Context, limit int) ([]attendance.Absentee, error) {
	var absentees []attendance.Absentee
	err := s.view(func(t *tables) error {
		absentees = append(make([]attendance.Absentee, 0, len(t.absentees)), t.absentees...)
		return nil
	})
	sort.SliceStable(absentees, func(i, j int) bool {
		if !absentees[i].CreatedAt.Equal(absentees[j].CreatedAt) {
			return absentees[i].CreatedAt.After(absentees[j].CreatedAt)
		}
		return absentees[i].ID > absentees[j].ID
	})
	if len(absentees) > limit {
		absentees = absentees[:limit]
	}
	return absentees, err
}

func (s *attendanceStore) MarkAbsenteesSeen(context.Context) (int, error) {
	var n int
	err := s.update(func(t *tables) error {
		for i := range t.absentees {
			if !t.absentees[i].Seen {
				t.absentees[i].Seen = true
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *attendanceStore) UpdateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	var updated attendance.Record
	err := s.update(func(t *tables) error {
		for i, other := range t.attendance {
			if sameLecture(other, rec.BatchName, rec.Date, rec.LectureNo) && other.StudentID == rec.StudentID {
				other.Present = rec.Present
				other.MarkedBy = rec.MarkedBy
				other.MarkerRole = rec.MarkerRole
				t.attendance[i] = other
				updated = other
				return nil
			}
		}
		return attendance.ErrRecordNotFound
	})
	return updated, err
}
