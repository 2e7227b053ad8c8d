package attendance

import (
	"time"

	"github.com/vishvavidya/traininghub/core"
)

const DateLayout = "2006-01-02"

// Record is the presence of one student at one lecture of a batch.
type Record struct {
	ID          int64     `json:"id" db:"id"`
	BatchName   string    `json:"batch_name" db:"batch_name"`
	StudentID   string    `json:"student_id" db:"student_id"`
	StudentName string    `json:"student_name" db:"student_name"`
	Date        time.Time `json:"date" db:"date"`
	LectureNo   int       `json:"lecture_no" db:"lecture_no"`
	Present     bool      `json:"status" db:"status"`
	MarkedBy    string    `json:"marked_by_userid" db:"marked_by_userid"`
	MarkerRole  string    `json:"marked_by_role" db:"marked_by_role"`
}

// Absentee flags a student absent too often over the scanned window. (StudentID, FlaggedOn) is unique.
type Absentee struct {
	ID          int64     `json:"id" db:"id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	StudentName string    `json:"student_name" db:"student_name"`
	BatchName   string    `json:"batch_name" db:"batch_name"`
	FlaggedOn   time.Time `json:"flagged_on" db:"flagged_on"`
	Seen        bool      `json:"seen" db:"seen"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type LectureStudent struct {
	ID   string `json:"id" validate:"notblank"`
	Name string `json:"student_name"`
}

// Sheet is the attendance of a whole batch for one lecture. Students missing from Attendance are absent.
type Sheet struct {
	BatchName  string           `json:"batch_name" validate:"notblank"`
	Date       string           `json:"date" validate:"notblank"`
	LectureNo  int              `json:"lecture_no" validate:"min=1"`
	Students   []LectureStudent `json:"students" validate:"required,min=1,dive"`
	Attendance map[string]bool  `json:"attendance"`
}

func (s *Sheet) Clean() {
	s.BatchName = core.CleanString(s.BatchName)
	s.Date = core.CleanString(s.Date)
	for i := range s.Students {
		s.Students[i].ID = core.CleanString(s.Students[i].ID)
		s.Students[i].Name = core.CleanString(s.Students[i].Name)
	}
}

// Correction changes the recorded presence of one student at one lecture.
type Correction struct {
	StudentID string `json:"student_id" validate:"notblank"`
	BatchName string `json:"batch_name" validate:"notblank"`
	Date      string `json:"date" validate:"notblank"`
	LectureNo int    `json:"lecture_no" validate:"min=1"`
	Present   *bool  `json:"status" validate:"required"`
}

func (c *Correction) Clean() {
	c.StudentID = core.CleanString(c.StudentID)
	c.BatchName = core.CleanString(c.BatchName)
	c.Date = core.CleanString(c.Date)
}

// QueryFilter applies AND on every non zero field. Name matches case-insensitively anywhere in the student name.
type QueryFilter struct {
	Batch     string `query:"batch"`
	Date      string `query:"date"`
	Status    string `query:"status"`
	Name      string `query:"name"`
	LectureNo int    `query:"lecture_no"`
}

func (qf *QueryFilter) Clean() {
	qf.Batch = core.CleanString(qf.Batch)
	qf.Date = core.CleanString(qf.Date)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Name = core.CleanString(qf.Name)
}

// Criteria is the parsed form of a QueryFilter handed to the Store.
type Criteria struct {
	Batch     string
	Date      time.Time
	Present   *bool
	Name      string
	LectureNo int
}

// AbsentStudent is a student absent on at least the minimum number of distinct days of a window.
type AbsentStudent struct {
	StudentID   string `db:"id"`
	StudentName string `db:"student_name"`
	BatchName   string `db:"batch_name"`
}
