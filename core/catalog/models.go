package catalog

import (
	"time"

	"github.com/vishvavidya/traininghub/core"
)

// Track is a curriculum category. Its RecognitionCode prefixes the names of its batches.
type Track struct {
	ID              int       `json:"id" db:"id"`
	Name            string    `json:"track_name" db:"track_name"`
	StartDate       time.Time `json:"start_date" db:"start_date"`
	RecognitionCode string    `json:"recognition_code" db:"recognition_code"`
	CreatedBy       string    `json:"created_by_userid" db:"created_by_userid"`
	CreatorRole     string    `json:"created_by_role" db:"created_by_role"`
	UpdatedBy       string    `json:"updated_by_userid" db:"updated_by_userid"`
	UpdaterRole     string    `json:"updated_by_role" db:"updated_by_role"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Batch is a cohort training together under one track and instructor.
type Batch struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"batch_name" db:"batch_name"`
	TrackName      string    `json:"track_name" db:"track_name"`
	NumOfWeeks     int       `json:"num_of_weeks" db:"num_of_weeks"`
	StartDate      time.Time `json:"batch_start_date" db:"batch_start_date"`
	InstructorName string    `json:"instructor_name" db:"instructor_name"`
	BatchType      string    `json:"batch_type" db:"batch_type"`
	CreatedBy      string    `json:"created_by_userid" db:"created_by_userid"`
	CreatorRole    string    `json:"created_by_role" db:"created_by_role"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Date is a calendar day bound from "2006-01-02".
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(`"`+DateLayout+`"`, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

const DateLayout = "2006-01-02"

// TrackInput is what may be provided to create or update a Track.
type TrackInput struct {
	Name            string `json:"trackName" validate:"notblank"`
	StartDate       Date   `json:"startDate"`
	RecognitionCode string `json:"recognitionCode" validate:"notblank"`
}

func (ti *TrackInput) Clean() {
	ti.Name = core.CleanString(ti.Name)
	ti.RecognitionCode = core.CleanString(ti.RecognitionCode)
}

// BatchInput is what may be provided to create a Batch.
type BatchInput struct {
	Name           string `json:"batchName" validate:"notblank"`
	TrackName      string `json:"trackName" validate:"notblank"`
	NumOfWeeks     int    `json:"numOfWeeks" validate:"min=1"`
	StartDate      Date   `json:"batchStartDate"`
	InstructorName string `json:"instructorName" validate:"notblank"`
	BatchType      string `json:"batchType" validate:"notblank"`
}

func (bi *BatchInput) Clean() {
	bi.Name = core.CleanString(bi.Name)
	bi.TrackName = core.CleanString(bi.TrackName)
	bi.InstructorName = core.CleanString(bi.InstructorName)
	bi.BatchType = core.CleanString(bi.BatchType)
}
