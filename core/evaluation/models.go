package evaluation

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/vishvavidya/traininghub/core"
)

// Evaluation is the score sheet of one student for one attempt in a batch. (Email, BatchName, Attempt) is unique.
type Evaluation struct {
	ID               int64        `json:"id" db:"id"`
	Email            string       `json:"email_id" db:"email_id"`
	StudentID        string       `json:"student_id" db:"student_id"`
	StudentName      string       `json:"student_name" db:"student_name"`
	BatchName        string       `json:"batch_name" db:"batch_name"`
	Attempt          int          `json:"attempt" db:"attempt"`
	AttemptName      string       `json:"attempt_name" db:"attempt_name"`
	Technical        null.Float64 `json:"technical" db:"technical"`
	MCQ              null.Float64 `json:"mcq" db:"mcq"`
	Oral             null.Float64 `json:"oral" db:"oral"`
	Total            null.Float64 `json:"total" db:"total"`
	Remark           null.String  `json:"remark" db:"remark"`
	PendingTechnical null.String  `json:"pending_technical" db:"pending_technical"`
	PendingMCQ       null.String  `json:"pending_mcq" db:"pending_mcq"`
	PendingOral      null.String  `json:"pending_oral" db:"pending_oral"`
	PendingRemark    null.String  `json:"pending_remark" db:"pending_remark"`
	CreatedBy        string       `json:"created_by_userid" db:"created_by_userid"`
	CreatorRole      string       `json:"created_by_role" db:"created_by_role"`
	UpdatedBy        string       `json:"updated_by_userid" db:"updated_by_userid"`
	UpdaterRole      string       `json:"updated_by_role" db:"updated_by_role"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        null.Time    `json:"updated_at" db:"updated_at"`
}

// Scores holds the marks of an attempt as submitted by a trainer.
type Scores struct {
	Attempt          int          `json:"attempt" validate:"min=1"`
	AttemptName      string       `json:"attemptName"`
	Technical        null.Float64 `json:"technical"`
	MCQ              null.Float64 `json:"mcq"`
	Oral             null.Float64 `json:"oral"`
	Total            null.Float64 `json:"total"`
	Remark           null.String  `json:"remark"`
	PendingTechnical null.String  `json:"pendingTechnical"`
	PendingMCQ       null.String  `json:"pendingMcq"`
	PendingOral      null.String  `json:"pendingOral"`
	PendingRemark    null.String  `json:"pendingRemark"`
}

// ScoreUpdate replaces the marks of a single evaluation. Attempt & student stay untouched.
type ScoreUpdate struct {
	Technical        null.Float64 `json:"technical"`
	MCQ              null.Float64 `json:"mcq"`
	Oral             null.Float64 `json:"oral"`
	Total            null.Float64 `json:"total"`
	Remark           null.String  `json:"remark"`
	PendingTechnical null.String  `json:"pending_technical"`
	PendingMCQ       null.String  `json:"pending_mcq"`
	PendingOral      null.String  `json:"pending_oral"`
	PendingRemark    null.String  `json:"pending_remark"`
}

// StudentScores ties Scores to a student.
type StudentScores struct {
	StudentID   string `json:"id" validate:"required"`
	Email       string `json:"email_id" validate:"required"`
	StudentName string `json:"student_name" validate:"required"`
	Scores      Scores `json:"evaluationData"`
}

// BatchScores is a batch wide evaluation submission.
type BatchScores struct {
	BatchName string          `json:"batchName" validate:"notblank"`
	Students  []StudentScores `json:"students" validate:"required,dive"`
}

func (bs *BatchScores) Clean() {
	bs.BatchName = core.CleanString(bs.BatchName)
	for i := range bs.Students {
		bs.Students[i].StudentID = core.CleanString(bs.Students[i].StudentID)
		bs.Students[i].Email = core.CleanString(bs.Students[i].Email, true /* lower */)
		bs.Students[i].StudentName = core.CleanString(bs.Students[i].StudentName)
	}
}

type QueryFilter struct {
	BatchName string `query:"batchName"`
	Attempt   int    `query:"attempt"`
	StudentID string `query:"studentId"`
}
