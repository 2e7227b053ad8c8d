package student

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/core/ledger"
)

// Sentinels & well known values
const (
	NoBatch    = "No Batch"
	NoStatus   = "No Status"
	NotDefined = "Not Defined"

	StatusInTraining     = "In Training"
	StatusPlaced         = "Placed"
	StatusAbsconding     = "Absconding"
	StatusCompleted      = "Completed"
	StatusShadowed       = "Shadowed"
	StatusTrainingClosed = "Training Closed"

	PlacementUnplaced = "Unplaced"
	PlacementPlaced   = "Placed"

	RoleIntern = "intern"
)

// statuses that end the batch membership of a student, compared case-insensitively
var batchClearingStatuses = []string{StatusPlaced, StatusAbsconding, StatusCompleted, StatusShadowed}

// statuses that lock interns out of the application
var loginDeniedStatuses = []string{StatusPlaced, StatusAbsconding}

func ClearsBatch(status string) bool { return statusIn(status, batchClearingStatuses) }

func DeniesLogin(status string) bool { return statusIn(status, loginDeniedStatuses) }

func statusIn(status string, set []string) bool {
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(status), s) {
			return true
		}
	}
	return false
}

// Student is the canonical record of a trainee. BatchName and TrainingStatus only change through Service.
type Student struct {
	ID                   string    `json:"id" db:"id"`
	Name                 string    `json:"student_name" db:"student_name"`
	Email                string    `json:"email_id" db:"email_id"`
	Contact              string    `json:"contact_no" db:"contact_no"`
	BatchName            string    `json:"batch_name" db:"batch_name"`
	TrainingStatus       string    `json:"training_status" db:"training_status"`
	PlacementStatus      string    `json:"placement_status" db:"placement_status"`
	PassoutYear          string    `json:"passout_year" db:"passout_year"`
	HighestQualification string    `json:"highest_qualification" db:"highest_qualification"`
	Skillset             string    `json:"skillset" db:"skillset"`
	Certification        string    `json:"certification" db:"certification"`
	CurrentLocation      string    `json:"current_location" db:"current_location"`
	Experience           string    `json:"experience" db:"experience"`
	CreatedBy            string    `json:"created_by_userid" db:"created_by_userid"`
	CreatorRole          string    `json:"created_by_role" db:"created_by_role"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// Aptitude is the optional entrance test result captured at registration.
type Aptitude struct {
	StudentID   string       `json:"id" db:"id"`
	Marks       null.Float64 `json:"aptitude_marks" db:"aptitude_marks"`
	Percentage  null.Float64 `json:"percentage" db:"percentage"`
	Result      null.String  `json:"result" db:"result"`
	CreatedBy   string       `json:"created_by_userid" db:"created_by_userid"`
	CreatorRole string       `json:"created_by_role" db:"created_by_role"`
}

// LoginCredential mirrors the training status of a student to gate authentication.
type LoginCredential struct {
	StudentID    string `json:"student_id" db:"student_id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email_id" db:"email_id"`
	Contact      string `json:"contact_no" db:"contact_no"`
	Role         string `json:"role" db:"role"`
	PasswordHash []byte `json:"-" db:"password_hash"`
	Status       string `json:"status" db:"status"`
}

func (c *LoginCredential) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	return nil
}

func (c *LoginCredential) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(pwd))
}

// NewStudent contains information needed to register a Student.
type NewStudent struct {
	Name       string       `json:"studentName" validate:"fullname"`
	Email      string       `json:"email" validate:"emailaddr"`
	Contact    string       `json:"contactNo" validate:"contactno"`
	Marks      null.Float64 `json:"aptitudeMarks"`
	Percentage null.Float64 `json:"aptitudePercentage"`
	Result     null.String  `json:"aptitudeResult"`
}

func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Contact = core.CleanString(ns.Contact)
	if ns.Result.Valid {
		ns.Result.String = core.CleanString(ns.Result.String)
		ns.Result.Valid = ns.Result.String != ""
	}
}

// Details is the full history view of a student.
type Details struct {
	Student       Student                     `json:"student"`
	History       []ledger.BatchMoveRecord    `json:"history"`
	StatusHistory []ledger.StatusChangeRecord `json:"statusHistory"`
	Evaluations   []evaluation.Evaluation     `json:"evaluations"`
	Notifications []ledger.Notification       `json:"notifications"`
}

type QueryFilter struct {
	Batch  string `query:"batchName"`
	Status string `query:"status"`
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Batch = core.CleanString(qf.Batch)
	qf.Status = core.CleanString(qf.Status)
	qf.Search = core.CleanString(qf.Search)
}
