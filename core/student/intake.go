package student

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vishvavidya/traininghub/core"
)

// Row is one parsed spreadsheet row keyed by normalised header (e.g. "student_name").
type Row map[string]string

// Blank reports whether every cell of the row is empty.
func (r Row) Blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

const (
	colName       = "student_name"
	colEmail      = "email_id"
	colContact    = "contact_no"
	colMarks      = "aptitude_marks"
	colPercentage = "percentage"
	colResult     = "result"

	intakeNameMaxLen = 100
	firstDataRow     = 2 // the header is row 1
)

var requiredColumns = []string{colName, colEmail, colContact}

// IntakeSummary reports the outcome of a bulk intake. Errors are rejected rows, Ignored are already registered ones.
type IntakeSummary struct {
	Inserted int      `json:"inserted"`
	Ignored  []string `json:"ignored"`
	Errors   []string `json:"errors"`
}

// IntakeError is returned when no row of an intake could be registered. Nothing is written.
type IntakeError struct {
	Summary IntakeSummary
}

func (err IntakeError) Error() string { return "No new students to register" }

// Intake registers every valid row of rows in a single transaction. Invalid rows are reported in
// the summary instead of failing the whole intake, unless none is valid. Blank rows are skipped
// silently but still count for the row numbers of the report.
func (svc *Service) Intake(ctx context.Context, actor core.Actor, rows []Row) (IntakeSummary, error) {
	summary := IntakeSummary{Ignored: []string{}, Errors: []string{}}
	valid := make([]NewStudent, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for i, row := range rows {
		if row.Blank() {
			continue
		}
		rowNo := i + firstDataRow
		ns, rowErr := parseRow(rowNo, row)
		if rowErr != "" {
			summary.Errors = append(summary.Errors, rowErr)
			continue
		}

		exists := seen[ns.Email]
		if !exists {
			var err error
			if exists, err = svc.store.EmailExists(ctx, ns.Email); err != nil {
				return IntakeSummary{}, errors.Wrap(err, "checking email uniqueness")
			}
		}
		if exists {
			summary.Ignored = append(summary.Ignored, fmt.Sprintf("Row %d - Email already registered: %s", rowNo, ns.Email))
			continue
		}
		seen[ns.Email] = true
		valid = append(valid, ns)
	}

	if len(valid) == 0 {
		return IntakeSummary{}, &IntakeError{Summary: summary}
	}

	err := svc.store.Atomic(ctx, func(tx Store) error {
		now := NowFunc()
		for _, ns := range valid {
			if _, err := svc.create(ctx, tx, actor, ns, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return IntakeSummary{}, errors.Wrap(err, "registering students")
	}
	summary.Inserted = len(valid)
	return summary, nil
}

// parseRow validates a row and returns either the student to register or the row error message.
func parseRow(rowNo int, row Row) (NewStudent, string) {
	get := func(col string) string { return core.CleanString(row[col]) }

	var missing []string
	for _, col := range requiredColumns {
		if get(col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return NewStudent{}, fmt.Sprintf("Row %d - Missing: %s", rowNo, strings.Join(missing, ", "))
	}

	email := get(colEmail)
	if !core.EmailRegex.MatchString(email) {
		return NewStudent{}, fmt.Sprintf("Row %d - Invalid email: %s", rowNo, email)
	}
	contact := get(colContact)
	if !core.ContactNoRegex.MatchString(contact) {
		return NewStudent{}, fmt.Sprintf("Row %d - Invalid contact number: %s", rowNo, contact)
	}
	name := get(colName)
	if n := utf8.RuneCountInString(name); n < core.FullNameMinLen || n > intakeNameMaxLen {
		return NewStudent{}, fmt.Sprintf("Row %d - Student name must be between %d and %d characters.", rowNo, core.FullNameMinLen, intakeNameMaxLen)
	}

	ns := NewStudent{
		Name:       name,
		Email:      strings.ToLower(email),
		Contact:    contact,
		Marks:      parseNumber(get(colMarks)),
		Percentage: parseNumber(get(colPercentage)),
		Result:     null.StringFrom(NotDefined),
	}
	if r := get(colResult); r != "" {
		ns.Result = null.StringFrom(r)
	}
	return ns, ""
}

// parseNumber returns a null value for blank or non numeric cells.
func parseNumber(s string) null.Float64 {
	if s == "" {
		return null.Float64{}
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return null.Float64{}
	}
	return null.Float64From(f)
}
