// Package spreadsheet turns uploaded .xlsx or .csv files into intake rows.
package spreadsheet

import (
	"encoding/csv"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/vishvavidya/traininghub/core/student"
)

// TemplateColumns are the headers of the registration template, in order.
var TemplateColumns = []string{"student_name", "email_id", "contact_no", "aptitude_marks", "percentage", "result"}

var ErrUnsupportedFormat = errors.New("Invalid file type. Only .xlsx and .csv files are allowed.")

// ParseRows reads the first sheet of an .xlsx file, or a .csv file, depending on the extension of filename.
// The first row is the header. Blank rows inside the data are kept so that row numbers match the
// sheet; trailing blank rows are dropped.
func ParseRows(filename string, r io.Reader) ([]student.Row, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	records, err := f.GetRows(sheets[0])
	return records, errors.Wrapf(err, "reading sheet %q", sheets[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true
	records, err := rd.ReadAll()
	return records, errors.Wrap(err, "reading csv")
}

// toRows keys every data record by its normalised header.
func toRows(records [][]string) []student.Row {
	if len(records) == 0 {
		return []student.Row{}
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = NormaliseHeader(h)
	}

	rows := make([]student.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(student.Row, len(header))
		for i, col := range header {
			if col == "" || i >= len(rec) {
				continue
			}
			row[col] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, row)
	}
	return trimTrailingBlank(rows)
}

func trimTrailingBlank(rows []student.Row) []student.Row {
	for len(rows) > 0 && rows[len(rows)-1].Blank() {
		rows = rows[:len(rows)-1]
	}
	return rows
}

// NormaliseHeader maps "Student Name" or "student-name" to "student_name".
func NormaliseHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}), "_")
}

// WriteTemplate writes an empty registration workbook to w.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Students"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	header := make([]interface{}, len(TemplateColumns))
	for i, col := range TemplateColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	_, err := f.WriteTo(w)
	return errors.Wrap(err, "writing workbook")
}
