package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/vishvavidya/traininghub/apps/api/echo"
	"github.com/vishvavidya/traininghub/core/attendance"
	"github.com/vishvavidya/traininghub/tests"
)

func Test_attendanceApi(t *testing.T) {
	e := setup(t)
	token := e.token(t, e.trainer)
	anita := testutil.RegisterStudent(t, e.studentSvc, "Anita Desai", "anita@mail.com", "9876543210")
	rahul := testutil.RegisterStudent(t, e.studentSvc, "Rahul Verma", "rahul@mail.com", "8123456789")
	testutil.MoveStudent(t, e.studentSvc, anita.ID, "JFS001")
	testutil.MoveStudent(t, e.studentSvc, rahul.ID, "JFS001")

	sheet := func(date string) []byte {
		return marchallObj(t, attendance.Sheet{
			BatchName: "JFS001",
			Date:      date,
			LectureNo: 1,
			Students: []attendance.LectureStudent{
				{ID: anita.ID, Name: anita.Name},
				{ID: rahul.ID, Name: rahul.Name},
			},
			Attendance: map[string]bool{anita.ID: true},
		})
	}
	saved := marchallObj(t, MessageResponse{Message: "Attendance saved successfully!"})

	// today is 2024-07-15; Rahul misses three of the five days before it
	tests := []httpTest{
		{
			name: "staff required", method: http.MethodPost, path: "/api/saveAttendance", token: internToken(t, anita.ID),
			body: sheet("2024-07-10"), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid", method: http.MethodPost, path: "/api/saveAttendance", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "day 1", method: http.MethodPost, path: "/api/saveAttendance", token: token, body: sheet("2024-07-10"),
			wantCode: http.StatusCreated, wantData: saved,
		},
		{
			name: "already recorded", method: http.MethodPost, path: "/api/saveAttendance", token: token, body: sheet("2024-07-10"),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: attendance.MsgAlreadyRecorded}),
		},
		{
			name: "day 2", method: http.MethodPost, path: "/api/saveAttendance", token: token, body: sheet("2024-07-11"),
			wantCode: http.StatusCreated, wantData: saved,
		},
		{
			name: "day 3", method: http.MethodPost, path: "/api/saveAttendance", token: token, body: sheet("2024-07-12"),
			wantCode: http.StatusCreated, wantData: saved,
		},
		{
			name: "invalid query date", method: http.MethodGet, path: "/api/getAttendance?date=12-07-2024", token: token,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "generate", method: http.MethodPost, path: "/api/generate-absentee-notifications", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, CountResponse{Message: "Absentee notifications generated.", Count: 1}),
		},
		{
			name: "generate again", method: http.MethodPost, path: "/api/generate-absentee-notifications", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, CountResponse{Message: "Absentee notifications generated.", Count: 0}),
		},
	}
	for _, tt := range tests {
		tt.run(t, e.app)
	}

	query := func(t *testing.T, params string) []attendance.Record {
		req, rec := newAuthRequest(http.MethodGet, "/api/getAttendance"+params, token)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var recs []attendance.Record
		unmarshalBody(t, rec, &recs)
		return recs
	}

	t.Run("query", func(t *testing.T) {
		assert.Len(t, query(t, ""), 6)
		assert.Len(t, query(t, "?batch=JFS001&date=2024-07-11"), 2)
		assert.Len(t, query(t, "?status=true"), 3)

		absent := query(t, fmt.Sprintf("?status=false&name=%s", "rahul"))
		if assert.Len(t, absent, 3) {
			assert.Equal(t, rahul.ID, absent[0].StudentID)
			assert.False(t, absent[0].Present)
			assert.Equal(t, e.trainer.User.ID, absent[0].MarkedBy)
		}
	})

	t.Run("absentees", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/absentees", token)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var absentees []attendance.Absentee
		unmarshalBody(t, rec, &absentees)
		if assert.Len(t, absentees, 1) {
			assert.Equal(t, rahul.ID, absentees[0].StudentID)
			assert.Equal(t, "JFS001", absentees[0].BatchName)
			assert.Equal(t, "2024-07-15", absentees[0].FlaggedOn.Format(attendance.DateLayout))
			assert.False(t, absentees[0].Seen)
		}
	})

	tests = []httpTest{
		{
			name: "mark seen", method: http.MethodPut, path: "/api/absentee-notifications/mark-seen", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, CountResponse{Message: "All notifications marked as seen.", Count: 1}),
		},
		{
			name: "mark seen again", method: http.MethodPut, path: "/api/absentee-notifications/mark-seen", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, CountResponse{Message: "All notifications marked as seen.", Count: 0}),
		},
	}
	for _, tt := range tests {
		tt.run(t, e.app)
	}

	t.Run("correct", func(t *testing.T) {
		tests := []httpTest{
			{
				name: "missing fields", method: http.MethodPut, path: "/api/updateAttendance", token: token,
				body:     []byte(`{"student_id":"` + rahul.ID + `","batch_name":"JFS001","lecture_no":1}`),
				wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, ErrorsResponse{
					Message: "Missing required fields",
					Errors:  []string{"this field cannot be blank", "this field is required"},
				}),
			},
			{
				name: "not recorded", method: http.MethodPut, path: "/api/updateAttendance", token: token,
				body:     []byte(`{"student_id":"` + rahul.ID + `","batch_name":"JFS001","date":"2024-07-13","lecture_no":1,"status":true}`),
				wantCode: http.StatusNotFound,
				wantData: marchallObj(t, MessageResponse{Message: "Attendance record not found"}),
			},
			{
				name: "interns cannot", method: http.MethodPut, path: "/api/updateAttendance", token: internToken(t, rahul.ID),
				body:     []byte(`{"student_id":"` + rahul.ID + `","batch_name":"JFS001","date":"2024-07-12","lecture_no":1,"status":true}`),
				wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
			},
		}
		for _, tt := range tests {
			tt.run(t, e.app)
		}

		body := []byte(`{"student_id":"` + rahul.ID + `","batch_name":"JFS001","date":"2024-07-12","lecture_no":1,"status":true}`)
		req, rec := newAuthRequest(http.MethodPut, "/api/updateAttendance", e.token(t, e.manager), body)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp AttendanceUpdatedResponse
		unmarshalBody(t, rec, &resp)
		assert.Equal(t, "Attendance updated successfully", resp.Message)
		assert.True(t, resp.Record.Present)
		assert.Equal(t, e.manager.User.ID, resp.Record.MarkedBy)

		assert.Len(t, query(t, "?status=false"), 2)
	})
}
