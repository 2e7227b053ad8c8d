package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/vishvavidya/traininghub/apps/api/echo"
	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/tests"
)

func Test_evaluationApi(t *testing.T) {
	e := setup(t)
	token := e.token(t, e.trainer)
	st := testutil.RegisterStudent(t, e.studentSvc, "Anita Desai", "anita@mail.com", "9876543210")
	testutil.MoveStudent(t, e.studentSvc, st.ID, "JFS001")

	scores := func(attempt int, technical float64) []byte {
		return []byte(fmt.Sprintf(`{"batchName":"JFS001","students":[{"id":%q,"email_id":"anita@mail.com",`+
			`"student_name":"Anita Desai","evaluationData":{"attempt":%d,"attemptName":"Week %d","technical":%g,"mcq":8,"remark":"steady"}}]}`,
			st.ID, attempt, attempt, technical))
	}
	processed := marchallObj(t, CountResponse{Message: "Evaluations processed successfully.", Count: 1})

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/api/evaluations",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "staff required", method: http.MethodGet, path: "/api/evaluations", token: internToken(t, st.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid", method: http.MethodPost, path: "/api/evaluations", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "first attempt", method: http.MethodPost, path: "/api/evaluations", token: token, body: scores(1, 6),
			wantCode: http.StatusOK, wantData: processed,
		},
		{
			name: "first attempt corrected", method: http.MethodPost, path: "/api/evaluations", token: token, body: scores(1, 7),
			wantCode: http.StatusOK, wantData: processed,
		},
		{
			name: "second attempt", method: http.MethodPost, path: "/api/evaluations", token: token, body: scores(2, 9),
			wantCode: http.StatusOK, wantData: processed,
		},
	}
	for _, tt := range tests {
		tt.run(t, e.app)
	}

	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/evaluations?batchName=JFS001&attempt=1", token)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var evs []evaluation.Evaluation
		unmarshalBody(t, rec, &evs)
		if assert.Len(t, evs, 1) {
			assert.Equal(t, st.ID, evs[0].StudentID)
			assert.Equal(t, 7.0, evs[0].Technical.Float64)
			assert.True(t, evs[0].UpdatedAt.Valid)
		}
	})

	t.Run("student details", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/getStudentDetails/"+st.ID, internToken(t, st.ID))
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var d student.Details
		unmarshalBody(t, rec, &d)
		if assert.Len(t, d.Evaluations, 2) {
			assert.Equal(t, 2, d.Evaluations[0].Attempt)
		}
	})

	t.Run("update", func(t *testing.T) {
		evs, err := e.evaluationSvc.ForStudent(context.Background(), st.ID)
		require.NoError(t, err)
		require.Len(t, evs, 2)
		path := fmt.Sprintf("/api/evaluations/%d", evs[1].ID)
		body := []byte(`{"technical":8,"mcq":9,"oral":7,"total":24,"remark":"improved","pending_oral":null}`)

		tests := []httpTest{
			{
				name: "staff required", method: http.MethodPut, path: path, token: internToken(t, st.ID), body: body,
				wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
			},
			{
				name: "unknown", method: http.MethodPut, path: "/api/evaluations/9999", token: token, body: body,
				wantCode: http.StatusNotFound, wantData: marchallObj(t, MessageResponse{Message: "Evaluation not found"}),
			},
			{
				name: "malformed id", method: http.MethodPut, path: "/api/evaluations/abc", token: token, body: body,
				wantCode: http.StatusNotFound, wantData: marchallObj(t, MessageResponse{Message: "Evaluation not found"}),
			},
		}
		for _, tt := range tests {
			tt.run(t, e.app)
		}

		req, rec := newAuthRequest(http.MethodPut, path, e.token(t, e.manager), body)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp EvaluationUpdatedResponse
		unmarshalBody(t, rec, &resp)
		assert.Equal(t, "Evaluation updated successfully", resp.Message)
		assert.Equal(t, 1, resp.Evaluation.Attempt)
		assert.Equal(t, 24.0, resp.Evaluation.Total.Float64)
		assert.Equal(t, "improved", resp.Evaluation.Remark.String)
		assert.Equal(t, e.manager.User.ID, resp.Evaluation.UpdatedBy)
	})
}
