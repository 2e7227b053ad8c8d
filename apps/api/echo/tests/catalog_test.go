package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/vishvavidya/traininghub/apps/api/echo"
	"github.com/vishvavidya/traininghub/core/catalog"
)

func Test_catalogApi_tracks(t *testing.T) {
	e := setup(t)
	token := e.token(t, e.manager)
	trackNotFound := marchallObj(t, MessageResponse{Message: "Track not found"})

	var java TrackResponse
	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/tracks", token,
			[]byte(`{"trackName":" Java ","startDate":"2024-06-01","recognitionCode":"JFS"}`))
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		unmarshalBody(t, rec, &java)
		assert.Equal(t, "Track added successfully", java.Message)
		assert.Equal(t, "Java", java.Track.Name)
		assert.Equal(t, "JFS", java.Track.RecognitionCode)
		assert.Equal(t, "2024-06-01", java.Track.StartDate.Format(catalog.DateLayout))
		assert.Equal(t, e.manager.User.ID, java.Track.CreatedBy)
	})
	require.NotZero(t, java.Track.ID)
	trackPath := fmt.Sprintf("/api/tracks/%d", java.Track.ID)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/api/tracks",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "staff required", method: http.MethodGet, path: "/api/tracks", token: internToken(t, "VVINTERN2024001"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "duplicate", method: http.MethodPost, path: "/api/tracks", token: token,
			body:     []byte(`{"trackName":"Java","startDate":"2024-07-01","recognitionCode":"JV"}`),
			wantCode: http.StatusConflict, wantData: marchallObj(t, MessageResponse{Message: "Track already exists"}),
		},
		{
			name: "invalid", method: http.MethodPost, path: "/api/tracks", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "malformed date", method: http.MethodPost, path: "/api/tracks", token: token,
			body:     []byte(`{"trackName":"Python","startDate":"01/06/2024","recognitionCode":"PY"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "update non numeric id", method: http.MethodPut, path: "/api/tracks/java", token: token,
			body:     []byte(`{"trackName":"Java","startDate":"2024-06-01","recognitionCode":"JFS"}`),
			wantCode: http.StatusNotFound, wantData: trackNotFound,
		},
		{
			name: "update unknown", method: http.MethodPut, path: "/api/tracks/999", token: token,
			body:     []byte(`{"trackName":"Java","startDate":"2024-06-01","recognitionCode":"JFS"}`),
			wantCode: http.StatusNotFound, wantData: trackNotFound,
		},
		{
			name: "delete unknown", method: http.MethodDelete, path: "/api/tracks/999", token: token,
			wantCode: http.StatusNotFound, wantData: trackNotFound,
		},
	}
	for _, tt := range tests {
		tt.run(t, e.app)
	}

	t.Run("update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, trackPath, e.token(t, e.admin),
			[]byte(`{"trackName":"Java Full Stack","startDate":"2024-06-03","recognitionCode":"JFS"}`))
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp TrackResponse
		unmarshalBody(t, rec, &resp)
		assert.Equal(t, "Track updated successfully", resp.Message)
		assert.Equal(t, "Java Full Stack", resp.Track.Name)
		assert.Equal(t, e.admin.User.ID, resp.Track.UpdatedBy)
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/tracks", token)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var tracks []catalog.Track
		unmarshalBody(t, rec, &tracks)
		if assert.Len(t, tracks, 1) {
			assert.Equal(t, "Java Full Stack", tracks[0].Name)
		}
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, trackPath, token)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MessageResponse{Message: "Track deleted successfully"}),
		}, rec)

		req, rec = newAuthRequest(http.MethodDelete, trackPath, token)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: trackNotFound}, rec)
	})
}

func Test_catalogApi_batches(t *testing.T) {
	e := setup(t)
	token := e.token(t, e.trainer)

	req, rec := newAuthRequest(http.MethodPost, "/api/tracks", token,
		[]byte(`{"trackName":"Java","startDate":"2024-06-01","recognitionCode":"JFS"}`))
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	batch := func(name, track string) []byte {
		return []byte(fmt.Sprintf(`{"batchName":%q,"trackName":%q,"numOfWeeks":12,"batchStartDate":"2024-07-01",`+
			`"instructorName":"Ravi Kumar","batchType":"Online"}`, name, track))
	}

	tests := []httpTest{
		{
			name: "generate first name", method: http.MethodGet, path: "/api/generate-batch-name/Java", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, BatchNameResponse{BatchName: "JFS001"}),
		},
		{
			name: "generate for unknown track", method: http.MethodGet, path: "/api/generate-batch-name/Rust", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, MessageResponse{Message: "Track not found"}),
		},
		{
			name: "unknown track", method: http.MethodPost, path: "/api/batches", token: token, body: batch("RS001", "Rust"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, MessageResponse{Message: "Track not found"}),
		},
		{
			name: "invalid", method: http.MethodPost, path: "/api/batches", token: token,
			body:     []byte(`{"batchName":"JFS001","trackName":"Java"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "created", method: http.MethodPost, path: "/api/batches", token: token, body: batch("JFS001", "Java"),
			wantCode: http.StatusCreated,
		},
		{
			name: "duplicate", method: http.MethodPost, path: "/api/batches", token: token, body: batch("JFS001", "Java"),
			wantCode: http.StatusConflict, wantData: marchallObj(t, MessageResponse{Message: "Batch already exists"}),
		},
		{
			name: "generate next name", method: http.MethodGet, path: "/api/generate-batch-name/Java", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, BatchNameResponse{BatchName: "JFS002"}),
		},
	}
	for _, tt := range tests {
		tt.run(t, e.app)
	}

	for _, path := range []string{"/api/batches", "/api/getBatchesByTrack?trackName=Java"} {
		t.Run(path, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, path, token)
			e.app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var batches []catalog.Batch
			unmarshalBody(t, rec, &batches)
			if assert.Len(t, batches, 1) {
				assert.Equal(t, "JFS001", batches[0].Name)
				assert.Equal(t, 12, batches[0].NumOfWeeks)
				assert.Equal(t, e.trainer.User.ID, batches[0].CreatedBy)
			}
		})
	}
}
