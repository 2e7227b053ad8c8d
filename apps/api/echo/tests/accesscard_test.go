package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/vishvavidya/traininghub/apps/api/echo"
	"github.com/vishvavidya/traininghub/core/accesscard"
)

func Test_accessCardApi(t *testing.T) {
	e := setup(t)
	token := e.token(t, e.manager)
	card := func(code, number string) []byte {
		return []byte(fmt.Sprintf(`{"traineeCode":%q,"traineeName":"Anita Desai","email":"anita@mail.com",`+
			`"contact":"9876543210","idCard":"Aadhaar","accessCardNumber":%q,"cardAllocationDate":"2024-07-01",`+
			`"trainingDuration":"3 months","trainerName":"Ravi Kumar","managerName":"Meera Iyer"}`, code, number))
	}

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/api/getAccessCards",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "staff required", method: http.MethodPost, path: "/api/access-card-details", token: internToken(t, "VVINTERN2024001"),
			body: card("VVINTERN2024001", "AC-101"), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid", method: http.MethodPost, path: "/api/access-card-details", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "issue", method: http.MethodPost, path: "/api/access-card-details", token: token, body: card("VVINTERN2024001", "AC-101"),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, AccessCardIssuedResponse{Message: "Access card details submitted successfully!", Data: IDResponse{ID: 1}}),
		},
		{
			name: "card held", method: http.MethodPost, path: "/api/access-card-details", token: token, body: card("VVINTERN2024002", "AC-101"),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, MessageResponse{Message: "Access card is already allocated to another trainee"}),
		},
		{
			name: "update unknown", method: http.MethodPut, path: "/api/updateAccessCard", token: token,
			body: []byte(`{"id":99,"trainee_code":"VVINTERN2024001","trainee_name":"Anita Desai","email":"anita@mail.com",` +
				`"contact":"9876543210","access_card_number":"AC-101","card_allocation_date":"2024-07-01"}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, MessageResponse{Message: "Access card not found."}),
		},
	}
	for _, tt := range tests {
		tt.run(t, e.app)
	}

	list := func(t *testing.T) []accesscard.Card {
		req, rec := newAuthRequest(http.MethodGet, "/api/getAccessCards", e.token(t, e.trainer))
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp AccessCardsResponse
		unmarshalBody(t, rec, &resp)
		assert.True(t, resp.Success)
		return resp.Data
	}

	cards := list(t)
	require.Len(t, cards, 1)
	assert.Equal(t, "AC-101", cards[0].Number)
	assert.Equal(t, accesscard.DepositPaid, cards[0].Deposit)
	assert.Equal(t, e.manager.User.ID, cards[0].CreatedBy)

	t.Run("return card", func(t *testing.T) {
		body := []byte(`{"id":1,"trainee_code":"VVINTERN2024001","trainee_name":"Anita Desai","email":"anita@mail.com",` +
			`"contact":"9876543210","id_card_type":"PAN","access_card_number":"AC-101","card_allocation_date":"2024-07-01",` +
			`"card_submitted_date":"2024-07-15"}`)
		req, rec := newAuthRequest(http.MethodPut, "/api/updateAccessCard", token, body)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var c accesscard.Card
		unmarshalBody(t, rec, &c)
		assert.Equal(t, "PAN", c.IDCardType)
		assert.False(t, c.Held())
		assert.Equal(t, "2024-07-15", c.SubmittedOn.Time.Format(accesscard.DateLayout))

		// the returned number may be lent again
		req, rec = newAuthRequest(http.MethodPost, "/api/access-card-details", token, card("VVINTERN2024002", "AC-101"))
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Len(t, list(t), 2)
	})
}
