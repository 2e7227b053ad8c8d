package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	. "github.com/vishvavidya/traininghub/apps/api/echo"
	"github.com/vishvavidya/traininghub/core/accesscard"
	"github.com/vishvavidya/traininghub/core/attendance"
	"github.com/vishvavidya/traininghub/core/catalog"
	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/core/user"
	"github.com/vishvavidya/traininghub/services/email"
	"github.com/vishvavidya/traininghub/storage/database/inmem"
	"github.com/vishvavidya/traininghub/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}

	today = time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type env struct {
	app           Server
	userSvc       *user.Service
	studentSvc    *student.Service
	catalogSvc    *catalog.Service
	attendanceSvc *attendance.Service
	evaluationSvc *evaluation.Service

	admin, manager, trainer user.Credentials
}

func (e env) token(t *testing.T, creds user.Credentials) string {
	return getToken(t, user.Identity{
		UserID: creds.User.ID,
		Name:   creds.User.Name,
		Email:  creds.User.Email,
		Role:   creds.User.Role,
	})
}

func setup(t *testing.T) env {
	t.Helper()
	user.NowFunc = func() time.Time { return today }
	student.NowFunc = func() time.Time { return today }
	catalog.NowFunc = func() time.Time { return today }
	attendance.NowFunc = func() time.Time { return today }
	evaluation.NowFunc = func() time.Time { return today }
	accesscard.NowFunc = func() time.Time { return today }
	t.Cleanup(func() {
		user.NowFunc = time.Now
		student.NowFunc = time.Now
		catalog.NowFunc = time.Now
		attendance.NowFunc = time.Now
		evaluation.NowFunc = time.Now
		accesscard.NowFunc = time.Now
	})
	emailsvc.ResetSent()

	// set up DB & services
	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewConsoleServiceMock()
	userStore := inmemdb.NewUserStore(db)
	evalSvc := evaluation.NewService(inmemdb.NewEvaluationStore(db))
	studentSvc := student.NewService(inmemdb.NewStudentStore(db), mailSvc, user.NewSenders(userStore), evalSvc, nopLogger{})
	userSvc := user.NewService(userStore, studentSvc, mailSvc)
	catalogSvc := catalog.NewService(inmemdb.NewCatalogStore(db))
	attendanceSvc := attendance.NewService(inmemdb.NewAttendanceStore(db), attendance.ScanConfig{WindowDays: 5, MinDays: 3}, nopLogger{})
	accessCardSvc := accesscard.NewService(inmemdb.NewAccessCardStore(db))

	e := env{
		userSvc:       userSvc,
		studentSvc:    studentSvc,
		catalogSvc:    catalogSvc,
		attendanceSvc: attendanceSvc,
		evaluationSvc: evalSvc,
	}
	e.admin = testutil.CreateStaff(t, userSvc, user.RoleAdmin, "Asha Rao", "asha@vv.in", "9876543210")
	e.manager = testutil.CreateStaff(t, userSvc, user.RoleManager, "Meera Iyer", "meera@vv.in", "9988776655")
	e.trainer = testutil.CreateStaff(t, userSvc, user.RoleTrainer, "Ravi Kumar", "ravi@vv.in", "9123456780")
	emailsvc.ResetSent()

	// set up server
	e.app = NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Logger:         nopLogger{},
			DisableReqLogs: true,
			StudentSvc:     studentSvc,
			CatalogSvc:     catalogSvc,
			AttendanceSvc:  attendanceSvc,
			EvaluationSvc:  evalSvc,
			UserSvc:        userSvc,
			AccessCardSvc:  accessCardSvc,
		},
	)
	return e
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (tt httpTest) run(t *testing.T, app Server) {
	t.Run(tt.name, func(t *testing.T) {
		req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, id user.Identity) string {
	token, err := GenerateToken(GetUserClaims(id))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshalBody() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
