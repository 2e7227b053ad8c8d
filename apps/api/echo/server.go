package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/accesscard"
	"github.com/vishvavidya/traininghub/core/attendance"
	"github.com/vishvavidya/traininghub/core/catalog"
	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/core/user"
)

type (
	Deps struct {
		Logger         core.Logger
		DisableReqLogs bool
		StudentSvc     *student.Service
		CatalogSvc     *catalog.Service
		AttendanceSvc  *attendance.Service
		EvaluationSvc  *evaluation.Service
		UserSvc        *user.Service
		AccessCardSvc  *accesscard.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		addr     string
		shutdown chan os.Signal
		deps     *Deps
		app      *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer builds the API. shutdown, when not nil, receives SIGTERM on unrecoverable errors.
func NewServer(addr string, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		addr:     addr,
		shutdown: shutdown,
		deps:     deps,
		app:      echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.HideBanner = true
	s.app.Debug = debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	if debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.WARN)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	s.app.GET("/", home)
	s.app.GET("/templates/student-registration-template.xlsx", downloadIntakeTemplate)

	g := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(g, jwt, s.deps.UserSvc)
	registerStudentAPI(g, jwt, s.deps.StudentSvc)
	registerCatalogAPI(g, jwt, s.deps.CatalogSvc)
	registerAttendanceAPI(g, jwt, s.deps.AttendanceSvc)
	registerEvaluationAPI(g, jwt, s.deps.EvaluationSvc)
	registerAccessCardAPI(g, jwt, s.deps.AccessCardSvc)
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func (s *server) Start() error {
	return s.app.Start(s.addr)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
