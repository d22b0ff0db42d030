package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/assistant"
	"github.com/alloyapp/alloy/core/attendance"
	"github.com/alloyapp/alloy/core/document"
	"github.com/alloyapp/alloy/core/note"
	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/core/task"
	"github.com/alloyapp/alloy/core/timetable"
	"github.com/alloyapp/alloy/core/user"
)

type (
	ServerDeps struct {
		dig.In

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Registry   prometheus.Registerer `optional:"true"`

		UserSvc       *user.Service
		SubjectSvc    *subject.Service
		TimetableSvc  *timetable.Service
		AttendanceSvc *attendance.Service
		TaskSvc       *task.Service
		NoteSvc       *note.Service
		DocumentSvc   *document.Service
		AssistantSvc  *assistant.Service
	}

	Server struct {
		app      *echo.Echo
		deps     ServerDeps
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) (*Server, error) {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	conf := deps.Conf
	s := &Server{
		app:      echo.New(),
		deps:     deps,
		auth:     newAuthenticator(conf),
		errors:   make(chan error, 1),
		shutdown: shutdown,
	}
	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Registry != nil {
		metrics, err := newHTTPMetrics(s.deps.Registry)
		if err != nil {
			return err
		}
		s.app.Use(metrics.middleware)
	}
	s.app.Use(middleware.CORS())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	authed := s.auth.middleware()
	validate := s.deps.Validate

	registerUserAPI(api, authed, &userApi{svc: s.deps.UserSvc, auth: s.auth, validate: validate, logger: s.deps.Logger})
	registerSubjectAPI(api, authed, &subjectApi{svc: s.deps.SubjectSvc, validate: validate})
	registerTimetableAPI(api, authed, &timetableApi{svc: s.deps.TimetableSvc, validate: validate})
	registerAttendanceAPI(api, authed, &attendanceApi{svc: s.deps.AttendanceSvc, validate: validate})
	registerTaskAPI(api, authed, &taskApi{svc: s.deps.TaskSvc, validate: validate})
	registerNoteAPI(api, authed, &noteApi{svc: s.deps.NoteSvc, validate: validate})
	registerDocumentAPI(api, authed, &documentApi{svc: s.deps.DocumentSvc, validate: validate, maxUploadSize: conf.Server.MaxUploadSize})
	registerAssistantAPI(api, authed, &assistantApi{svc: s.deps.AssistantSvc, validate: validate})
	return nil
}

// Start blocks until the server stops. Failures are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks for a graceful shutdown, as if SIGTERM was received.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Alloy API!")
}
