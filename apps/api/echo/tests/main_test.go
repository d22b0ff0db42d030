package tests

import (
	"fmt"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	echoapi "github.com/alloyapp/alloy/apps/api/echo"
	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/assistant"
	"github.com/alloyapp/alloy/core/attendance"
	"github.com/alloyapp/alloy/core/document"
	"github.com/alloyapp/alloy/core/note"
	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/core/task"
	"github.com/alloyapp/alloy/core/timetable"
	"github.com/alloyapp/alloy/core/user"
	emailsvc "github.com/alloyapp/alloy/services/email"
	"github.com/alloyapp/alloy/storage/database/inmem"
	"github.com/alloyapp/alloy/storage/files"
	"github.com/alloyapp/alloy/tests"
)

var (
	conf  *core.Config
	app   *echoapi.Server
	store *files.DiskStore
	model = new(fakeModel)

	usrRepo     user.Repository
	subjectRepo subject.Repository
	noteRepo    note.Repository
	convRepo    assistant.Repository

	subjectSvc    *subject.Service
	timetableSvc  *timetable.Service
	attendanceSvc *attendance.Service
	taskSvc       *task.Service
	noteSvc       *note.Service
	documentSvc   *document.Service
)

func TestMain(m *testing.M) {
	uploadDir, err := os.MkdirTemp("", "alloy-uploads-")
	if err != nil {
		fmt.Printf("os.MkdirTemp(): %v", err)
		os.Exit(1)
	}

	code := func() int {
		defer os.RemoveAll(uploadDir)

		conf = testutil.NewConfig()
		logger := testutil.NewLogger(conf)
		validate, translator := testutil.NewValidator()

		// set up DB & repos
		db, err := inmemdb.Open()
		if err != nil {
			fmt.Printf("inmemdb.Open(): %v", err)
			return 1
		}
		usrRepo = inmemdb.NewUserRepository(db)
		subjectRepo = inmemdb.NewSubjectRepository(db)
		noteRepo = inmemdb.NewNoteRepository(db)
		convRepo = inmemdb.NewConversationRepository(db)

		if store, err = files.NewDiskStore(uploadDir); err != nil {
			fmt.Printf("files.NewDiskStore(): %v", err)
			return 1
		}

		// set up services
		mailSvc := emailsvc.NewConsoleServiceMock(logger, conf)
		subjectSvc = subject.NewService(subjectRepo, store, logger)
		timetableSvc = timetable.NewService(inmemdb.NewTimetableRepository(db), subjectRepo)
		attendanceSvc = attendance.NewService(inmemdb.NewAttendanceRepository(db), subjectRepo)
		taskSvc = task.NewService(inmemdb.NewTaskRepository(db), subjectRepo)
		noteSvc = note.NewService(noteRepo, subjectRepo)
		documentSvc = document.NewService(inmemdb.NewDocumentRepository(db), store, subjectRepo, logger)

		// set up server
		app, err = echoapi.NewServer(echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			Registry:      prometheus.NewRegistry(),
			UserSvc:       user.NewService(usrRepo, mailSvc, store, logger, conf),
			SubjectSvc:    subjectSvc,
			TimetableSvc:  timetableSvc,
			AttendanceSvc: attendanceSvc,
			TaskSvc:       taskSvc,
			NoteSvc:       noteSvc,
			DocumentSvc:   documentSvc,
			AssistantSvc:  assistant.NewService(convRepo, model, noteRepo, subjectRepo, logger),
		})
		if err != nil {
			fmt.Printf("echoapi.NewServer(): %v", err)
			return 1
		}

		// run tests
		return m.Run()
	}()

	os.Exit(code)
}
