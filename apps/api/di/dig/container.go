package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

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
	aisvc "github.com/alloyapp/alloy/services/ai"
	emailsvc "github.com/alloyapp/alloy/services/email"
	logsvc "github.com/alloyapp/alloy/services/logger"
	"github.com/alloyapp/alloy/storage/database"
	inmemdb "github.com/alloyapp/alloy/storage/database/inmem"
	sqlxrepos "github.com/alloyapp/alloy/storage/database/sqlx"
	"github.com/alloyapp/alloy/storage/files"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBParam is empty when the repositories live in memory.
	DBParam struct {
		dig.In
		DB *sqlx.DB `optional:"true"`
	}

	repositories struct {
		dig.Out

		Users         user.Repository
		Subjects      subject.Repository
		SubjectFinder subject.Finder
		Timetable     timetable.Repository
		Attendance    attendance.Repository
		Tasks         task.Repository
		Notes         note.Repository
		NoteFinder    assistant.NoteFinder
		Documents     document.Repository
		Conversations assistant.Repository
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newSQLRepositories(db *sqlx.DB) repositories {
	subjects := sqlxrepos.NewSubjectRepository(db)
	notes := sqlxrepos.NewNoteRepository(db)
	return repositories{
		Users:         sqlxrepos.NewUserRepository(db),
		Subjects:      subjects,
		SubjectFinder: subjects,
		Timetable:     sqlxrepos.NewTimetableRepository(db),
		Attendance:    sqlxrepos.NewAttendanceRepository(db),
		Tasks:         sqlxrepos.NewTaskRepository(db),
		Notes:         notes,
		NoteFinder:    notes,
		Documents:     sqlxrepos.NewDocumentRepository(db),
		Conversations: sqlxrepos.NewConversationRepository(db),
	}
}

func newInmemRepositories() (repositories, error) {
	db, err := inmemdb.Open()
	if err != nil {
		return repositories{}, err
	}
	subjects := inmemdb.NewSubjectRepository(db)
	notes := inmemdb.NewNoteRepository(db)
	return repositories{
		Users:         inmemdb.NewUserRepository(db),
		Subjects:      subjects,
		SubjectFinder: subjects,
		Timetable:     inmemdb.NewTimetableRepository(db),
		Attendance:    inmemdb.NewAttendanceRepository(db),
		Tasks:         inmemdb.NewTaskRepository(db),
		Notes:         notes,
		NoteFinder:    notes,
		Documents:     inmemdb.NewDocumentRepository(db),
		Conversations: inmemdb.NewConversationRepository(db),
	}, nil
}

func newFileStore(conf *core.Config) (*files.DiskStore, error) {
	return files.NewDiskStore(conf.UploadDir)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(logger, conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func newRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// New returns a new dependency injection dig.Container.
// With inmem set, no database is opened and everything is lost on exit.
func New(inmem bool) *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	if inmem {
		must(c.Provide(newInmemRepositories))
	} else {
		must(c.Provide(newDB))
		must(c.Provide(newSQLRepositories))
	}
	must(c.Provide(newFileStore, dig.As(new(document.FileStore), new(user.FileRemover), new(subject.FileRemover))))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(newRegisterer))
	must(c.Provide(aisvc.NewModel))

	must(c.Provide(user.NewService))
	must(c.Provide(subject.NewService))
	must(c.Provide(timetable.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(task.NewService))
	must(c.Provide(note.NewService))
	must(c.Provide(document.NewService))
	must(c.Provide(assistant.NewService))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
