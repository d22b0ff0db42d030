// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/user"
	logsvc "github.com/alloyapp/alloy/services/logger"
	"github.com/alloyapp/alloy/storage/database"
)

// NewConfig returns a TEST configuration that does not depend on the environment.
func NewConfig() *core.Config {
	conf := &core.Config{
		AppName:                   "Alloy",
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		SecretKey:                 "not-so-secret",
		FrontendBaseURL:           "http://localhost:5173",
		PasswordResetTimeoutDelta: time.Hour,
	}
	conf.Server.Host = ":0"
	conf.Server.JWTExpirationDelta = 6 * time.Hour
	conf.Server.JWTRefreshExpirationDelta = 24 * time.Hour
	conf.Server.ShutdownTimeout = time.Second
	conf.Server.MaxUploadSize = 1 << 20
	conf.AI.Provider = "gemini"
	conf.AI.Timeout = time.Second
	return conf
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, uname, email, pwd string, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// PrepareDB opens the PostgreSQL test database, migrated and emptied.
// The test is skipped unless TEST_DATABASE_HOST is set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST is not set")
	}
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("database.CreateIfNotExist(): %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, "up"); err != nil {
		t.Fatalf("database.Migrate(): %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB empties every table.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE conversation_turns, conversations, documents, notes, tasks,
		attendance_records, timetable_entries, subjects, users CASCADE`)
	if err != nil {
		t.Fatalf("ResetDB(): %v", err)
	}
}
