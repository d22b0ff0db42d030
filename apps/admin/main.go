package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/user"
	emailsvc "github.com/alloyapp/alloy/services/email"
	logsvc "github.com/alloyapp/alloy/services/logger"
	"github.com/alloyapp/alloy/storage/database"
	sqlxrepos "github.com/alloyapp/alloy/storage/database/sqlx"
	"github.com/alloyapp/alloy/storage/files"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	store, err := files.NewDiskStore(conf.UploadDir)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening upload directory: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(logger, conf), store, logger, conf),
		validate: validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			log.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
