package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
	"github.com/trezcool/empoderar/storage/database"
	"github.com/trezcool/empoderar/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	validate := validator.New()
	locales := core.NewLocales()
	core.InitValidators(validate, locales)
	user.InitValidators(validate, locales)

	// start CLI
	usrRepo := sqlxrepos.NewUserRepository(db)
	cli := commandLine{
		db:         db.DB,
		usrRepo:    usrRepo,
		usrSvc:     user.NewService(usrRepo, validate),
		courseRepo: sqlxrepos.NewCourseRepository(db),
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
