package main

import (
	"errors"

	"github.com/trezcool/empoderar/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

var errNoDB = errors.New("migrate needs a database connection")

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDB
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
