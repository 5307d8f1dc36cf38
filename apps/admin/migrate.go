package main

import (
	"fmt"

	"github.com/trezcool/rollcall/storage/database"
)

var (
	migrateFunc  = database.Migrate          // mockable
	createDBFunc = database.CreateIfNotExist // mockable
)

func (cli *commandLine) migrate(args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	db, err := cli.getDB()
	if err != nil {
		return err
	}
	return migrateFunc(db, args[0], args[1:]...)
}

func (cli *commandLine) createDB() error {
	if err := createDBFunc(cli.conf); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "database %q is ready\n", cli.conf.Database.Name)
	return nil
}
