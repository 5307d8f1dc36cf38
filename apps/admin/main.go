package main

import (
	"database/sql"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/rollcall/apps/container"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := container.NewLogger("ADMIN", conf)

	cli := &commandLine{
		conf:       conf,
		out:        os.Stdout,
		isTerminal: term.IsTerminal(int(os.Stdout.Fd())),
		openDB: func() (*sql.DB, error) {
			db, err := database.Open(conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
		newApp: func() (*container.Container, error) {
			return container.New(conf, logger)
		},
	}

	err := cli.run(os.Args)
	cli.close()
	if err != nil {
		if err != errHelp {
			logger.Error(describeError(err), err)
		}
		os.Exit(1)
	}
}
