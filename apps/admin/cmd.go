package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/apps/container"
	"github.com/trezcool/rollcall/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	out        io.Writer
	isTerminal bool // print tables instead of JSON

	openDB func() (*sql.DB, error)
	newApp func() (*container.Container, error)

	db  *sql.DB
	app *container.Container
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  createdb                                              - create the app user & database if they do not exist")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                - run a migration command (up, down, status, version...)")
	fmt.Fprintln(cli.out, "  finalize -class C -section S [-date D] [-year Y]      - finalize a class day")
	fmt.Fprintln(cli.out, "  shortage [-class C] [-section S] [-year Y] [-threshold T] [-notify] - list (and notify) low attendance")
	fmt.Fprintln(cli.out, "  token -user ID [-role R] [-name N] [-class C] [-section S] - issue an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "createdb":
		return cli.createDB()
	case "migrate":
		return cli.migrate(args[2:])
	case "finalize":
		return cli.finalize(args[2:])
	case "shortage":
		return cli.shortage(args[2:])
	case "token":
		return cli.token(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) getDB() (*sql.DB, error) {
	if cli.db == nil {
		db, err := cli.openDB()
		if err != nil {
			return nil, err
		}
		cli.db = db
	}
	return cli.db, nil
}

func (cli *commandLine) getApp() (*container.Container, error) {
	if cli.app == nil {
		app, err := cli.newApp()
		if err != nil {
			return nil, err
		}
		cli.app = app
	}
	return cli.app, nil
}

// close waits for pending notifications and releases the connections.
func (cli *commandLine) close() {
	if cli.app != nil {
		_ = cli.app.Close()
		cli.app = nil
	}
	if cli.db != nil {
		_ = cli.db.Close()
		cli.db = nil
	}
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(v))
}

// describeError flattens validation errors into "field: message" pairs.
func describeError(err error) string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err.Error()
	}
	fldErrs := core.TranslateValidationErrors(vErrs)
	msgs := make([]string, 0, len(fldErrs))
	for fld, msg := range fldErrs {
		msgs = append(msgs, fld+": "+msg)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
