package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

// finalize locks a class day as the system user.
func (cli *commandLine) finalize(args []string) error {
	cmd := flag.NewFlagSet("finalize", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	className := cmd.String("class", "", "The class name, eg: 10.")
	section := cmd.String("section", "", "The class section, eg: A.")
	date := cmd.String("date", "", "The day to finalize (YYYY-MM-DD). Defaults to today.")
	year := cmd.String("year", "", "The academic year, eg: 2024-2025. Defaults to the configured one.")
	if err := cmd.Parse(args); err != nil {
		return errHelp
	}
	if *className == "" || *section == "" {
		cmd.Usage()
		return errHelp
	}
	if *date == "" {
		*date = core.FormatDay(core.Today())
	}

	app, err := cli.getApp()
	if err != nil {
		return err
	}
	fin, err := app.Finalizer.Finalize(context.Background(), core.SystemSession(), attendance.DayQuery{
		ClassName:    *className,
		Section:      *section,
		Date:         *date,
		AcademicYear: *year,
	})
	if err != nil {
		return err
	}

	if cli.isTerminal {
		fmt.Fprintf(cli.out, "finalized %s%s on %s (%s)\n", fin.Class, fin.Section, fin.Date, fin.AcademicYear)
		return nil
	}
	return cli.printJSON(fin)
}
