package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

// shortage lists the students below the attendance threshold; -notify also alerts their parents.
func (cli *commandLine) shortage(args []string) error {
	cmd := flag.NewFlagSet("shortage", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	className := cmd.String("class", "", "Only this class.")
	section := cmd.String("section", "", "Only this section.")
	year := cmd.String("year", "", "The academic year, eg: 2024-2025. Defaults to the configured one.")
	threshold := cmd.String("threshold", "", "The threshold percentage. Defaults to the configured one.")
	notify := cmd.Bool("notify", false, "Send low attendance alerts to the parents.")
	if err := cmd.Parse(args); err != nil {
		return errHelp
	}

	sq := attendance.ShortageQuery{
		ClassName:    *className,
		Section:      *section,
		AcademicYear: *year,
	}
	if *threshold != "" {
		t, err := strconv.ParseFloat(*threshold, 64)
		if err != nil {
			return fmt.Errorf("threshold must be a number (got '%s')", *threshold)
		}
		sq.Threshold = &t
	}

	app, err := cli.getApp()
	if err != nil {
		return err
	}
	ctx := context.Background()
	var report attendance.ShortageReport
	if *notify {
		report, err = app.Shortage.NotifyAll(ctx, core.SystemSession(), sq)
	} else {
		report, err = app.Shortage.List(ctx, core.SystemSession(), sq)
	}
	if err != nil {
		return err
	}

	if !cli.isTerminal {
		return cli.printJSON(report)
	}
	fmt.Fprintf(cli.out, "%s: %s to %s, threshold %s%%, %d student(s)\n\n",
		report.AcademicYear, report.StartDate, report.EndDate, core.FormatPercent(report.Threshold), report.Count)
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROLL CODE\tNAME\tCLASS\tPRESENT\tTOTAL\tPERCENT\tPARENT CONTACT")
	for _, e := range report.Students {
		fmt.Fprintf(w, "%s\t%s\t%s%s\t%d\t%d\t%s%%\t%s\n",
			e.Student.RollCode, e.Student.Name, e.Student.Class, e.Student.Section,
			e.Attendance.PresentDays, e.Attendance.TotalDays, core.FormatPercent(e.Attendance.Percentage),
			e.Student.ParentContact)
	}
	return w.Flush()
}
