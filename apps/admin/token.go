package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/core"
)

// token issues an API token. Teacher and student subjects must exist in the directory;
// the name and class binding default to the directory values.
func (cli *commandLine) token(args []string) error {
	cmd := flag.NewFlagSet("token", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	userID := cmd.String("user", "", "The user id: the teacher id, or the student id or roll code.")
	role := cmd.String("role", core.RoleTeacher, "admin, teacher or student.")
	name := cmd.String("name", "", "The user's display name.")
	className := cmd.String("class", "", "The class of a class teacher.")
	section := cmd.String("section", "", "The section of a class teacher.")
	if err := cmd.Parse(args); err != nil {
		return errHelp
	}
	if *userID == "" {
		cmd.Usage()
		return errHelp
	}
	if err := core.Validate.Var(*role, "role"); err != nil {
		return errors.Errorf("invalid role %q", *role)
	}
	if (*className == "") != (*section == "") {
		return errors.New("class and section go together")
	}
	if *className != "" && *role != core.RoleTeacher {
		return errors.New("only teachers have a class")
	}

	sess := core.Session{
		UserID:  core.CleanString(*userID),
		Name:    *name,
		Role:    *role,
		Class:   core.CleanString(*className),
		Section: core.CleanString(*section),
	}
	var err error
	switch sess.Role {
	case core.RoleTeacher:
		sess, err = cli.teacherSession(sess)
	case core.RoleStudent:
		sess, err = cli.studentSession(sess)
	}
	if err != nil {
		return err
	}

	tkn, err := echoapi.GenerateToken(echoapi.NewClaims(sess, cli.conf), cli.conf.SecretKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, tkn)
	return nil
}

func (cli *commandLine) teacherSession(sess core.Session) (core.Session, error) {
	app, err := cli.getApp()
	if err != nil {
		return sess, err
	}
	tchr, err := app.TeacherSvc.Lookup(context.Background(), sess.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return sess, errors.Errorf("unknown teacher %q", sess.UserID)
		}
		return sess, err
	}

	if sess.Name == "" {
		sess.Name = tchr.Name
	}
	if tchr.Bound() {
		if sess.Class == "" {
			sess.Class, sess.Section = tchr.Class, tchr.Section
		} else if sess.Class != tchr.Class || sess.Section != tchr.Section {
			return sess, errors.Errorf("teacher %q is bound to class %s%s", tchr.ID, tchr.Class, tchr.Section)
		}
	}
	return sess, nil
}

func (cli *commandLine) studentSession(sess core.Session) (core.Session, error) {
	app, err := cli.getApp()
	if err != nil {
		return sess, err
	}
	std, err := app.Students.GetStudent(context.Background(), sess.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return sess, errors.Errorf("unknown student %q", sess.UserID)
		}
		return sess, err
	}

	sess.UserID = std.ID
	if sess.Name == "" {
		sess.Name = std.Name
	}
	return sess, nil
}
