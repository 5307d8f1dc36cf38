package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique violation on the given constraint (any if empty).
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

func isNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func newID() string {
	return uuid.New().String()
}

// where accumulates AND conditions written with `?` bind vars; queries are rebound before execution.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) addIf(ok bool, cond string, args ...interface{}) {
	if ok {
		w.add(cond, args...)
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
