package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/rollcall/core"
)

// queryParams reads optional typed query parameters.
// Malformed values are reported as a core.ValidationError on the parameter name.
type queryParams struct {
	ctx  echo.Context
	errs []core.FieldError
}

func newQueryParams(ctx echo.Context) *queryParams {
	return &queryParams{ctx: ctx}
}

func (qp *queryParams) String(name string) string {
	return strings.TrimSpace(qp.ctx.QueryParam(name))
}

func (qp *queryParams) Bool(name string) *bool {
	val := qp.String(name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		qp.errs = append(qp.errs, core.FieldError{Field: name, Error: "must be true or false"})
		return nil
	}
	return &b
}

func (qp *queryParams) Int(name string) int {
	val := qp.String(name)
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		qp.errs = append(qp.errs, core.FieldError{Field: name, Error: "must be an integer"})
	}
	return i
}

func (qp *queryParams) Float(name string) *float64 {
	val := qp.String(name)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		qp.errs = append(qp.errs, core.FieldError{Field: name, Error: "must be a number"})
		return nil
	}
	return &f
}

func (qp *queryParams) Err() error {
	if len(qp.errs) == 0 {
		return nil
	}
	return core.NewValidationError(nil, qp.errs...)
}
