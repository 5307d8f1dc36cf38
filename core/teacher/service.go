package teacher

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("teacher not found")
	ErrIDExists          = errors.New("a teacher with this id already exists")
	ErrIncompleteBinding = errors.New("class and section go together")
)

type (
	Repository interface {
		CreateTeacher(ctx context.Context, tchr Teacher) (Teacher, error)
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		QueryTeachers(ctx context.Context, filter QueryFilter) ([]Teacher, error)
		UpdateTeacher(ctx context.Context, tchr Teacher) (Teacher, error)
	}

	// Service is the teacher directory.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, sess core.Session, nt NewTeacher) (Teacher, error) {
	if !sess.IsAdmin() {
		return Teacher{}, core.ErrPermissionDenied
	}
	nt.Clean()
	if err := nt.Validate(); err != nil {
		return Teacher{}, err
	}

	now := core.NowFunc().UTC()
	tchr, err := svc.repo.CreateTeacher(ctx, Teacher{
		ID:        nt.ID,
		Name:      nt.Name,
		Email:     nt.Email,
		Contact:   nt.Contact,
		Class:     nt.Class,
		Section:   nt.Section,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Cause(err) == ErrIDExists {
		return Teacher{}, core.NewValidationError(err, core.FieldError{Field: "id", Error: ErrIDExists.Error()})
	}
	return tchr, err
}

// Get returns a teacher to staff; a teacher may always look themself up.
func (svc *Service) Get(ctx context.Context, sess core.Session, id string) (Teacher, error) {
	id = core.CleanString(id)
	if !sess.IsStaff() && sess.UserID != id {
		return Teacher{}, core.ErrPermissionDenied
	}
	return svc.repo.GetTeacher(ctx, id)
}

// Lookup returns an active teacher; inactive ones are reported as not found.
func (svc *Service) Lookup(ctx context.Context, id string) (Teacher, error) {
	tchr, err := svc.repo.GetTeacher(ctx, core.CleanString(id))
	if err != nil {
		return Teacher{}, err
	}
	if !tchr.IsActive {
		return Teacher{}, ErrNotFound
	}
	return tchr, nil
}

func (svc *Service) Query(ctx context.Context, sess core.Session, filter QueryFilter) ([]Teacher, error) {
	if err := sess.RequireStaff(); err != nil {
		return nil, err
	}
	filter.Class = core.CleanString(filter.Class)
	filter.Section = core.CleanString(filter.Section)
	return svc.repo.QueryTeachers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, sess core.Session, id string, ut UpdateTeacher) (Teacher, error) {
	if !sess.IsAdmin() {
		return Teacher{}, core.ErrPermissionDenied
	}
	orig, err := svc.repo.GetTeacher(ctx, core.CleanString(id))
	if err != nil {
		return Teacher{}, err
	}
	tchr, err := ut.Apply(orig)
	if err != nil {
		return Teacher{}, err
	}
	tchr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateTeacher(ctx, tchr)
}
