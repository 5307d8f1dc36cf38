package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	academicYearTag  = "acadyear"
	academicYearText = "academic year must look like 2024-2025"

	attendanceStatusTag  = "attstatus"
	attendanceStatusText = "status must be Present or Absent"

	dayTag  = "day"
	dayText = "date must be YYYY-MM-DD or RFC 3339"

	roleTag  = "role"
	roleText = "invalid role"

	requiredTag  = "required"
	requiredText = "this field is required"
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(notBlankTag, notBlankText)

	_ = Validate.RegisterValidation(academicYearTag, academicYearValidation)
	RegisterCustomTranslation(academicYearTag, academicYearText)

	_ = Validate.RegisterValidation(attendanceStatusTag, attendanceStatusValidation)
	RegisterCustomTranslation(attendanceStatusTag, attendanceStatusText)

	_ = Validate.RegisterValidation(dayTag, dayValidation)
	RegisterCustomTranslation(dayTag, dayText)

	_ = Validate.RegisterValidation(roleTag, roleValidation)
	RegisterCustomTranslation(roleTag, roleText)

	RegisterCustomTranslation(requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateValidationErrors converts validator errors into a {field: message} map.
func TranslateValidationErrors(errs validator.ValidationErrors) map[string]string {
	fldErrs := make(map[string]string, len(errs))
	for _, vErr := range errs {
		fldErrs[vErr.Field()] = vErr.Translate(Translator)
	}
	return fldErrs
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func academicYearValidation(fl validator.FieldLevel) bool {
	_, err := ParseAcademicYear(fl.Field().String())
	return err == nil
}

// attendanceStatusValidation only allows the two binary statuses; matching is case sensitive.
func attendanceStatusValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "Present" || s == "Absent"
}

func dayValidation(fl validator.FieldLevel) bool {
	_, err := ParseDay(fl.Field().String())
	return err == nil
}

func roleValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, r := range AllRoles {
		if s == r {
			return true
		}
	}
	return false
}
