package middleware

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// Validator checks request DTOs. Struct tags use validator/v10 syntax plus
// "language" (a name ParseTag accepts) and "filename" (a bare file name).
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseTag(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("filename", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && !strings.ContainsAny(s, "/\\\x00") && s != "." && s != ".."
	})
	return &Validator{v: v}
}

// Struct validates s. Failures wrap ErrMalformedSubmission with one message
// per offending field.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrMalformedSubmission, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrMalformedSubmission, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "language":
		return fmt.Sprintf("%s %q is not a supported language", fe.Field(), fe.Value())
	case "filename":
		return fe.Field() + " must be a plain file name"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// SanitizeFilename reduces a client supplied name to its base name without
// control characters. It returns "" when nothing usable is left.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(SanitizeString(name), "\\", "/")
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\t", "")
	base := path.Base(name)
	switch base {
	case ".", "/", "..":
		return ""
	}
	return base
}
