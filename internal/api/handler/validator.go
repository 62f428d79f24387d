package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormValidator runs `validate` struct tags for c.Validate. Failures name
// fields by their `form` tag, so messages line up with the HTML inputs.
type FormValidator struct {
	validate *validator.Validate
}

func NewValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(formFieldName)
	return &FormValidator{validate: v}
}

func formFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

func (fv *FormValidator) Validate(i any) error {
	return fv.validate.Struct(i)
}

// FieldErrors maps each failing form field to its first message. It returns
// nil for anything that is not a validation failure.
func FieldErrors(err error) map[string]string {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return nil
	}
	msgs := make(map[string]string, len(failures))
	for _, f := range failures {
		if _, ok := msgs[f.Field()]; ok {
			continue
		}
		msgs[f.Field()] = describe(f)
	}
	return msgs
}

func describe(f validator.FieldError) string {
	name := f.Field()
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	switch f.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min", "max":
		bound := "least"
		if f.Tag() == "max" {
			bound = "most"
		}
		return fmt.Sprintf("%s must be at %s %s characters", name, bound, f.Param())
	}
	return name + " is invalid"
}
