// Package validation checks submitted forms and turns failures into per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"chirp/internal/models"

	"github.com/go-playground/validator/v10"
)

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Username        string `form:"username" validate:"required,min=4,max=20"`
	Email           string `form:"email" validate:"required,email,max=120"`
	Password        string `form:"password" validate:"required,min=6,maxbytes=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// TweetForm carries the text part of a create or edit submission.
type TweetForm struct {
	Content string `form:"content" validate:"required,max=280"`
}

// CommentForm is the comment box on the tweet page.
type CommentForm struct {
	Content string `form:"content" validate:"required,max=280"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their form names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// bcrypt only hashes the first 72 bytes and rejects longer input
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

// Struct validates a form and returns a ValidationError with one message per failing field.
func Struct(form interface{}) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewInternalError(err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = message(fe)
		}
	}
	return models.NewFieldValidationError(fields)
}

func message(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	label = strings.ToUpper(label[:1]) + label[1:]

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s is too long (at most %s bytes)", label, fe.Param())
	case "email":
		return "Enter a valid email address"
	case "eqfield":
		return "Passwords must match"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// Trim normalizes whitespace around every string field of a form in place.
func Trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
