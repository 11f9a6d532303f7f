package auth

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-hms-client/authmodel"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
)

// Validator checks request DTOs before they are sent, reporting fields by their JSON names.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return &Validator{validate: validate}
}

// ValidateLoginRequest requires both the username (or email) and the password
func (v *Validator) ValidateLoginRequest(req authmodel.LoginRequest) error {
	req.UsernameOrEmail = strings.TrimSpace(req.UsernameOrEmail)
	return v.check(InvalidLoginErr, req)
}

// ValidateRegisterRequest checks email format, password length and the optional E.164 phone number
func (v *Validator) ValidateRegisterRequest(req authmodel.RegisterRequest) error {
	return v.check(InvalidRegisterErr, req)
}

func (v *Validator) check(kind error, req any) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !hmserrors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", kind, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %w: %s", kind, hmserrors.ErrInvalidRequest, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "e164":
		return fmt.Sprintf("%s must be an international phone number", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
