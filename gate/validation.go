package gate

import (
	"github.com/go-playground/validator/v10"

	"github.com/ecosnap/ecosnap-server/internal/apperr"
)

// validate is shared; validator instances cache struct metadata and are
// safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

type emailField struct {
	Email string `validate:"required,email,max=255"`
}

type passwordField struct {
	Password string `validate:"required,min=6,max=100"`
}

type codeField struct {
	Code string `validate:"required,len=6,numeric"`
}

// validateEmail enforces the RFC-shape check and the 255-character cap
// before anything reaches the provider.
func validateEmail(email string) error {
	if err := validate.Struct(emailField{Email: email}); err != nil {
		return apperr.New(apperr.KindValidation, "Please enter a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if err := validate.Struct(passwordField{Password: password}); err != nil {
		return apperr.New(apperr.KindValidation, "Password must be between 6 and 100 characters")
	}
	return nil
}

// validateCode rejects anything but exactly six digits, with the fixed
// message shown before any provider call is made.
func validateCode(code string) error {
	if err := validate.Struct(codeField{Code: code}); err != nil {
		return apperr.New(apperr.KindValidation, "Please enter a 6-digit code")
	}
	return nil
}

func validatePasswordCredentials(creds Credentials) error {
	if err := validateEmail(creds.Email); err != nil {
		return err
	}
	return validatePassword(creds.Password)
}
