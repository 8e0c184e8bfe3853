package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// MaxPasswordBytes is bcrypt's input limit. Longer passwords would be
// truncated on compare, so they are rejected outright.
const MaxPasswordBytes = 72

// credentials is the validated shape of a username/password pair.
// Field order matters: the first failing field is reported.
type credentials struct {
	Username string `validate:"minlen=3"`
	Password string `validate:"minlen=6,maxbytes=72"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("minlen", minLength); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

// minLength counts UTF-16 code units, so a character outside the BMP
// counts as two.
func minLength(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(utf16.Encode([]rune(fl.Field().String()))) >= n
}

func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

// validateCredentials rejects malformed input before any storage access.
func validateCredentials(username, password string) error {
	err := validate.Struct(credentials{Username: username, Password: password})
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &domain.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fieldError(fe),
		}
	}
	return err
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "minlen":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes long", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
