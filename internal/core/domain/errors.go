package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("username already exists")
	ErrUserNotFound       = errors.New("username does not exist")
	ErrInvalidCredentials = errors.New("password is invalid")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError reports malformed input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
