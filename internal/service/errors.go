package service

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateRequest   = errors.New("an active request with this mentor already exists")
	ErrRequestNotFound    = errors.New("mentorship request not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError carries the individual messages of a rejected input.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// Is lets errors.Is match ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// validator accumulates field messages
type validator struct {
	errs []string
}

func (v *validator) check(ok bool, msg string) {
	if !ok {
		v.errs = append(v.errs, msg)
	}
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errs}
}

// NewValidationError builds a ValidationError from messages
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}
