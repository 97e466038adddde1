package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"repairdesk/models"
)

// Sentinel errors returned by the services. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidOTP        = errors.New("invalid otp")
	ErrOTPExpired        = errors.New("otp expired or not requested")
	ErrCooldown          = errors.New("otp requested too recently")
	ErrIdentityMismatch  = errors.New("username and contact do not match")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrDeliveryFailed    = errors.New("otp delivery failed")
)

// CooldownError carries how long the caller must wait before requesting another code
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("otp requested too recently, retry in %s", e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldown }

// RetryAfterSeconds rounds the remaining wait up to whole seconds, never below one
func (e *CooldownError) RetryAfterSeconds() int {
	secs := int((e.Remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// FieldForbiddenError lists the complaint fields the caller tried to change without permission
type FieldForbiddenError struct {
	Fields []string
}

func (e *FieldForbiddenError) Error() string {
	return "not allowed to change: " + strings.Join(e.Fields, ", ")
}

func (e *FieldForbiddenError) Is(target error) bool { return target == ErrForbidden }

// InvalidInputError carries per-field validation messages
type InvalidInputError struct {
	Fields []models.FieldError
}

func (e *InvalidInputError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidField(field, message string) error {
	return &InvalidInputError{Fields: []models.FieldError{{Field: field, Message: message}}}
}
