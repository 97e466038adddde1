package client

import (
	"errors"
	"fmt"
	"net/http"

	"repairdesk/models"
)

// APIError is a non-2xx answer from the server
type APIError struct {
	Status     int
	ErrorCode  string
	Message    string
	Fields     []models.FieldError
	RetryAfter int // seconds, on 429
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// FieldError is a failure to show next to one form input
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Kind is how a caller should present a failure
type Kind int

const (
	// KindTransient covers network failures and unexpected statuses: a generic toast, no retry
	KindTransient Kind = iota
	// KindValidation carries per-field messages
	KindValidation
	// KindAuth is a 401 on login
	KindAuth
	// KindUnauthorizedView means render the Unauthorized view
	KindUnauthorizedView
	// KindNotFound is a 404
	KindNotFound
	// KindConflict means the record changed underneath the caller
	KindConflict
	// KindCooldown is a 429 on OTP requests
	KindCooldown
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindUnauthorizedView:
		return "unauthorized-view"
	case KindNotFound:
		return "not-found"
	case KindConflict:
		return "conflict"
	case KindCooldown:
		return "cooldown"
	}
	return "transient"
}

// Classify maps any error returned by Client to a Kind
func Classify(err error) Kind {
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return KindValidation
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return KindTransient
	}
	switch apiErr.Status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusForbidden:
		return KindUnauthorizedView
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindCooldown
	}
	return KindTransient
}

// IsUnauthorizedView reports whether err should send the user to the Unauthorized view.
// Field-level denials (FIELD_FORBIDDEN) on an update are included.
func IsUnauthorizedView(err error) bool {
	return Classify(err) == KindUnauthorizedView
}

// loginFieldErrors is the fixed table of 401 codes that belong to a login input
var loginFieldErrors = map[string]FieldError{
	models.ErrCodeUserNotFound:    {Field: "username", Message: "No account exists with this username"},
	models.ErrCodeInvalidPassword: {Field: "password", Message: "Incorrect password"},
}

// LoginFieldError maps a 401 from Login to the input it belongs to.
// ok is false when the failure has no field and should be shown as a generic message.
func LoginFieldError(err error) (FieldError, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return FieldError{}, false
	}
	fe, ok := loginFieldErrors[apiErr.ErrorCode]
	return fe, ok
}
