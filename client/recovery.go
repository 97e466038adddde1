package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"repairdesk/models"
	"repairdesk/utils"
)

// RecoveryStep is one of the three OTP-gated recovery forms
type RecoveryStep string

const (
	StepForgotUsername RecoveryStep = "forgot-username"
	StepValidateUser   RecoveryStep = "validate-user"
	StepResetPassword  RecoveryStep = "reset-password"
)

func (s RecoveryStep) purpose() models.OTPPurpose {
	switch s {
	case StepValidateUser:
		return models.OTPPurposeValidateUser
	case StepResetPassword:
		return models.OTPPurposeResetPassword
	}
	return models.OTPPurposeForgotUsername
}

// RecoveryState is where a step stands
type RecoveryState string

const (
	AwaitingOTPRequest RecoveryState = "AWAITING_OTP_REQUEST"
	OTPSent            RecoveryState = "OTP_SENT"
	OTPVerified        RecoveryState = "OTP_VERIFIED"
)

// DefaultOTPCooldown is the wait between two code requests
const DefaultOTPCooldown = 60 * time.Second

var (
	ErrCooldownActive  = errors.New("a code was sent recently, wait before requesting another")
	ErrOTPNotRequested = errors.New("request a code before submitting")
	ErrStepMismatch    = errors.New("submit does not match the current recovery step")
)

// RecoveryAPI is the part of Client the flow calls
type RecoveryAPI interface {
	SendOTP(ctx context.Context, req models.SendOTPRequest) (*models.SendOTPResponse, error)
	ForgotUsername(ctx context.Context, req models.ForgotUsernameRequest) (string, error)
	ValidateUser(ctx context.Context, req models.ValidateUserRequest) error
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
}

// RecoveryFlow holds the OTP state of one recovery form.
// A code is only ever submitted against the identifier it was requested for:
// changing the identifier or the step drops the typed code, the cooldown and the state.
// Not safe for concurrent use.
type RecoveryFlow struct {
	api      RecoveryAPI
	now      func() time.Time
	cooldown time.Duration

	step       RecoveryStep
	identifier string
	otp        string
	state      RecoveryState
	sentAt     time.Time
	debugOTP   string
}

// NewRecoveryFlow starts a flow at step. A nil now uses time.Now.
func NewRecoveryFlow(api RecoveryAPI, step RecoveryStep, now func() time.Time) *RecoveryFlow {
	if now == nil {
		now = time.Now
	}
	return &RecoveryFlow{
		api:      api,
		now:      now,
		cooldown: DefaultOTPCooldown,
		step:     step,
		state:    AwaitingOTPRequest,
	}
}

func (f *RecoveryFlow) reset() {
	f.otp = ""
	f.debugOTP = ""
	f.sentAt = time.Time{}
	f.state = AwaitingOTPRequest
}

// Step returns the current step
func (f *RecoveryFlow) Step() RecoveryStep { return f.step }

// State returns the current state
func (f *RecoveryFlow) State() RecoveryState { return f.state }

// Identifier returns the bound phone number or email
func (f *RecoveryFlow) Identifier() string { return f.identifier }

// OTP returns the typed code
func (f *RecoveryFlow) OTP() string { return f.otp }

// DebugOTP returns the code echoed by a server in dev mode, if any
func (f *RecoveryFlow) DebugOTP() string { return f.debugOTP }

// SetStep moves to another step, resetting the OTP state when it changes
func (f *RecoveryFlow) SetStep(step RecoveryStep) {
	if step == f.step {
		return
	}
	f.step = step
	f.reset()
}

// SetIdentifier binds a phone number or email, resetting the OTP state when it changes
func (f *RecoveryFlow) SetIdentifier(identifier string) {
	identifier = strings.TrimSpace(identifier)
	if identifier == f.identifier {
		return
	}
	f.identifier = identifier
	f.reset()
}

// SetOTP records the code typed by the user
func (f *RecoveryFlow) SetOTP(code string) {
	f.otp = strings.TrimSpace(code)
}

// CooldownRemaining is the time left before another code may be requested
func (f *RecoveryFlow) CooldownRemaining() time.Duration {
	if f.sentAt.IsZero() {
		return 0
	}
	left := f.cooldown - f.now().Sub(f.sentAt)
	if left < 0 {
		return 0
	}
	return left
}

func (f *RecoveryFlow) channel() models.OTPChannel {
	if strings.Contains(f.identifier, "@") {
		return models.OTPChannelEmail
	}
	return models.OTPChannelPhone
}

func (f *RecoveryFlow) identifierField() string {
	if f.channel() == models.OTPChannelEmail {
		return "email"
	}
	return "phoneNumber"
}

func (f *RecoveryFlow) validIdentifier() (string, error) {
	if f.channel() == models.OTPChannelEmail {
		if email, ok := utils.NormalizeEmail(f.identifier); ok {
			return email, nil
		}
		return "", &FieldError{Field: "email", Message: "Enter a valid email address"}
	}
	if phone, ok := utils.NormalizePhone(f.identifier); ok {
		return phone, nil
	}
	return "", &FieldError{Field: "phoneNumber", Message: "Enter a valid 10-digit phone number"}
}

// RequestOTP asks the server for a code. Within the cooldown it fails with
// ErrCooldownActive and makes no call.
func (f *RecoveryFlow) RequestOTP(ctx context.Context) (*models.SendOTPResponse, error) {
	identifier, err := f.validIdentifier()
	if err != nil {
		return nil, err
	}
	if f.CooldownRemaining() > 0 {
		return nil, ErrCooldownActive
	}

	resp, err := f.api.SendOTP(ctx, models.SendOTPRequest{
		Identifier: identifier,
		Channel:    f.channel(),
		Purpose:    f.step.purpose(),
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests && apiErr.RetryAfter > 0 {
			// align with the server's window so the countdown shows the real wait
			f.sentAt = f.now().Add(time.Duration(apiErr.RetryAfter)*time.Second - f.cooldown)
		}
		return nil, err
	}

	f.otp = ""
	f.debugOTP = resp.DebugOTP
	f.sentAt = f.now()
	f.state = OTPSent
	return resp, nil
}

func (f *RecoveryFlow) ready(step RecoveryStep) error {
	if f.step != step {
		return ErrStepMismatch
	}
	if f.state == AwaitingOTPRequest {
		return ErrOTPNotRequested
	}
	if f.otp == "" {
		return &FieldError{Field: "otp", Message: "Enter the code you received"}
	}
	return nil
}

// submitError turns a server rejection into an inline error
func (f *RecoveryFlow) submitError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusNotFound:
		return &FieldError{Field: f.identifierField(), Message: apiErr.Message}
	case http.StatusBadRequest:
		switch apiErr.ErrorCode {
		case models.ErrCodeIdentityMismatch:
			return &FieldError{Field: f.identifierField(), Message: apiErr.Message}
		case models.ErrCodeValidation:
			return err
		}
		return &FieldError{Field: "otp", Message: apiErr.Message}
	}
	return err
}

func (f *RecoveryFlow) phoneAndEmail() (phone, email string) {
	identifier, _ := f.validIdentifier()
	if f.channel() == models.OTPChannelEmail {
		return "", identifier
	}
	return identifier, ""
}

// SubmitForgotUsername relays the code and returns the recovered username
func (f *RecoveryFlow) SubmitForgotUsername(ctx context.Context) (string, error) {
	if err := f.ready(StepForgotUsername); err != nil {
		return "", err
	}
	phone, email := f.phoneAndEmail()
	username, err := f.api.ForgotUsername(ctx, models.ForgotUsernameRequest{PhoneNumber: phone, Email: email, OTP: f.otp})
	if err != nil {
		return "", f.submitError(err)
	}
	f.state = OTPVerified
	return username, nil
}

// SubmitValidateUser relays the code together with the username to check
func (f *RecoveryFlow) SubmitValidateUser(ctx context.Context, username string) error {
	if err := f.ready(StepValidateUser); err != nil {
		return err
	}
	phone, email := f.phoneAndEmail()
	err := f.api.ValidateUser(ctx, models.ValidateUserRequest{Username: username, PhoneNumber: phone, Email: email, OTP: f.otp})
	if err != nil {
		return f.submitError(err)
	}
	f.state = OTPVerified
	return nil
}

// SubmitResetPassword relays the code and sets a new password
func (f *RecoveryFlow) SubmitResetPassword(ctx context.Context, username, newPassword string) error {
	if err := f.ready(StepResetPassword); err != nil {
		return err
	}
	phone, email := f.phoneAndEmail()
	err := f.api.ForgotPassword(ctx, models.ForgotPasswordRequest{
		Username:    username,
		PhoneNumber: phone,
		Email:       email,
		OTP:         f.otp,
		NewPassword: newPassword,
	})
	if err != nil {
		return f.submitError(err)
	}
	f.state = OTPVerified
	return nil
}
