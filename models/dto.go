package models

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Error      string       `json:"error"`
	Message    string       `json:"message"`
	Code       int          `json:"code"`
	ErrorCode  string       `json:"error_code,omitempty"`  // machine-readable reason, e.g. USER_NOT_FOUND
	Fields     []FieldError `json:"fields,omitempty"`      // per-field validation or permission failures
	RetryAfter int          `json:"retry_after,omitempty"` // seconds, set on 429
}

// FieldError ties a message to one request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Machine-readable error codes returned in ErrorResponse.ErrorCode
const (
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeInvalidPassword  = "INVALID_PASSWORD"
	ErrCodeInvalidOTP       = "INVALID_OTP"
	ErrCodeOTPExpired       = "OTP_EXPIRED"
	ErrCodeOTPCooldown      = "OTP_COOLDOWN"
	ErrCodeIdentityMismatch = "IDENTITY_MISMATCH"
	ErrCodeFieldForbidden   = "FIELD_FORBIDDEN"
	ErrCodeInvalidStatus    = "INVALID_STATUS_TRANSITION"
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeConflict         = "CONFLICT"
)

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// RegisterUserRequest is the body of POST /register and POST /users/employee
type RegisterUserRequest struct {
	Username    string `json:"username" validate:"required,alphanum,min=4,max=32"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FullName    string `json:"fullName" validate:"required,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone10"`
	Email       string `json:"email" validate:"omitempty,email"`
	Designation string `json:"designation,omitempty" validate:"max=100"`
}

// OTPChannel selects the delivery route of a one-time code
type OTPChannel string

const (
	OTPChannelPhone OTPChannel = "phone"
	OTPChannelEmail OTPChannel = "email"
)

// OTPPurpose scopes a code to one recovery step
type OTPPurpose string

const (
	OTPPurposeForgotUsername OTPPurpose = "forgot-username"
	OTPPurposeValidateUser   OTPPurpose = "validate-user"
	OTPPurposeResetPassword  OTPPurpose = "reset-password"
)

// Valid reports whether p is a known purpose
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeForgotUsername, OTPPurposeValidateUser, OTPPurposeResetPassword:
		return true
	}
	return false
}

// SendOTPRequest is the body of POST /otp/send
type SendOTPRequest struct {
	Identifier string     `json:"identifier" validate:"required"`
	Channel    OTPChannel `json:"channel" validate:"omitempty,oneof=phone email"`
	Purpose    OTPPurpose `json:"purpose" validate:"required"`
}

// SendOTPResponse is returned once a code has been issued
type SendOTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"` // seconds
	Cooldown  int    `json:"cooldown"`   // seconds before another code may be requested
	DebugOTP  string `json:"debug_otp,omitempty"`
}

// ForgotUsernameRequest is the body of POST /forgot-username.
// The code is checked against whichever identifier it was sent to: phoneNumber, or email in email mode.
type ForgotUsernameRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required_without=Email,omitempty,phone10"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	OTP         string `json:"otp" validate:"required,numeric"`
}

// Identifier returns the email when set, else the phone number
func (r ForgotUsernameRequest) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.PhoneNumber
}

// ForgotUsernameResponse returns the recovered username
type ForgotUsernameResponse struct {
	Username string `json:"username"`
}

// ValidateUserRequest is the body of POST /validate-user
type ValidateUserRequest struct {
	Username    string `json:"username" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required_without=Email,omitempty,phone10"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	OTP         string `json:"otp" validate:"required,numeric"`
}

// Identifier returns the email when set, else the phone number
func (r ValidateUserRequest) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.PhoneNumber
}

// ForgotPasswordRequest is the body of POST /forgot-password
type ForgotPasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required_without=Email,omitempty,phone10"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	OTP         string `json:"otp" validate:"required,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// Identifier returns the email when set, else the phone number
func (r ForgotPasswordRequest) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.PhoneNumber
}

// RegisterComplaintRequest is the body of POST /complaint/register.
// BookedByID is only honoured for staff booking on behalf of a customer.
type RegisterComplaintRequest struct {
	BookedByID    string  `json:"bookedById"`
	CustomerName  string  `json:"customerName" validate:"required,max=255"`
	ContactNumber string  `json:"contactNumber" validate:"required,phone10"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Address       Address `json:"address" validate:"required"`
	ProductType   string  `json:"productType" validate:"required,max=100"`
	Brand         string  `json:"brand" validate:"required,max=100"`
	ProductModel  string  `json:"productModel" validate:"required,max=100"`
	Description   string  `json:"description" validate:"required,max=2000"`
}

// UpdateComplaintRequest is the body of PUT /complaint/update: the complete proposed record.
// Identity, ownership and timestamps are taken from storage, never from the body.
type UpdateComplaintRequest struct {
	ComplaintID        string             `json:"complaintId" validate:"required"`
	CustomerName       string             `json:"customerName" validate:"required,max=255"`
	ContactNumber      string             `json:"contactNumber" validate:"required,phone10"`
	Email              string             `json:"email" validate:"omitempty,email"`
	Address            Address            `json:"address" validate:"required"`
	ProductType        string             `json:"productType" validate:"required,max=100"`
	Brand              string             `json:"brand" validate:"required,max=100"`
	ProductModel       string             `json:"productModel" validate:"required,max=100"`
	Description        string             `json:"description" validate:"required,max=2000"`
	Status             ComplaintStatus    `json:"status" validate:"required,oneof=PENDING IN_PROGRESS RESOLVED"`
	TechnicianDetails  *TechnicianDetails `json:"technicianDetails"`
	TechnicianFeedback *string            `json:"technicianFeedback"`
	CustomerFeedback   *string            `json:"customerFeedback"`
}

// UserFeedbackRequest is the body of POST /complaint/user-feedback
type UserFeedbackRequest struct {
	ComplaintID      string `json:"complaintId" validate:"required"`
	CustomerFeedback string `json:"customerFeedback" validate:"required,max=2000"`
}

// ReopenComplaintRequest is the body of POST /complaint/reopen
type ReopenComplaintRequest struct {
	ComplaintID string `json:"complaintId" validate:"required"`
}
