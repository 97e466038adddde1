package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"repairdesk/config"
	"repairdesk/models"
	"repairdesk/repository"
	"repairdesk/utils"
)

// AuthService handles login, account creation and OTP-gated recovery
type AuthService struct {
	users UserStore
	otp   *OTPService
	cfg   config.AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, otp *OTPService, cfg config.AuthConfig) *AuthService {
	return &AuthService{users: users, otp: otp, cfg: cfg}
}

// Login checks credentials and issues a session token.
// Unknown usernames and wrong passwords are reported separately so the form can point at the right field.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := utils.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidPassword
	}

	token, err := utils.GenerateJWT(user.UserID, user.Role, []byte(s.cfg.JWTSecret), s.cfg.TokenTTLHours)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &models.LoginResponse{Token: token, UserID: user.UserID, Role: user.Role}, nil
}

// RegisterCustomer creates a CUSTOMER account
func (s *AuthService) RegisterCustomer(ctx context.Context, req models.RegisterUserRequest) (*models.User, error) {
	return s.createUser(ctx, req, models.RoleCustomer)
}

// CreateEmployee creates an EMPLOYEE account. Only an OWNER may do this.
func (s *AuthService) CreateEmployee(ctx context.Context, actor models.Role, req models.RegisterUserRequest) (*models.User, error) {
	if actor != models.RoleOwner {
		return nil, ErrForbidden
	}
	return s.createUser(ctx, req, models.RoleEmployee)
}

// CreateOwner creates an OWNER account; used by the seed command only
func (s *AuthService) CreateOwner(ctx context.Context, req models.RegisterUserRequest) (*models.User, error) {
	return s.createUser(ctx, req, models.RoleOwner)
}

func (s *AuthService) createUser(ctx context.Context, req models.RegisterUserRequest, role models.Role) (*models.User, error) {
	phone, ok := utils.NormalizePhone(req.PhoneNumber)
	if !ok {
		return nil, invalidField("phoneNumber", "Enter a valid 10-digit phone number")
	}
	email := ""
	if req.Email != "" {
		if email, ok = utils.NormalizeEmail(req.Email); !ok {
			return nil, invalidField("email", "Enter a valid email address")
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UserID:       utils.GenerateUserID(role),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		PhoneNumber:  phone,
		Email:        email,
		Role:         role,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	if role == models.RoleEmployee {
		user.Designation = strings.TrimSpace(req.Designation)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username or phone number already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("[auth] created %s %s", role, user.UserID)
	return user, nil
}

// GetUser returns the account for userID
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListEmployees returns every EMPLOYEE for the assignment picker. Only an OWNER may list them.
func (s *AuthService) ListEmployees(ctx context.Context, actor models.Role) ([]models.User, error) {
	if actor != models.RoleOwner {
		return nil, ErrForbidden
	}
	users, err := s.users.ListUsersByRole(ctx, models.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return users, nil
}

// lookupByIdentifier finds the account behind a phone number or email.
// It returns the normalised identifier the code must have been issued for.
func (s *AuthService) lookupByIdentifier(ctx context.Context, identifier string) (*models.User, string, error) {
	normalized, channel, err := resolveIdentifier(identifier, "")
	if err != nil {
		return nil, "", err
	}
	var user *models.User
	if channel == models.OTPChannelEmail {
		user, err = s.users.GetUserByEmail(ctx, normalized)
	} else {
		user, err = s.users.GetUserByPhone(ctx, normalized)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	return user, normalized, nil
}

// ForgotUsername returns the username registered to the identifier once its code checks out
func (s *AuthService) ForgotUsername(ctx context.Context, req models.ForgotUsernameRequest) (string, error) {
	user, identifier, err := s.lookupByIdentifier(ctx, req.Identifier())
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if err := s.otp.Verify(ctx, models.OTPPurposeForgotUsername, identifier, req.OTP); err != nil {
		return "", err
	}
	return user.Username, nil
}

// verifyOwnership checks that username is registered to identifier and that the caller holds
// a valid code for it
func (s *AuthService) verifyOwnership(ctx context.Context, purpose models.OTPPurpose, username, identifier, code string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	normalized, channel, err := resolveIdentifier(identifier, "")
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, purpose, normalized, code); err != nil {
		return nil, err
	}
	registered := user.PhoneNumber
	if channel == models.OTPChannelEmail {
		registered = user.Email
	}
	if registered != normalized {
		return nil, ErrIdentityMismatch
	}
	return user, nil
}

// ValidateUser confirms that username belongs to the caller's phone number or email
func (s *AuthService) ValidateUser(ctx context.Context, req models.ValidateUserRequest) error {
	_, err := s.verifyOwnership(ctx, models.OTPPurposeValidateUser, req.Username, req.Identifier(), req.OTP)
	return err
}

// ForgotPassword sets a new password after a fresh reset code checks out
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	user, err := s.verifyOwnership(ctx, models.OTPPurposeResetPassword, req.Username, req.Identifier(), req.OTP)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.UserID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	log.Printf("[auth] password reset for %s", user.UserID)
	return nil
}
