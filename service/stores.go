package service

import (
	"context"
	"time"

	"repairdesk/models"
	"repairdesk/notification"
	"repairdesk/repository"
)

// UserStore is the user persistence the services depend on (repository.UserRepository)
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// ComplaintStore is the complaint persistence the services depend on (repository.ComplaintRepository)
type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaintByID(ctx context.Context, complaintID string) (*models.Complaint, error)
	UpdateComplaint(ctx context.Context, c *models.Complaint, expectedUpdatedAt time.Time) error
	ListByBooker(ctx context.Context, userID string) ([]models.Complaint, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]models.Complaint, error)
	ListResolvedByBooker(ctx context.Context, userID string) ([]models.Complaint, error)
	ListAll(ctx context.Context) ([]models.Complaint, error)
}

// OTPStore keeps code hashes and request cooldowns (repository.RedisOTPStore)
type OTPStore interface {
	AcquireCooldown(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
	ReleaseCooldown(ctx context.Context, key string) error
	SaveCode(ctx context.Context, key, codeHash string, ttl time.Duration) error
	ClaimAttempt(ctx context.Context, key string) (*repository.OTPRecord, error)
	DeleteCode(ctx context.Context, key string) (bool, error)
}

// Notifier delivers messages over a channel (notification.Dispatcher)
type Notifier interface {
	Configured(ch notification.Channel) bool
	Send(ctx context.Context, ch notification.Channel, msg notification.Message) error
}
