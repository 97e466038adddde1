package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"repairdesk/models"
	"repairdesk/notification"
	"repairdesk/repository"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) user(args mock.Arguments) (*models.User, error) {
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockUserStore) GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	return m.user(m.Called(ctx, phoneNumber))
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *MockUserStore) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

type MockComplaintStore struct {
	mock.Mock
}

func (m *MockComplaintStore) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockComplaintStore) GetComplaintByID(ctx context.Context, complaintID string) (*models.Complaint, error) {
	args := m.Called(ctx, complaintID)
	if c := args.Get(0); c != nil {
		return c.(*models.Complaint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockComplaintStore) UpdateComplaint(ctx context.Context, c *models.Complaint, expectedUpdatedAt time.Time) error {
	return m.Called(ctx, c, expectedUpdatedAt).Error(0)
}

func (m *MockComplaintStore) list(args mock.Arguments) ([]models.Complaint, error) {
	out, _ := args.Get(0).([]models.Complaint)
	return out, args.Error(1)
}

func (m *MockComplaintStore) ListByBooker(ctx context.Context, userID string) ([]models.Complaint, error) {
	return m.list(m.Called(ctx, userID))
}

func (m *MockComplaintStore) ListByEmployee(ctx context.Context, employeeID string) ([]models.Complaint, error) {
	return m.list(m.Called(ctx, employeeID))
}

func (m *MockComplaintStore) ListResolvedByBooker(ctx context.Context, userID string) ([]models.Complaint, error) {
	return m.list(m.Called(ctx, userID))
}

func (m *MockComplaintStore) ListAll(ctx context.Context) ([]models.Complaint, error) {
	return m.list(m.Called(ctx))
}

type MockOTPStore struct {
	mock.Mock
}

func (m *MockOTPStore) AcquireCooldown(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	args := m.Called(ctx, key, window)
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *MockOTPStore) ReleaseCooldown(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockOTPStore) SaveCode(ctx context.Context, key, codeHash string, ttl time.Duration) error {
	return m.Called(ctx, key, codeHash, ttl).Error(0)
}

func (m *MockOTPStore) ClaimAttempt(ctx context.Context, key string) (*repository.OTPRecord, error) {
	args := m.Called(ctx, key)
	if r := args.Get(0); r != nil {
		return r.(*repository.OTPRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOTPStore) DeleteCode(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Configured(ch notification.Channel) bool {
	return m.Called(ch).Bool(0)
}

func (m *MockNotifier) Send(ctx context.Context, ch notification.Channel, msg notification.Message) error {
	return m.Called(ctx, ch, msg).Error(0)
}
