package handler_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"repairdesk/models"
	"repairdesk/notification"
	"repairdesk/repository"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	order []string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]*models.User)}
}

func (m *memUsers) find(match func(*models.User) bool) *models.User {
	for _, id := range m.order {
		if u := m.byID[id]; match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *models.User) bool { return u.UserID == id }), nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, name string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *models.User) bool { return u.Username == name }), nil
}

func (m *memUsers) GetUserByPhone(_ context.Context, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *models.User) bool { return u.PhoneNumber == phone }), nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *models.User) bool { return email != "" && u.Email == email }), nil
}

func (m *memUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(func(u *models.User) bool { return u.Username == user.Username || u.PhoneNumber == user.PhoneNumber }) != nil {
		return repository.ErrDuplicate
	}
	cp := *user
	m.byID[user.UserID] = &cp
	m.order = append(m.order, user.UserID)
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (m *memUsers) ListUsersByRole(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, id := range m.order {
		if u := m.byID[id]; u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

type memComplaints struct {
	mu   sync.Mutex
	byID map[string]*models.Complaint
}

func newMemComplaints() *memComplaints {
	return &memComplaints{byID: make(map[string]*models.Complaint)}
}

func (m *memComplaints) CreateComplaint(_ context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[c.ComplaintID] = c.Clone()
	return nil
}

func (m *memComplaints) GetComplaintByID(_ context.Context, id string) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byID[id]; ok {
		return c.Clone(), nil
	}
	return nil, nil
}

func (m *memComplaints) UpdateComplaint(_ context.Context, c *models.Complaint, expected time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[c.ComplaintID]
	if !ok || !cur.UpdatedAt.Equal(expected) {
		return repository.ErrStaleComplaint
	}
	m.byID[c.ComplaintID] = c.Clone()
	return nil
}

func (m *memComplaints) filter(keep func(*models.Complaint) bool) []models.Complaint {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Complaint
	for _, c := range m.byID {
		if keep(c) {
			out = append(out, *c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memComplaints) ListByBooker(_ context.Context, id string) ([]models.Complaint, error) {
	return m.filter(func(c *models.Complaint) bool { return c.BookedByID == id }), nil
}

func (m *memComplaints) ListByEmployee(_ context.Context, id string) ([]models.Complaint, error) {
	return m.filter(func(c *models.Complaint) bool { return c.AssignedEmployeeID() == id }), nil
}

func (m *memComplaints) ListResolvedByBooker(_ context.Context, id string) ([]models.Complaint, error) {
	return m.filter(func(c *models.Complaint) bool {
		return c.BookedByID == id && c.Status == models.StatusResolved
	}), nil
}

func (m *memComplaints) ListAll(context.Context) ([]models.Complaint, error) {
	return m.filter(func(*models.Complaint) bool { return true }), nil
}

type memOTP struct {
	mu        sync.Mutex
	codes     map[string]*repository.OTPRecord
	cooldowns map[string]time.Time
}

func newMemOTP() *memOTP {
	return &memOTP{codes: make(map[string]*repository.OTPRecord), cooldowns: make(map[string]time.Time)}
}

func (m *memOTP) AcquireCooldown(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if until, ok := m.cooldowns[key]; ok && time.Now().Before(until) {
		return false, time.Until(until), nil
	}
	m.cooldowns[key] = time.Now().Add(window)
	return true, 0, nil
}

func (m *memOTP) ReleaseCooldown(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cooldowns, key)
	return nil
}

func (m *memOTP) SaveCode(_ context.Context, key, hash string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[key] = &repository.OTPRecord{CodeHash: hash}
	return nil
}

func (m *memOTP) ClaimAttempt(_ context.Context, key string) (*repository.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.codes[key]
	if !ok {
		return nil, nil
	}
	r.Attempts++
	cp := *r
	return &cp, nil
}

func (m *memOTP) DeleteCode(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.codes[key]
	delete(m.codes, key)
	return ok, nil
}

// offlineNotifier has no channels, so dev mode echoes codes back
type offlineNotifier struct{}

func (offlineNotifier) Configured(notification.Channel) bool { return false }

func (offlineNotifier) Send(context.Context, notification.Channel, notification.Message) error {
	return notification.ErrChannelNotConfigured
}
