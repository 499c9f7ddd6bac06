package service

import (
	"context"
	"time"

	"calcbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock of the domain.Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) UpdateProfileData(ctx context.Context, userID int64, username, firstName, lastName string) error {
	args := m.Called(ctx, userID, username, firstName, lastName)
	return args.Error(0)
}

func (m *MockRepository) UpdateSubscriptionStatus(ctx context.Context, userID int64, subscribed bool) error {
	args := m.Called(ctx, userID, subscribed)
	return args.Error(0)
}

func (m *MockRepository) UpdateUserActivity(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRepository) IncrementCalculationCount(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRepository) ToggleNotifications(ctx context.Context, userID int64, enabled bool) error {
	args := m.Called(ctx, userID, enabled)
	return args.Error(0)
}

func (m *MockRepository) GetNotificationsStatus(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockRepository) GetUsersForBroadcast(ctx context.Context, onlySubscribed bool) ([]int64, error) {
	args := m.Called(ctx, onlySubscribed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockRepository) GetCalculatorSession(ctx context.Context, userID int64) (*models.CalculatorSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalculatorSession), args.Error(1)
}

func (m *MockRepository) UpdateCalculatorSession(ctx context.Context, session *models.CalculatorSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockRepository) ResetCalculatorSession(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRepository) CreateBroadcast(ctx context.Context, broadcast *models.Broadcast) error {
	args := m.Called(ctx, broadcast)
	return args.Error(0)
}

func (m *MockRepository) UpdateBroadcastStats(ctx context.Context, id, sentCount, failedCount int64, status string) error {
	args := m.Called(ctx, id, sentCount, failedCount, status)
	return args.Error(0)
}

func (m *MockRepository) GetBroadcastHistory(ctx context.Context, limit int) ([]*models.Broadcast, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Broadcast), args.Error(1)
}

func (m *MockRepository) GetBotSetting(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) SetBotSetting(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockRepository) AddUpdateEntry(ctx context.Context, version, changesText string) error {
	args := m.Called(ctx, version, changesText)
	return args.Error(0)
}

func (m *MockRepository) GetUpdateHistory(ctx context.Context, limit int) ([]*models.UpdateEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UpdateEntry), args.Error(1)
}

func (m *MockRepository) AddCalculationRecord(ctx context.Context, userID int64, expression, result string) error {
	args := m.Called(ctx, userID, expression, result)
	return args.Error(0)
}

func (m *MockRepository) GetUserCalculationHistory(ctx context.Context, userID int64, limit int) ([]*models.CalculationRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalculationRecord), args.Error(1)
}

func (m *MockRepository) CleanupOldData(ctx context.Context, days int) error {
	args := m.Called(ctx, days)
	return args.Error(0)
}

func (m *MockRepository) GetUserStats(ctx context.Context) (*models.UserStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

// MockMembershipChecker is a mock of the domain.MembershipChecker interface
type MockMembershipChecker struct {
	mock.Mock
}

func (m *MockMembershipChecker) GetChatMember(channel string, userID int64) (tgbotapi.ChatMember, error) {
	args := m.Called(channel, userID)
	return args.Get(0).(tgbotapi.ChatMember), args.Error(1)
}

// MockSubscriptionChecker is a mock of the domain.SubscriptionChecker interface
type MockSubscriptionChecker struct {
	mock.Mock
}

func (m *MockSubscriptionChecker) Check(ctx context.Context, userID int64) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}

func (m *MockSubscriptionChecker) Invalidate(ctx context.Context, userID int64) {
	m.Called(ctx, userID)
}

func (m *MockSubscriptionChecker) Sweep(ctx context.Context, maxAge time.Duration) int {
	args := m.Called(ctx, maxAge)
	return args.Int(0)
}

// fakeClock — управляемые часы для проверки TTL
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
