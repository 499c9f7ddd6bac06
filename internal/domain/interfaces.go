package domain

import (
	"context"
	"time"

	"calcbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfileData(ctx context.Context, userID int64, username, firstName, lastName string) error
	UpdateSubscriptionStatus(ctx context.Context, userID int64, subscribed bool) error
	UpdateUserActivity(ctx context.Context, userID int64) error
	IncrementCalculationCount(ctx context.Context, userID int64) error
	ToggleNotifications(ctx context.Context, userID int64, enabled bool) error
	GetNotificationsStatus(ctx context.Context, userID int64) (bool, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetUsersForBroadcast(ctx context.Context, onlySubscribed bool) ([]int64, error)

	GetCalculatorSession(ctx context.Context, userID int64) (*models.CalculatorSession, error)
	UpdateCalculatorSession(ctx context.Context, session *models.CalculatorSession) error
	ResetCalculatorSession(ctx context.Context, userID int64) error

	CreateBroadcast(ctx context.Context, broadcast *models.Broadcast) error
	UpdateBroadcastStats(ctx context.Context, id, sentCount, failedCount int64, status string) error
	GetBroadcastHistory(ctx context.Context, limit int) ([]*models.Broadcast, error)

	GetBotSetting(ctx context.Context, key string) (string, error)
	SetBotSetting(ctx context.Context, key, value string) error

	AddUpdateEntry(ctx context.Context, version, changesText string) error
	GetUpdateHistory(ctx context.Context, limit int) ([]*models.UpdateEntry, error)

	AddCalculationRecord(ctx context.Context, userID int64, expression, result string) error
	GetUserCalculationHistory(ctx context.Context, userID int64, limit int) ([]*models.CalculationRecord, error)

	CleanupOldData(ctx context.Context, days int) error
	GetUserStats(ctx context.Context) (*models.UserStats, error)
}

// SubscriptionCache хранит производные записи о подписке. Реализации:
// память, Redis и failover-обертка над ними.
type SubscriptionCache interface {
	Get(ctx context.Context, userID int64) (*models.SubscriptionEntry, error)
	Set(ctx context.Context, entry *models.SubscriptionEntry) error
	Delete(ctx context.Context, userID int64) error
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

// MembershipChecker — внешний вызов проверки членства в канале.
type MembershipChecker interface {
	GetChatMember(channel string, userID int64) (tgbotapi.ChatMember, error)
}

// SubscriptionChecker — решение о доступе поверх кэша и внешней проверки.
type SubscriptionChecker interface {
	Check(ctx context.Context, userID int64) bool
	Invalidate(ctx context.Context, userID int64)
	Sweep(ctx context.Context, maxAge time.Duration) int
}

// Evaluator вычисляет арифметическое выражение и возвращает строку результата.
type Evaluator interface {
	Evaluate(expression string) (string, error)
}

// Clock отдает текущее время; в тестах подменяется.
type Clock interface {
	Now() time.Time
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendDocument(chatID int64, filePath string) error
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	AnswerCallbackAlert(callbackID string, text string) error
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	GetChatMember(channel string, userID int64) (tgbotapi.ChatMember, error)
	GetSelf() tgbotapi.User
}

// TelegramSender — низкоуровневый клиент Telegram, который оборачивает сервис.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetSelf() tgbotapi.User
}

// EventPublisher — интерфейс шины событий.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
