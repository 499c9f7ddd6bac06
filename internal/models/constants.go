package models

import "time"

const (
	BroadcastStatusSending   = "sending"
	BroadcastStatusCompleted = "completed"
	BroadcastStatusFailed    = "failed"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// SubscriptionFreshTTL окно свежести записи кэша подписки:
	// внутри него внешняя проверка не выполняется.
	SubscriptionFreshTTL = 5 * time.Minute

	// SubscriptionEvictTTL возраст, после которого запись выселяется
	// фоновой задачей. Между Fresh и Evict запись "устарела, но терпима".
	SubscriptionEvictTTL = 10 * time.Minute

	// SubscriptionRedisTTL время жизни записи в Redis
	SubscriptionRedisTTL = 15 * time.Minute

	// MaintenanceInterval период фоновой задачи обслуживания
	MaintenanceInterval = 5 * time.Minute

	// MaintenanceErrorBackoff пауза после ошибки фоновой задачи
	MaintenanceErrorBackoff = time.Minute

	// CleanupRetentionDays срок хранения сессий и истории вычислений
	CleanupRetentionDays = 7

	// ConflictRestartDelay пауза перед перезапуском после конфликта getUpdates
	ConflictRestartDelay = 10 * time.Second

	// DefaultBroadcastRate сообщений в секунду при рассылке
	DefaultBroadcastRate = 20

	// DefaultHistoryLimit записей истории в профиле и админ-панели
	DefaultHistoryLimit = 5
)
