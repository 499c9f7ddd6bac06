package models

import "time"

// CalculatorSession хранит текущее состояние калькулятора пользователя.
// На пользователя существует не больше одной живой сессии.
type CalculatorSession struct {
	UserID       int64     `json:"user_id"`
	Value        string    `json:"value"`
	OldValue     string    `json:"old_value"`
	MessageID    int       `json:"message_id"`
	LastActivity time.Time `json:"last_activity"`
}

// Broadcast — задание рассылки, создается один раз и дальше только
// обновляет счетчики и статус (append-only журнал).
type Broadcast struct {
	ID          int64     `json:"id"`
	AdminID     int64     `json:"admin_id"`
	MessageText string    `json:"message_text"`
	TotalUsers  int64     `json:"total_users"`
	SentCount   int64     `json:"sent_count"`
	FailedCount int64     `json:"failed_count"`
	Status      string    `json:"status"` // sending, completed, failed
	CreatedAt   time.Time `json:"created_at"`
}

// CalculationRecord — запись журнала вычислений.
type CalculationRecord struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	Date       time.Time `json:"date"`
}

// UpdateEntry — запись истории обновлений бота.
type UpdateEntry struct {
	ID          int64     `json:"id"`
	Version     string    `json:"version"`
	ChangesText string    `json:"changes_text"`
	ReleaseDate time.Time `json:"release_date"`
}

// UserStats — агрегированная статистика для админ-панели.
type UserStats struct {
	TotalUsers        int64 `json:"total_users"`
	SubscribedUsers   int64 `json:"subscribed_users"`
	ActiveSessions    int64 `json:"active_sessions"`
	ActiveWeek        int64 `json:"active_week"`
	TotalCalculations int64 `json:"total_calculations"`
}

// SubscriptionEntry — кэшированный результат проверки подписки.
// Производная, невосстановимая потеря допустима: источником истины
// остаются строка пользователя и свежий запрос к Telegram.
type SubscriptionEntry struct {
	UserID     int64     `json:"user_id"`
	Subscribed bool      `json:"subscribed"`
	CheckedAt  time.Time `json:"checked_at"`
}

// FreshWithin сообщает, моложе ли запись указанного окна.
func (e *SubscriptionEntry) FreshWithin(now time.Time, window time.Duration) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.CheckedAt) < window
}
