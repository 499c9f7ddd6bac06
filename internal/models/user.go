package models

import (
	"database/sql"
	"time"
)

type User struct {
	UserID                int64        `json:"user_id"`                 // Уникальный ID Telegram
	Username              string       `json:"username"`                // Юзернейм Telegram
	FirstName             string       `json:"first_name"`              // Имя пользователя
	LastName              string       `json:"last_name"`               // Фамилия пользователя
	Subscribed            bool         `json:"subscribed"`              // Подписан ли на канал
	LastSubscriptionCheck sql.NullTime `json:"last_subscription_check"` // Последняя проверка подписки
	CreatedAt             time.Time    `json:"created_at"`              // Время регистрации
	LastActivity          time.Time    `json:"last_activity"`           // Время последней активности
	NotificationsEnabled  bool         `json:"notifications_enabled"`   // Включены ли уведомления
	CalculationsCount     int64        `json:"calculations_count"`      // Счетчик вычислений
	LastCalculation       sql.NullTime `json:"last_calculation"`        // Последнее вычисление
	ProfileUpdated        time.Time    `json:"profile_updated"`         // Последнее обновление профиля
}

// DisplayName возвращает имя для списков и профиля.
func (u *User) DisplayName() string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}
