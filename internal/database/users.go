package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"calcbot/internal/models"
)

// CreateUser создает пользователя при первом контакте. Повторный вызов
// с тем же user_id не трогает существующие поля (INSERT OR IGNORE).
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT OR IGNORE INTO users (user_id, username, first_name, last_name, created_at, last_activity, profile_updated)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	return db.withConn(ctx, "create_user", func() error {
		_, err := db.db.ExecContext(ctx, query,
			user.UserID,
			user.Username,
			user.FirstName,
			user.LastName,
			now,
			now,
			now,
		)
		return err
	})
}

// GetUser возвращает пользователя или nil, если его нет.
func (db *DB) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT user_id, username, first_name, last_name, subscribed,
	                 last_subscription_check, created_at, last_activity,
	                 notifications_enabled, calculations_count, last_calculation, profile_updated
              FROM users WHERE user_id = ?`

	var user models.User
	err := db.withConn(ctx, "get_user", func() error {
		return db.db.QueryRowContext(ctx, query, userID).Scan(
			&user.UserID,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.Subscribed,
			&user.LastSubscriptionCheck,
			&user.CreatedAt,
			&user.LastActivity,
			&user.NotificationsEnabled,
			&user.CalculationsCount,
			&user.LastCalculation,
			&user.ProfileUpdated,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfileData обновляет изменившиеся поля профиля. Пустые
// аргументы пропускаются.
func (db *DB) UpdateProfileData(ctx context.Context, userID int64, username, firstName, lastName string) error {
	setClauses := []string{}
	args := []interface{}{}

	if username != "" {
		setClauses = append(setClauses, "username = ?")
		args = append(args, username)
	}
	if firstName != "" {
		setClauses = append(setClauses, "first_name = ?")
		args = append(args, firstName)
	}
	if lastName != "" {
		setClauses = append(setClauses, "last_name = ?")
		args = append(args, lastName)
	}

	setClauses = append(setClauses, "profile_updated = ?")
	args = append(args, time.Now())
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = ?", strings.Join(setClauses, ", "))
	return db.withConn(ctx, "update_profile", func() error {
		_, err := db.db.ExecContext(ctx, query, args...)
		return err
	})
}

func (db *DB) UpdateSubscriptionStatus(ctx context.Context, userID int64, subscribed bool) error {
	query := `UPDATE users
              SET subscribed = ?, last_subscription_check = ?, last_activity = ?
              WHERE user_id = ?`
	now := time.Now()
	return db.withConn(ctx, "update_subscription", func() error {
		_, err := db.db.ExecContext(ctx, query, subscribed, now, now, userID)
		return err
	})
}

func (db *DB) UpdateUserActivity(ctx context.Context, userID int64) error {
	query := `UPDATE users SET last_activity = ? WHERE user_id = ?`
	return db.withConn(ctx, "update_activity", func() error {
		_, err := db.db.ExecContext(ctx, query, time.Now(), userID)
		return err
	})
}

// IncrementCalculationCount атомарно увеличивает счетчик вычислений.
func (db *DB) IncrementCalculationCount(ctx context.Context, userID int64) error {
	query := `UPDATE users
              SET calculations_count = calculations_count + 1, last_calculation = ?, last_activity = ?
              WHERE user_id = ?`
	now := time.Now()
	return db.withConn(ctx, "increment_calculations", func() error {
		_, err := db.db.ExecContext(ctx, query, now, now, userID)
		return err
	})
}

func (db *DB) ToggleNotifications(ctx context.Context, userID int64, enabled bool) error {
	query := `UPDATE users SET notifications_enabled = ? WHERE user_id = ?`
	return db.withConn(ctx, "toggle_notifications", func() error {
		_, err := db.db.ExecContext(ctx, query, enabled, userID)
		return err
	})
}

// GetNotificationsStatus возвращает true для неизвестных пользователей:
// уведомления включены по умолчанию.
func (db *DB) GetNotificationsStatus(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT notifications_enabled FROM users WHERE user_id = ?`
	enabled := true
	err := db.withConn(ctx, "get_notifications", func() error {
		return db.db.QueryRowContext(ctx, query, userID).Scan(&enabled)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return enabled, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT user_id, username, first_name, last_name, subscribed,
	                 last_subscription_check, created_at, last_activity,
	                 notifications_enabled, calculations_count, last_calculation, profile_updated
              FROM users ORDER BY created_at DESC`

	var users []*models.User
	err := db.withConn(ctx, "get_all_users", func() error {
		rows, err := db.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		users = users[:0]
		for rows.Next() {
			u := &models.User{}
			err := rows.Scan(
				&u.UserID, &u.Username, &u.FirstName, &u.LastName, &u.Subscribed,
				&u.LastSubscriptionCheck, &u.CreatedAt, &u.LastActivity,
				&u.NotificationsEnabled, &u.CalculationsCount, &u.LastCalculation, &u.ProfileUpdated,
			)
			if err != nil {
				return fmt.Errorf("failed to scan user: %w", err)
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUsersForBroadcast возвращает идентификаторы получателей рассылки:
// только с включенными уведомлениями, опционально только подписанных.
func (db *DB) GetUsersForBroadcast(ctx context.Context, onlySubscribed bool) ([]int64, error) {
	query := `SELECT user_id FROM users WHERE notifications_enabled = 1`
	if onlySubscribed {
		query += ` AND subscribed = 1`
	}

	var ids []int64
	err := db.withConn(ctx, "get_broadcast_users", func() error {
		rows, err := db.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		ids = ids[:0]
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
