package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"calcbot/internal/models"
)

// GetCalculatorSession возвращает сессию пользователя или nil, если
// сессии нет (после сброса или очистки).
func (db *DB) GetCalculatorSession(ctx context.Context, userID int64) (*models.CalculatorSession, error) {
	query := `SELECT user_id, value, old_value, message_id, last_activity
              FROM calculator_sessions WHERE user_id = ?`

	var session models.CalculatorSession
	err := db.withConn(ctx, "get_session", func() error {
		return db.db.QueryRowContext(ctx, query, userID).Scan(
			&session.UserID,
			&session.Value,
			&session.OldValue,
			&session.MessageID,
			&session.LastActivity,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateCalculatorSession выполняет upsert: на пользователя существует
// не больше одной строки сессии.
func (db *DB) UpdateCalculatorSession(ctx context.Context, session *models.CalculatorSession) error {
	query := `INSERT OR REPLACE INTO calculator_sessions (user_id, value, old_value, message_id, last_activity)
              VALUES (?, ?, ?, ?, ?)`
	lastActivity := session.LastActivity
	if lastActivity.IsZero() {
		lastActivity = time.Now()
	}
	return db.withConn(ctx, "update_session", func() error {
		_, err := db.db.ExecContext(ctx, query,
			session.UserID,
			session.Value,
			session.OldValue,
			session.MessageID,
			lastActivity,
		)
		return err
	})
}

func (db *DB) ResetCalculatorSession(ctx context.Context, userID int64) error {
	query := `DELETE FROM calculator_sessions WHERE user_id = ?`
	return db.withConn(ctx, "reset_session", func() error {
		_, err := db.db.ExecContext(ctx, query, userID)
		return err
	})
}
