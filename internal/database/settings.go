package database

import (
	"context"
	"database/sql"
	"errors"
)

// GetBotSetting возвращает значение настройки или пустую строку,
// если ключа нет.
func (db *DB) GetBotSetting(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM bot_settings WHERE key = ?`
	var value string
	err := db.withConn(ctx, "get_setting", func() error {
		return db.db.QueryRowContext(ctx, query, key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (db *DB) SetBotSetting(ctx context.Context, key, value string) error {
	query := `INSERT OR REPLACE INTO bot_settings (key, value) VALUES (?, ?)`
	return db.withConn(ctx, "set_setting", func() error {
		_, err := db.db.ExecContext(ctx, query, key, value)
		return err
	})
}
