package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3" // регистрирует драйвер sqlite3
	"github.com/rs/zerolog"
)

// ErrBusy сигнализирует, что база осталась заблокированной после всех
// повторных попыток. Вызывающий слой решает, деградировать или пропустить.
var ErrBusy = errors.New("database is busy")

const (
	maxRetries = 3
	retryDelay = 500 * time.Millisecond
)

type DB struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL и увеличенный busy_timeout — как страховка от коротких блокировок
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=10000", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Одно соединение: все операции строго сериализованы
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{db: sqlDB, logger: logger}

	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := db.migrateUsersTable(); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}

	logger.Info().Str("path", path).Msg("База данных инициализирована")
	return db, nil
}

func (db *DB) createTables() error {
	queries := []string{
		// Таблица пользователей
		`CREATE TABLE IF NOT EXISTS users (
            user_id INTEGER PRIMARY KEY,
            username TEXT NOT NULL DEFAULT '',
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            subscribed BOOLEAN NOT NULL DEFAULT 0,
            last_subscription_check TIMESTAMP,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            last_activity TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            notifications_enabled BOOLEAN NOT NULL DEFAULT 1,
            calculations_count INTEGER NOT NULL DEFAULT 0,
            last_calculation TIMESTAMP,
            profile_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица сессий калькулятора
		`CREATE TABLE IF NOT EXISTS calculator_sessions (
            user_id INTEGER PRIMARY KEY,
            value TEXT NOT NULL DEFAULT '',
            old_value TEXT NOT NULL DEFAULT '',
            message_id INTEGER NOT NULL DEFAULT 0,
            last_activity TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица рассылок
		`CREATE TABLE IF NOT EXISTS broadcasts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            admin_id INTEGER NOT NULL,
            message_text TEXT NOT NULL,
            total_users INTEGER NOT NULL DEFAULT 0,
            sent_count INTEGER NOT NULL DEFAULT 0,
            failed_count INTEGER NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'sending',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица настроек бота
		`CREATE TABLE IF NOT EXISTS bot_settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL DEFAULT ''
        )`,
		// Таблица истории обновлений
		`CREATE TABLE IF NOT EXISTS update_history (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            version TEXT NOT NULL,
            changes_text TEXT NOT NULL,
            release_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица истории вычислений
		`CREATE TABLE IF NOT EXISTS calculation_history (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            expression TEXT NOT NULL,
            result TEXT NOT NULL,
            calculation_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_users_subscribed ON users(subscribed)`,
		`CREATE INDEX IF NOT EXISTS idx_users_last_activity ON users(last_activity)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON calculator_sessions(last_activity)`,
		`CREATE INDEX IF NOT EXISTS idx_calc_history_user ON calculation_history(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_calc_history_date ON calculation_history(calculation_date)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// migrateUsersTable добавляет недостающие столбцы users при обновлении.
// Идемпотентна, безопасно вызывается на каждом старте.
func (db *DB) migrateUsersTable() error {
	rows, err := db.db.Query(`PRAGMA table_info(users)`)
	if err != nil {
		return fmt.Errorf("read users schema: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("scan users schema: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// ALTER TABLE не принимает неконстантный DEFAULT, поэтому временные
	// столбцы добавляются пустыми и заполняются отдельным UPDATE.
	newColumns := []struct {
		name       string
		definition string
		backfill   string
	}{
		{"calculations_count", "INTEGER NOT NULL DEFAULT 0", ""},
		{"last_calculation", "TIMESTAMP", ""},
		{"profile_updated", "TIMESTAMP", "UPDATE users SET profile_updated = CURRENT_TIMESTAMP WHERE profile_updated IS NULL"},
	}

	for _, col := range newColumns {
		if !existing[col.name] {
			stmt := fmt.Sprintf("ALTER TABLE users ADD COLUMN %s %s", col.name, col.definition)
			if _, err := db.db.Exec(stmt); err != nil {
				return fmt.Errorf("add column %s: %w", col.name, err)
			}
			db.logger.Info().Str("column", col.name).Msg("Добавлен столбец в таблицу users")
		}
		// Заполнение выполняется и для уже существующего столбца:
		// прерванная миграция могла оставить NULL
		if col.backfill != "" {
			if _, err := db.db.Exec(col.backfill); err != nil {
				return fmt.Errorf("backfill column %s: %w", col.name, err)
			}
		}
	}
	return nil
}

// withConn сериализует использование соединения и повторяет операцию
// при блокировке базы: до 3 попыток с фиксированной паузой 500 мс.
func (db *DB) withConn(ctx context.Context, op string, fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isLocked(err) {
			return err
		}
		if attempt == maxRetries {
			break
		}
		db.logger.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Int("max_retries", maxRetries).
			Msg("База данных заблокирована, повторная попытка")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	db.logger.Error().Err(err).Str("op", op).Msgf("Ошибка подключения к БД после %d попыток", maxRetries)
	return fmt.Errorf("%s: %w: %v", op, ErrBusy, err)
}

func isLocked(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return strings.Contains(err.Error(), "database is locked")
}

func (db *DB) PingContext(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.db.Close()
}
