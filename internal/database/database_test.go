package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	return db
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestMigrateUsersTable_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Повторный запуск миграции не должен падать
	err := db.migrateUsersTable()
	require.NoError(t, err)
}

func TestMigrateUsersTable_AddsMissingColumns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	// Старая схема без столбцов статистики вычислений
	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE users (
        user_id INTEGER PRIMARY KEY,
        username TEXT NOT NULL DEFAULT '',
        first_name TEXT NOT NULL DEFAULT '',
        last_name TEXT NOT NULL DEFAULT '',
        subscribed BOOLEAN NOT NULL DEFAULT 0,
        last_subscription_check TIMESTAMP,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        last_activity TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        notifications_enabled BOOLEAN NOT NULL DEFAULT 1
    )`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO users (user_id, first_name) VALUES (1, 'Old')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	logger := zerolog.Nop()
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	// Существующая строка читается с дефолтами новых столбцов
	user, err := db.GetUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Old", user.FirstName)
	assert.Equal(t, int64(0), user.CalculationsCount)

	// profile_updated заполнен миграцией, NULL сломал бы чтение строки
	assert.False(t, user.ProfileUpdated.IsZero())

	err = db.IncrementCalculationCount(ctx, 1)
	require.NoError(t, err)

	user, err = db.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.CalculationsCount)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.PingContext(context.Background())
	assert.NoError(t, err)
}
