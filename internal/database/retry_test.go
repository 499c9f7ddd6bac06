package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"calcbot/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithConn_RetriesOnLock(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	attempts := 0
	err := db.withConn(context.Background(), "test_op", func() error {
		attempts++
		if attempts < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithConn_ErrBusyAfterAllRetries(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	attempts := 0
	err := db.withConn(context.Background(), "test_op", func() error {
		attempts++
		return sqlite3.Error{Code: sqlite3.ErrLocked}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, maxRetries, attempts)
}

func TestWithConn_NoRetryOnOtherErrors(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	boom := errors.New("boom")
	attempts := 0
	err := db.withConn(context.Background(), "test_op", func() error {
		attempts++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestWithConn_ContextCancelDuringRetry(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.withConn(ctx, "test_op", func() error {
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsLocked(t *testing.T) {
	assert.True(t, isLocked(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, isLocked(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.True(t, isLocked(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isLocked(errors.New("no such table")))
	assert.False(t, isLocked(nil))
}

func TestConcurrentIncrements(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreateUser(ctx, &models.User{UserID: 1, FirstName: "Race"}))

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, db.IncrementCalculationCount(ctx, 1))
		}()
	}
	wg.Wait()

	user, err := db.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), user.CalculationsCount)
}
