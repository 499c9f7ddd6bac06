package database

import (
	"context"
	"testing"

	"calcbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserStats(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{UserID: 1, FirstName: "A"}))
	require.NoError(t, db.CreateUser(ctx, &models.User{UserID: 2, FirstName: "B"}))
	require.NoError(t, db.UpdateSubscriptionStatus(ctx, 1, true))
	require.NoError(t, db.IncrementCalculationCount(ctx, 1))
	require.NoError(t, db.IncrementCalculationCount(ctx, 1))
	require.NoError(t, db.IncrementCalculationCount(ctx, 2))
	require.NoError(t, db.UpdateCalculatorSession(ctx, &models.CalculatorSession{UserID: 1, Value: "5"}))

	stats, err := db.GetUserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.SubscribedUsers)
	assert.Equal(t, int64(1), stats.ActiveSessions)
	assert.Equal(t, int64(2), stats.ActiveWeek)
	assert.Equal(t, int64(3), stats.TotalCalculations)
}

func TestCleanupOldData(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.UpdateCalculatorSession(ctx, &models.CalculatorSession{UserID: 1, Value: "7"}))
	require.NoError(t, db.UpdateCalculatorSession(ctx, &models.CalculatorSession{UserID: 2, Value: "8"}))
	require.NoError(t, db.AddCalculationRecord(ctx, 1, "7+1", "8"))

	// Состариваем одну сессию и одну запись истории напрямую
	_, err := db.db.Exec(`UPDATE calculator_sessions SET last_activity = datetime('now', '-10 days') WHERE user_id = 2`)
	require.NoError(t, err)
	_, err = db.db.Exec(`INSERT INTO calculation_history (user_id, expression, result, calculation_date)
        VALUES (2, '1+1', '2', datetime('now', '-10 days'))`)
	require.NoError(t, err)

	require.NoError(t, db.CleanupOldData(ctx, 7))

	fresh, err := db.GetCalculatorSession(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, fresh)

	stale, err := db.GetCalculatorSession(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, stale)

	records, err := db.GetUserCalculationHistory(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	staleRecords, err := db.GetUserCalculationHistory(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, staleRecords)
}
