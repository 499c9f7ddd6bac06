package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculationHistory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		err := db.AddCalculationRecord(ctx, 5, fmt.Sprintf("%d+%d", i, i), fmt.Sprintf("%d", i*2))
		require.NoError(t, err)
	}
	// Чужие записи не должны попадать в выборку
	require.NoError(t, db.AddCalculationRecord(ctx, 6, "1+1", "2"))

	records, err := db.GetUserCalculationHistory(ctx, 5, 5)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for _, r := range records {
		assert.Equal(t, int64(5), r.UserID)
	}
}

func TestUpdateHistory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.AddUpdateEntry(ctx, "1.0.0", "Первый релиз"))
	require.NoError(t, db.AddUpdateEntry(ctx, "1.1.0", "Добавлена история вычислений"))

	entries, err := db.GetUpdateHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1.1.0", entries[0].Version)
}
