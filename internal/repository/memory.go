package repository

import (
	"context"
	"sync"
	"time"

	"calcbot/internal/models"
)

type MemoryCacheRepository struct {
	entries sync.Map
}

func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{}
}

func (r *MemoryCacheRepository) Get(ctx context.Context, userID int64) (*models.SubscriptionEntry, error) {
	val, ok := r.entries.Load(userID)
	if !ok {
		return nil, nil
	}
	return val.(*models.SubscriptionEntry), nil
}

func (r *MemoryCacheRepository) Set(ctx context.Context, entry *models.SubscriptionEntry) error {
	r.entries.Store(entry.UserID, entry)
	return nil
}

func (r *MemoryCacheRepository) Delete(ctx context.Context, userID int64) error {
	r.entries.Delete(userID)
	return nil
}

// Sweep удаляет записи, проверенные раньше указанного момента.
func (r *MemoryCacheRepository) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	removed := 0
	r.entries.Range(func(key, val any) bool {
		entry := val.(*models.SubscriptionEntry)
		if entry.CheckedAt.Before(olderThan) {
			r.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed, nil
}
