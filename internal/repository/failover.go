package repository

import (
	"context"
	"sync/atomic"
	"time"

	"calcbot/internal/domain"
	"calcbot/internal/models"

	"github.com/rs/zerolog"
)

type FailoverCacheRepository struct {
	primary   domain.SubscriptionCache
	fallback  domain.SubscriptionCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverCacheRepository(primary, fallback domain.SubscriptionCache, logger *zerolog.Logger) *FailoverCacheRepository {
	return &FailoverCacheRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCacheRepository) Get(ctx context.Context, userID int64) (*models.SubscriptionEntry, error) {
	if !r.isDown.Load() {
		entry, err := r.primary.Get(ctx, userID)
		if err == nil {
			return entry, nil
		}
		r.logger.Error().Err(err).Msg("Primary subscription cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Пробуем восстановиться через минуту
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		entry, err := r.primary.Get(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return entry, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.Get(ctx, userID)
}

func (r *FailoverCacheRepository) Set(ctx context.Context, entry *models.SubscriptionEntry) error {
	if !r.isDown.Load() {
		err := r.primary.Set(ctx, entry)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary subscription cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Set(ctx, entry)
}

func (r *FailoverCacheRepository) Delete(ctx context.Context, userID int64) error {
	if !r.isDown.Load() {
		err := r.primary.Delete(ctx, userID)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary subscription cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Delete(ctx, userID)
}

// Sweep всегда чистит резервное хранилище: записи, накопленные в памяти
// за время недоступности primary, иначе остались бы навсегда.
func (r *FailoverCacheRepository) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	removed, err := r.fallback.Sweep(ctx, olderThan)
	if err != nil {
		return 0, err
	}

	if !r.isDown.Load() {
		n, err := r.primary.Sweep(ctx, olderThan)
		if err != nil {
			r.logger.Error().Err(err).Msg("Primary subscription cache failed, falling back to memory")
			r.isDown.Store(true)
			r.lastCheck = time.Now()
			return removed, nil
		}
		removed += n
	}

	return removed, nil
}
