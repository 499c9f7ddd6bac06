package worker

import (
	"context"
	"errors"
	"time"

	"calcbot/internal/database"
	"calcbot/internal/models"

	"github.com/rs/zerolog"
)

// Pruner — часть хранилища, нужная задаче обслуживания.
type Pruner interface {
	CleanupOldData(ctx context.Context, days int) error
}

// CacheSweeper выселяет устаревшие записи кэша и возвращает их число.
type CacheSweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) int
}

// Maintenance — фоновая задача обслуживания: выселяет устаревшие записи
// кэша подписок и подчищает старые сессии и историю в хранилище.
// Работает до отмены контекста, запросы пользователей не блокирует.
type Maintenance struct {
	repo          Pruner
	subscription  CacheSweeper
	interval      time.Duration
	errorBackoff  time.Duration
	retentionDays int
	logger        *zerolog.Logger
}

func NewMaintenance(
	repo Pruner,
	subscription CacheSweeper,
	interval time.Duration,
	retentionDays int,
	logger *zerolog.Logger,
) *Maintenance {
	if interval <= 0 {
		interval = models.MaintenanceInterval
	}
	if retentionDays <= 0 {
		retentionDays = models.CleanupRetentionDays
	}
	return &Maintenance{
		repo:          repo,
		subscription:  subscription,
		interval:      interval,
		errorBackoff:  models.MaintenanceErrorBackoff,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Start крутит цикл обслуживания до отмены контекста.
func (m *Maintenance) Start(ctx context.Context) {
	m.logger.Info().
		Dur("interval", m.interval).
		Int("retention_days", m.retentionDays).
		Msg("Задача обслуживания запущена")
	defer m.logger.Info().Msg("Задача обслуживания остановлена")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.runCycle(ctx); err != nil {
				m.logger.Error().Err(err).Dur("backoff", m.errorBackoff).Msg("Ошибка цикла обслуживания, пауза")
				select {
				case <-ctx.Done():
					return
				case <-time.After(m.errorBackoff):
				}
			}
		}
	}
}

func (m *Maintenance) runCycle(ctx context.Context) error {
	removed := m.subscription.Sweep(ctx, models.SubscriptionEvictTTL)
	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Msg("Кэш подписок почищен")
	}

	err := m.repo.CleanupOldData(ctx, m.retentionDays)
	if errors.Is(err, database.ErrBusy) {
		// Чистка оппортунистическая: при блокировке пропускаем цикл
		m.logger.Warn().Msg("База занята, чистка отложена до следующего цикла")
		return nil
	}
	return err
}
