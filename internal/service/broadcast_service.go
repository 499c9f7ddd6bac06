package service

import (
	"context"
	"errors"
	"fmt"

	"calcbot/internal/domain"
	"calcbot/internal/events"
	"calcbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// BroadcastService рассылает сообщение пользователям с ограничением темпа.
// Журнал рассылки ведется в хранилище: счетчики обновляются по ходу доставки.
type BroadcastService struct {
	repo      domain.Repository
	telegram  domain.TelegramService
	events    domain.EventPublisher
	perSecond int
	logger    *zerolog.Logger
}

func NewBroadcastService(
	repo domain.Repository,
	telegram domain.TelegramService,
	eventBus domain.EventPublisher,
	perSecond int,
	logger *zerolog.Logger,
) *BroadcastService {
	if perSecond <= 0 {
		perSecond = models.DefaultBroadcastRate
	}
	return &BroadcastService{
		repo:      repo,
		telegram:  telegram,
		events:    eventBus,
		perSecond: perSecond,
		logger:    logger,
	}
}

// Run выполняет рассылку синхронно и возвращает итоговый журнал.
func (s *BroadcastService) Run(ctx context.Context, adminID int64, text string, onlySubscribed bool) (*models.Broadcast, error) {
	userIDs, err := s.repo.GetUsersForBroadcast(ctx, onlySubscribed)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить получателей: %w", err)
	}

	broadcast := &models.Broadcast{
		AdminID:     adminID,
		MessageText: text,
		TotalUsers:  int64(len(userIDs)),
	}
	if err := s.repo.CreateBroadcast(ctx, broadcast); err != nil {
		return nil, fmt.Errorf("не удалось создать журнал рассылки: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishJSON(events.EventBroadcastStarted, events.BroadcastEventPayload{
			BroadcastID: broadcast.ID,
			AdminID:     adminID,
			TotalUsers:  broadcast.TotalUsers,
			Status:      models.BroadcastStatusSending,
		})
	}

	limiter := rate.NewLimiter(rate.Limit(s.perSecond), 1)
	var sent, failed int64

	for i, userID := range userIDs {
		if err := limiter.Wait(ctx); err != nil {
			// Процесс останавливается: фиксируем, что успели
			s.finish(ctx, broadcast, sent, failed, models.BroadcastStatusFailed)
			return broadcast, err
		}

		if _, err := s.telegram.SendMessage(userID, text); err != nil {
			failed++
			s.logBroadcastError(userID, err)
		} else {
			sent++
		}

		// Промежуточные счетчики, чтобы админ видел прогресс
		if (i+1)%25 == 0 {
			if err := s.repo.UpdateBroadcastStats(ctx, broadcast.ID, sent, failed, models.BroadcastStatusSending); err != nil {
				s.logger.Error().Err(err).Int64("broadcast_id", broadcast.ID).Msg("Не удалось обновить счетчики рассылки")
			}
		}
	}

	s.finish(ctx, broadcast, sent, failed, models.BroadcastStatusCompleted)
	return broadcast, nil
}

func (s *BroadcastService) finish(ctx context.Context, broadcast *models.Broadcast, sent, failed int64, status string) {
	broadcast.SentCount = sent
	broadcast.FailedCount = failed
	broadcast.Status = status

	if err := s.repo.UpdateBroadcastStats(ctx, broadcast.ID, sent, failed, status); err != nil {
		s.logger.Error().Err(err).Int64("broadcast_id", broadcast.ID).Msg("Не удалось сохранить итог рассылки")
	}

	s.logger.Info().
		Int64("broadcast_id", broadcast.ID).
		Int64("sent", sent).
		Int64("failed", failed).
		Str("status", status).
		Msg("Рассылка завершена")

	if s.events != nil {
		_ = s.events.PublishJSON(events.EventBroadcastFinished, events.BroadcastEventPayload{
			BroadcastID: broadcast.ID,
			AdminID:     broadcast.AdminID,
			TotalUsers:  broadcast.TotalUsers,
			SentCount:   sent,
			FailedCount: failed,
			Status:      status,
		})
	}
}

func (s *BroadcastService) logBroadcastError(userID int64, err error) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 403 {
		// Пользователь заблокировал бота, это штатная ситуация
		s.logger.Debug().Int64("user_id", userID).Msg("Пользователь недоступен для рассылки")
		return
	}
	s.logger.Warn().Err(err).Int64("user_id", userID).Msg("Ошибка доставки сообщения рассылки")
}

// History возвращает последние рассылки; пустой срез при ошибке.
func (s *BroadcastService) History(ctx context.Context, limit int) []*models.Broadcast {
	history, err := s.repo.GetBroadcastHistory(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Не удалось прочитать историю рассылок")
		return nil
	}
	return history
}
