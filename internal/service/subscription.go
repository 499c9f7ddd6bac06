package service

import (
	"context"
	"errors"
	"time"

	"calcbot/internal/domain"
	"calcbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// SubscriptionService решает, есть ли у пользователя доступ: сначала кэш,
// при промахе — запрос членства в канале. Политика fail-open: если проверить
// не удалось, доступ выдается. Отзыв подписки доезжает с задержкой до TTL,
// ложных отказов не бывает.
type SubscriptionService struct {
	cache   domain.SubscriptionCache
	checker domain.MembershipChecker
	channel string
	clock   domain.Clock
	logger  *zerolog.Logger
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock возвращает часы на базе time.Now.
func SystemClock() domain.Clock { return systemClock{} }

func NewSubscriptionService(
	cache domain.SubscriptionCache,
	checker domain.MembershipChecker,
	channel string,
	clock domain.Clock,
	logger *zerolog.Logger,
) *SubscriptionService {
	if clock == nil {
		clock = systemClock{}
	}
	return &SubscriptionService{
		cache:   cache,
		checker: checker,
		channel: channel,
		clock:   clock,
		logger:  logger,
	}
}

// Check возвращает true, если пользователь подписан на канал либо проверка
// невозможна. Свежая запись кэша (моложе 5 минут) отдается без внешнего вызова.
func (s *SubscriptionService) Check(ctx context.Context, userID int64) bool {
	if s.channel == "" {
		return true
	}

	now := s.clock.Now()

	entry, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Ошибка чтения кэша подписок")
	}
	if entry != nil && entry.FreshWithin(now, models.SubscriptionFreshTTL) {
		return entry.Subscribed
	}

	subscribed, verified := s.verify(ctx, userID)
	if !verified {
		// Fail-open результат не кэшируем: следующая проверка
		// попробует внешний вызов заново
		return subscribed
	}

	if err := s.cache.Set(ctx, &models.SubscriptionEntry{
		UserID:     userID,
		Subscribed: subscribed,
		CheckedAt:  now,
	}); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Ошибка записи кэша подписок")
	}

	return subscribed
}

// verify запрашивает членство в канале. Второе значение false означает,
// что ответ получить не удалось и вернулся fail-open.
func (s *SubscriptionService) verify(ctx context.Context, userID int64) (bool, bool) {
	const maxAttempts = 2

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		member, err := s.checker.GetChatMember(s.channel, userID)
		if err == nil {
			return isActiveMember(member), true
		}

		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 429 && attempt < maxAttempts {
			wait := time.Duration(apiErr.RetryAfter) * time.Second
			if wait <= 0 {
				wait = time.Second
			}
			s.logger.Warn().
				Int64("user_id", userID).
				Dur("retry_after", wait).
				Msg("Превышен лимит запросов к Telegram, ждем перед повтором")
			select {
			case <-ctx.Done():
				return true, false
			case <-time.After(wait):
			}
			continue
		}

		// badRequest, forbidden и неизвестные ошибки: пропускаем пользователя
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("Проверка подписки не удалась, доступ выдан")
		return true, false
	}

	return true, false
}

// Invalidate сбрасывает запись кэша, чтобы следующая проверка пошла в канал.
// Используется, когда пользователь сообщает, что только что подписался.
func (s *SubscriptionService) Invalidate(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Ошибка сброса кэша подписок")
	}
}

// Sweep выселяет записи старше maxAge и возвращает число удаленных.
func (s *SubscriptionService) Sweep(ctx context.Context, maxAge time.Duration) int {
	cutoff := s.clock.Now().Add(-maxAge)
	removed, err := s.cache.Sweep(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Ошибка чистки кэша подписок")
		return 0
	}
	return removed
}

func isActiveMember(member tgbotapi.ChatMember) bool {
	switch member.Status {
	case "creator", "administrator", "member":
		return true
	default:
		return false
	}
}
