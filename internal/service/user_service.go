package service

import (
	"context"

	"calcbot/internal/config"
	"calcbot/internal/domain"
	"calcbot/internal/events"
	"calcbot/internal/models"

	"github.com/rs/zerolog"
)

// UserService — операции над пользователями поверх хранилища. Ошибки
// хранилища логируются и превращаются в безопасные значения по умолчанию:
// пользовательские сценарии продолжаются даже при деградации базы.
type UserService struct {
	repo         domain.Repository
	subscription domain.SubscriptionChecker
	events       domain.EventPublisher
	config       *config.Config
	logger       *zerolog.Logger
	adminsMap    map[int64]bool
}

func NewUserService(
	repo domain.Repository,
	subscription domain.SubscriptionChecker,
	eventBus domain.EventPublisher,
	cfg *config.Config,
	logger *zerolog.Logger,
) *UserService {
	adminsMap := make(map[int64]bool)
	for _, id := range cfg.Telegram.Admins {
		adminsMap[id] = true
	}

	return &UserService{
		repo:         repo,
		subscription: subscription,
		events:       eventBus,
		config:       cfg,
		logger:       logger,
		adminsMap:    adminsMap,
	}
}

func (s *UserService) IsAdmin(userID int64) bool {
	return s.adminsMap[userID]
}

// CheckUserAccess — основной сценарий доступа: регистрирует пользователя
// при первом контакте, обновляет профиль, проверяет подписку и фиксирует
// активность. Возвращает решение о доступе.
func (s *UserService) CheckUserAccess(ctx context.Context, userID int64, username, firstName, lastName string) bool {
	if err := s.repo.CreateUser(ctx, &models.User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось зарегистрировать пользователя")
	}

	if err := s.repo.UpdateProfileData(ctx, userID, username, firstName, lastName); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось обновить профиль")
	}

	subscribed := true
	if s.subscription != nil {
		subscribed = s.subscription.Check(ctx, userID)
	}

	if err := s.repo.UpdateSubscriptionStatus(ctx, userID, subscribed); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось сохранить статус подписки")
	} else if s.events != nil {
		_ = s.events.PublishJSON(events.EventSubscriptionChange, events.SubscriptionEventPayload{
			UserID:     userID,
			Subscribed: subscribed,
		})
	}

	if err := s.repo.UpdateUserActivity(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось обновить активность")
	}

	return subscribed
}

// RecheckSubscription сбрасывает кэш и проверяет подписку заново.
func (s *UserService) RecheckSubscription(ctx context.Context, userID int64) bool {
	if s.subscription == nil {
		return true
	}
	s.subscription.Invalidate(ctx, userID)
	subscribed := s.subscription.Check(ctx, userID)
	if err := s.repo.UpdateSubscriptionStatus(ctx, userID, subscribed); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось сохранить статус подписки")
	}
	return subscribed
}

// GetUser возвращает пользователя или nil при любой ошибке хранилища.
func (s *UserService) GetUser(ctx context.Context, userID int64) *models.User {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось прочитать пользователя")
		return nil
	}
	return user
}

func (s *UserService) GetAllUsers(ctx context.Context) []*models.User {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Не удалось прочитать список пользователей")
		return nil
	}
	return users
}

func (s *UserService) UpdateUserActivity(ctx context.Context, userID int64) error {
	return s.repo.UpdateUserActivity(ctx, userID)
}

// ToggleNotifications переключает флаг уведомлений и возвращает новое значение.
func (s *UserService) ToggleNotifications(ctx context.Context, userID int64) bool {
	current, err := s.repo.GetNotificationsStatus(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось прочитать статус уведомлений")
		return true
	}
	if err := s.repo.ToggleNotifications(ctx, userID, !current); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось переключить уведомления")
		return current
	}
	return !current
}

func (s *UserService) NotificationsEnabled(ctx context.Context, userID int64) bool {
	enabled, err := s.repo.GetNotificationsStatus(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось прочитать статус уведомлений")
		return true
	}
	return enabled
}

// GetChangelog возвращает последние записи истории обновлений бота.
func (s *UserService) GetChangelog(ctx context.Context, limit int) []*models.UpdateEntry {
	entries, err := s.repo.GetUpdateHistory(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Не удалось прочитать историю обновлений")
		return nil
	}
	return entries
}

// GetSetting возвращает настройку бота; пустая строка при ошибке.
func (s *UserService) GetSetting(ctx context.Context, key string) string {
	value, err := s.repo.GetBotSetting(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Не удалось прочитать настройку")
		return ""
	}
	return value
}

func (s *UserService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetBotSetting(ctx, key, value)
}

// GetStats возвращает агрегированную статистику; нули при ошибке.
func (s *UserService) GetStats(ctx context.Context) *models.UserStats {
	stats, err := s.repo.GetUserStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Не удалось собрать статистику")
		return &models.UserStats{}
	}
	return stats
}
