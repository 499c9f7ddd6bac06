package bot

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"calcbot/internal/config"
	"calcbot/internal/domain"
	"calcbot/internal/events"
	"calcbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tgService        domain.TelegramService
	config           *config.Config
	userService      *service.UserService
	calcService      *service.CalculatorService
	broadcastService *service.BroadcastService
	eventBus         domain.EventPublisher
	metrics          *Metrics
	logger           *zerolog.Logger

	// Ожидающие подтверждения рассылки по админам
	pendingBroadcasts sync.Map

	offset int
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	userService *service.UserService,
	calcService *service.CalculatorService,
	broadcastService *service.BroadcastService,
	eventBus domain.EventPublisher,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if eventBus == nil {
		eventBus = events.NewEventBus()
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:        tgService,
		config:           config,
		userService:      userService,
		calcService:      calcService,
		broadcastService: broadcastService,
		eventBus:         eventBus,
		metrics:          metrics,
		logger:           logger,
	}, nil
}

// Run крутит цикл опроса getUpdates до отмены контекста. Возвращает
// ErrConflict, если токен забрал другой процесс: решение о перезапуске
// принимает супервизор в main.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Авторизован в Telegram")

	u := tgbotapi.NewUpdate(b.offset)
	u.Timeout = 30

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return ctx.Err()
		default:
		}

		updates, err := b.tgService.GetUpdates(u)
		if err != nil {
			if isConflictError(err) {
				b.logger.Error().Err(err).Msg("Конфликт getUpdates: запущена другая копия бота")
				return fmt.Errorf("getUpdates: %w", ErrConflict)
			}
			if wait, ok := retryAfter(err); ok {
				b.logger.Warn().Dur("retry_after", wait).Msg("Превышен лимит запросов getUpdates")
				sleepCtx(ctx, wait)
				continue
			}
			b.logger.Error().Err(err).Msg("Ошибка получения обновлений")
			sleepCtx(ctx, 3*time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= u.Offset {
				u.Offset = update.UpdateID + 1
				b.offset = u.Offset
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdatesProcessed.Inc()
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	// Контекст на обработку каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID int64
		if update.Message != nil && update.Message.From != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil {
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		b.trackActivity(userID)

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		if update.Message == nil {
			return
		}

		b.handleMessage(updateCtx, update)
	})
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.userService.IsAdmin(userID)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить сообщение")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
