package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"calcbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data
	userID := callback.From.ID

	// Отвечаем на callback сразу, чтобы убрать "часики"
	if err := b.tgService.AnswerCallback(callback.ID, ""); err != nil {
		b.logger.Debug().Err(err).Msg("Не удалось ответить на callback")
	}

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	// Команды админ-панели
	if b.isAdmin(userID) && b.handleAdminCallback(ctx, update) {
		return
	}

	// Подписка проверяется и на callback'ах: клавиатура калькулятора
	// остается в чате и после того, как подписка истекла. Исключение
	// только для кнопки перепроверки подписки.
	if data != "check_subscription" && !b.isAdmin(userID) {
		granted := b.userService.CheckUserAccess(ctx, userID, callback.From.UserName, callback.From.FirstName, callback.From.LastName)
		if b.metrics != nil {
			if granted {
				b.metrics.SubscriptionChecks.WithLabelValues("granted").Inc()
			} else {
				b.metrics.SubscriptionChecks.WithLabelValues("denied").Inc()
			}
		}
		if !granted {
			b.answerAlert(callback.ID, "Подпишитесь на канал!")
			b.sendSubscribePrompt(chatID)
			return
		}
	}

	switch {
	case strings.HasPrefix(data, "calc:"):
		key := strings.TrimPrefix(data, "calc:")
		b.handleCalculatorKey(ctx, callback, key)

	case data == "check_subscription":
		b.handleCheckSubscription(ctx, chatID, userID, callback.ID)

	case data == "toggle_notifications":
		enabled := b.userService.ToggleNotifications(ctx, userID)
		if enabled {
			b.answerAlert(callback.ID, "🔔 Уведомления включены")
		} else {
			b.answerAlert(callback.ID, "🔕 Уведомления выключены")
		}

	case data == "refresh_profile":
		// Обновление профиля перепроверяет подписку заново, минуя кэш
		b.userService.RecheckSubscription(ctx, userID)
		b.handleProfile(ctx, chatID, userID)

	case data == "calc_history":
		b.handleCalcHistory(ctx, chatID, userID)
	}
}

// handleCalculatorKey обрабатывает нажатие кнопки калькулятора и
// перерисовывает сообщение с дисплеем.
func (b *Bot) handleCalculatorKey(ctx context.Context, callback *tgbotapi.CallbackQuery, key string) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	display := b.calcService.Press(ctx, userID, key)

	if b.metrics != nil && key == "=" {
		if display.IsError() {
			b.metrics.CalculationsTotal.WithLabelValues("error").Inc()
		} else if display.Kind == models.DisplayValue {
			b.metrics.CalculationsTotal.WithLabelValues("success").Inc()
		}
	}

	keyboard := calculatorKeyboard()
	if _, err := b.tgService.EditMessage(chatID, messageID, renderCalculator(display), &keyboard); err != nil {
		// Telegram отвечает 400, если текст не изменился, это не ошибка
		b.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("Калькулятор не перерисован")
	}

	// Ошибка висит на дисплее секунду, потом калькулятор очищается
	if display.IsError() {
		sleepCtx(ctx, time.Second)
		if _, err := b.tgService.EditMessage(chatID, messageID, renderCalculator(models.EmptyDisplay()), &keyboard); err != nil {
			b.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("Калькулятор не перерисован")
		}
	}
}

func (b *Bot) handleCheckSubscription(ctx context.Context, chatID, userID int64, callbackID string) {
	if b.userService.RecheckSubscription(ctx, userID) {
		b.answerAlert(callbackID, "✅ Подписка подтверждена!")
		if _, err := b.tgService.SendWithKeyboard(chatID, "Добро пожаловать! Все функции открыты.", mainKeyboard(b.isAdmin(userID))); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить меню")
		}
		return
	}
	b.answerAlert(callbackID, "❌ Подписка не найдена. Подпишитесь на канал и попробуйте снова.")
}

func (b *Bot) handleCalcHistory(ctx context.Context, chatID, userID int64) {
	records := b.calcService.History(ctx, userID, b.config.Bot.HistoryLimit)
	if len(records) == 0 {
		b.sendMessage(chatID, "История вычислений пуста.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🧮 *Последние вычисления:*\n\n")
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("`%s = %s` _(%s)_\n", r.Expression, r.Result, r.Date.Format("02.01 15:04")))
	}

	if _, err := b.tgService.SendMarkdown(chatID, sb.String()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить историю")
	}
}

func (b *Bot) answerAlert(callbackID, text string) {
	if err := b.tgService.AnswerCallbackAlert(callbackID, text); err != nil {
		b.logger.Debug().Err(err).Msg("Не удалось показать уведомление callback")
	}
}
