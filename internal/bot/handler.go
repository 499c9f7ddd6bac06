package bot

import (
	"context"
	"fmt"
	"strings"

	"calcbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const settingWelcomeText = "welcome_text"

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := msg.Text
	l := zerolog.Ctx(ctx)

	l.Debug().
		Int64("user_id", userID).
		Str("username", msg.From.UserName).
		Str("text", text).
		Msg("Handling message")

	// Админ в ожидании текста рассылки
	if b.isAdmin(userID) && b.consumeBroadcastText(ctx, chatID, userID, text) {
		return
	}

	granted := b.userService.CheckUserAccess(ctx, userID, msg.From.UserName, msg.From.FirstName, msg.From.LastName)
	if b.metrics != nil {
		if granted {
			b.metrics.SubscriptionChecks.WithLabelValues("granted").Inc()
		} else {
			b.metrics.SubscriptionChecks.WithLabelValues("denied").Inc()
		}
	}
	if !granted && !b.isAdmin(userID) {
		b.sendSubscribePrompt(chatID)
		return
	}

	switch {
	case text == "/start":
		b.handleStart(ctx, chatID, userID, msg.From.FirstName)

	case text == "/help" || text == ButtonHelp:
		b.handleHelp(ctx, chatID)

	case text == "/calc" || text == ButtonCalculator:
		b.sendCalculator(ctx, chatID, userID)

	case text == "/profile" || text == ButtonProfile:
		b.handleProfile(ctx, chatID, userID)

	case text == ButtonSubscribe:
		b.handleSubscriptionInfo(ctx, chatID, userID)

	case (text == "/admin" || text == ButtonAdmin) && b.isAdmin(userID):
		b.handleAdminPanel(chatID)

	default:
		b.sendMessage(chatID, "Я понимаю только кнопки и команды. Нажмите «"+ButtonCalculator+"» или /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64, firstName string) {
	welcome := b.userService.GetSetting(ctx, settingWelcomeText)
	if welcome == "" {
		welcome = fmt.Sprintf("Привет, %s! 👋\n\nЭто бот-калькулятор. Нажмите «%s», чтобы начать считать.", firstName, ButtonCalculator)
	}

	if _, err := b.tgService.SendWithKeyboard(chatID, welcome, mainKeyboard(b.isAdmin(userID))); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить приветствие")
	}
}

func (b *Bot) handleHelp(ctx context.Context, chatID int64) {
	var sb strings.Builder
	sb.WriteString("ℹ️ *Справка*\n\n")
	sb.WriteString("🧮 Калькулятор — считайте прямо в чате, кнопки под сообщением.\n")
	sb.WriteString("👤 Профиль — ваша статистика и настройки уведомлений.\n")
	sb.WriteString("🔔 Подписка — доступ к боту открыт подписчикам канала.\n\n")
	sb.WriteString("Команды: /start, /calc, /profile, /help")

	if entries := b.userService.GetChangelog(ctx, models.DefaultHistoryLimit); len(entries) > 0 {
		sb.WriteString("\n\n📰 *Последние обновления:*\n")
		for _, e := range entries {
			sb.WriteString(fmt.Sprintf("• %s — %s\n", e.Version, e.ChangesText))
		}
	}

	if _, err := b.tgService.SendMarkdown(chatID, sb.String()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить справку")
	}
}

// sendCalculator рисует калькулятор и запоминает сообщение, чтобы дальше
// редактировать его по нажатиям кнопок.
func (b *Bot) sendCalculator(ctx context.Context, chatID, userID int64) {
	session := b.calcService.Session(ctx, userID)
	display := models.ValueDisplay(session.Value)

	sent, err := b.tgService.SendWithInlineKeyboard(chatID, renderCalculator(display), calculatorKeyboard())
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить калькулятор")
		return
	}
	b.calcService.SaveMessageID(ctx, userID, sent.MessageID)
}

func renderCalculator(display models.Display) string {
	return "🧮 " + display.Render()
}

func (b *Bot) handleProfile(ctx context.Context, chatID, userID int64) {
	user := b.userService.GetUser(ctx, userID)
	if user == nil {
		b.sendMessage(chatID, "Профиль пока пуст. Нажмите /start.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 *%s*\n\n", user.DisplayName()))
	if user.Subscribed {
		sb.WriteString("Подписка: ✅ активна\n")
	} else {
		sb.WriteString("Подписка: ❌ не найдена\n")
	}
	if user.NotificationsEnabled {
		sb.WriteString("Уведомления: 🔔 включены\n")
	} else {
		sb.WriteString("Уведомления: 🔕 выключены\n")
	}
	sb.WriteString(fmt.Sprintf("Вычислений: %d\n", user.CalculationsCount))
	sb.WriteString(fmt.Sprintf("С нами с: %s", user.CreatedAt.Format("02.01.2006")))

	if _, err := b.tgService.SendWithInlineKeyboard(chatID, sb.String(), profileKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить профиль")
	}
}

func (b *Bot) handleSubscriptionInfo(ctx context.Context, chatID, userID int64) {
	user := b.userService.GetUser(ctx, userID)
	if user != nil && user.Subscribed {
		b.sendMessage(chatID, "✅ Подписка активна, все функции доступны.")
		return
	}
	b.sendSubscribePrompt(chatID)
}

func (b *Bot) sendSubscribePrompt(chatID int64) {
	text := fmt.Sprintf("🔒 Доступ к боту открыт подписчикам канала %s.\n\nПодпишитесь и нажмите «✅ Я подписался».", b.config.Telegram.Channel)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, subscribeKeyboard(b.config.Telegram.Channel)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить приглашение подписаться")
	}
}

func (b *Bot) handleAdminPanel(chatID int64) {
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, "⚙️ *Админ-панель*", adminKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить админ-панель")
	}
}
