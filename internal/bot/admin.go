package bot

import (
	"context"
	"fmt"
	"strings"

	"calcbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleAdminCallback обрабатывает callback'и админ-панели. Возвращает
// true, если данные относились к админским командам.
func (b *Bot) handleAdminCallback(ctx context.Context, update tgbotapi.Update) bool {
	callback := update.CallbackQuery
	chatID := callback.Message.Chat.ID
	adminID := callback.From.ID

	switch callback.Data {
	case "admin_stats":
		b.handleAdminStats(ctx, chatID)

	case "admin_export":
		b.handleAdminExport(ctx, chatID)

	case "admin_users":
		b.handleAdminUsers(ctx, chatID)

	case "admin_broadcast_subs":
		b.startBroadcastPrompt(chatID, adminID, true)

	case "admin_broadcast_all":
		b.startBroadcastPrompt(chatID, adminID, false)

	case "admin_history":
		b.handleAdminHistory(ctx, chatID)

	case "broadcast_confirm":
		b.handleBroadcastConfirm(chatID, adminID)

	case "broadcast_cancel":
		b.handleBroadcastCancel(chatID, adminID)

	default:
		return false
	}
	return true
}

func (b *Bot) handleAdminStats(ctx context.Context, chatID int64) {
	stats := b.userService.GetStats(ctx)

	if b.metrics != nil {
		b.metrics.UsersTotal.Set(float64(stats.TotalUsers))
	}

	var sb strings.Builder
	sb.WriteString("📊 *Статистика бота*\n\n")
	sb.WriteString(fmt.Sprintf("Пользователей: %d\n", stats.TotalUsers))
	sb.WriteString(fmt.Sprintf("Подписчиков: %d\n", stats.SubscribedUsers))
	sb.WriteString(fmt.Sprintf("Активны за неделю: %d\n", stats.ActiveWeek))
	sb.WriteString(fmt.Sprintf("Открытых сессий калькулятора: %d\n", stats.ActiveSessions))
	sb.WriteString(fmt.Sprintf("Всего вычислений: %d", stats.TotalCalculations))

	if _, err := b.tgService.SendMarkdown(chatID, sb.String()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить статистику")
	}
}

// handleAdminUsers показывает короткий список последних пользователей.
// Полная выгрузка доступна через экспорт в Excel.
func (b *Bot) handleAdminUsers(ctx context.Context, chatID int64) {
	users := b.userService.GetAllUsers(ctx)
	if len(users) == 0 {
		b.sendMessage(chatID, "Пользователей пока нет.")
		return
	}

	const maxListed = 20

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👥 *Пользователи* (%d)\n\n", len(users)))
	for i, user := range users {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("\n...и еще %d, полный список в экспорте.", len(users)-maxListed))
			break
		}
		mark := "❌"
		if user.Subscribed {
			mark = "✅"
		}
		name := user.DisplayName()
		if user.Username != "" {
			name += " (@" + user.Username + ")"
		}
		sb.WriteString(fmt.Sprintf("%s %s, вычислений: %d\n", mark, name, user.CalculationsCount))
	}

	if _, err := b.tgService.SendMarkdown(chatID, sb.String()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить список пользователей")
	}
}

func (b *Bot) handleAdminExport(ctx context.Context, chatID int64) {
	b.sendMessage(chatID, "📤 Готовлю выгрузку пользователей...")

	filePath, err := b.exportUsersToExcel(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Не удалось выгрузить пользователей в Excel")
		b.sendMessage(chatID, "❌ Не удалось подготовить файл экспорта.")
		return
	}

	if err := b.tgService.SendDocument(chatID, filePath); err != nil {
		b.logger.Error().Err(err).Str("file_path", filePath).Msg("Не удалось отправить файл экспорта")
		b.sendMessage(chatID, "❌ Файл подготовлен, но отправить его не удалось.")
	}
}

func (b *Bot) handleAdminHistory(ctx context.Context, chatID int64) {
	history := b.broadcastService.History(ctx, 10)
	if len(history) == 0 {
		b.sendMessage(chatID, "Рассылок еще не было.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🗂 *История рассылок*\n\n")
	for _, item := range history {
		sb.WriteString(fmt.Sprintf("#%d %s %s\n", item.ID, broadcastStatusIcon(item.Status), item.CreatedAt.Format("02.01.2006 15:04")))
		sb.WriteString(fmt.Sprintf("Доставлено %d из %d, ошибок %d\n\n", item.SentCount, item.TotalUsers, item.FailedCount))
	}

	if _, err := b.tgService.SendMarkdown(chatID, sb.String()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить историю рассылок")
	}
}

func broadcastStatusIcon(status string) string {
	switch status {
	case models.BroadcastStatusCompleted:
		return "✅"
	case models.BroadcastStatusFailed:
		return "❌"
	default:
		return "⏳"
	}
}
