package bot

import (
	"context"
	"fmt"
	"time"
)

// pendingBroadcast — заготовка рассылки, которую админ еще не подтвердил.
type pendingBroadcast struct {
	text           string
	onlySubscribed bool
}

// startBroadcastPrompt переводит админа в режим ожидания текста рассылки.
func (b *Bot) startBroadcastPrompt(chatID, adminID int64, onlySubscribed bool) {
	b.pendingBroadcasts.Store(adminID, &pendingBroadcast{onlySubscribed: onlySubscribed})

	audience := "всем пользователям"
	if onlySubscribed {
		audience = "подписчикам"
	}
	b.sendMessage(chatID, fmt.Sprintf("📣 Отправьте текст рассылки (%s) одним сообщением.\n\nДля отмены отправьте /cancel.", audience))
}

// consumeBroadcastText перехватывает сообщение админа, ожидающего
// рассылку. Возвращает true, если сообщение было текстом рассылки и
// дальше обрабатывать его не нужно.
func (b *Bot) consumeBroadcastText(ctx context.Context, chatID, adminID int64, text string) bool {
	value, ok := b.pendingBroadcasts.Load(adminID)
	if !ok {
		return false
	}
	pending := value.(*pendingBroadcast)

	if text == "/cancel" {
		b.pendingBroadcasts.Delete(adminID)
		b.sendMessage(chatID, "Рассылка отменена.")
		return true
	}

	// Повторное сообщение заменяет текст и перерисовывает подтверждение
	pending.text = text

	recipients := len(b.recipientsPreview(ctx, pending.onlySubscribed))
	preview := fmt.Sprintf("📣 *Предпросмотр рассылки*\n\n%s\n\nПолучателей: %d", text, recipients)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, preview, broadcastConfirmKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Не удалось отправить предпросмотр рассылки")
	}
	return true
}

func (b *Bot) recipientsPreview(ctx context.Context, onlySubscribed bool) []int64 {
	users := b.userService.GetAllUsers(ctx)
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		if onlySubscribed && !u.Subscribed {
			continue
		}
		ids = append(ids, u.UserID)
	}
	return ids
}

func (b *Bot) handleBroadcastConfirm(chatID, adminID int64) {
	value, ok := b.pendingBroadcasts.LoadAndDelete(adminID)
	if !ok {
		b.sendMessage(chatID, "Нет рассылки, ожидающей подтверждения.")
		return
	}
	pending := value.(*pendingBroadcast)
	if pending.text == "" {
		b.sendMessage(chatID, "Сначала отправьте текст рассылки.")
		return
	}

	b.sendMessage(chatID, "🚀 Рассылка запущена, по завершении пришлю отчет.")

	// Рассылка может идти долго, не держим обработчик обновления
	go b.runBroadcast(chatID, adminID, pending)
}

func (b *Bot) handleBroadcastCancel(chatID, adminID int64) {
	b.pendingBroadcasts.Delete(adminID)
	b.sendMessage(chatID, "Рассылка отменена.")
}

func (b *Bot) runBroadcast(chatID, adminID int64, pending *pendingBroadcast) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	broadcast, err := b.broadcastService.Run(ctx, adminID, pending.text, pending.onlySubscribed)
	if err != nil {
		b.logger.Error().Err(err).Int64("admin_id", adminID).Msg("Рассылка завершилась с ошибкой")
		b.sendMessage(chatID, "❌ Рассылка не выполнена: "+err.Error())
		return
	}

	if b.metrics != nil {
		b.metrics.BroadcastMessages.WithLabelValues("sent").Add(float64(broadcast.SentCount))
		b.metrics.BroadcastMessages.WithLabelValues("failed").Add(float64(broadcast.FailedCount))
	}

	report := fmt.Sprintf("✅ Рассылка #%d завершена.\n\nПолучателей: %d\nДоставлено: %d\nНе доставлено: %d",
		broadcast.ID, broadcast.TotalUsers, broadcast.SentCount, broadcast.FailedCount)
	b.sendMessage(chatID, report)
}
