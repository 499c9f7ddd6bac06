package bot

import (
	"context"
	"time"
)

// withRecovery не дает панике одного обновления уронить цикл опроса.
func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			if b.metrics != nil {
				b.metrics.ErrorsTotal.Inc()
			}
			b.logger.Error().Interface("panic", r).Msg("Паника при обработке обновления")
		}
	}()
	handler()
}

// trackActivity отмечает активность пользователя в фоне, чтобы не
// задерживать обработку обновления записью в базу.
func (b *Bot) trackActivity(userID int64) {
	if userID == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.userService.UpdateUserActivity(ctx, userID); err != nil {
			b.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось обновить активность пользователя")
		}
	}()
}
