package bot

import (
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrConflict — другой процесс уже забрал getUpdates с этим токеном.
// Обрабатывается супервизором: пауза и перезапуск цикла.
var ErrConflict = errors.New("conflicting getUpdates request")

// isConflictError распознает 409 Conflict от Telegram.
func isConflictError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 409
	}
	return false
}

// retryAfter возвращает паузу, запрошенную сервером при 429,
// и false для всех остальных ошибок.
func retryAfter(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		wait := time.Duration(apiErr.RetryAfter) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		return wait, true
	}
	return 0, false
}
