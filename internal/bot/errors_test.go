package bot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestIsConflictError(t *testing.T) {
	conflict := &tgbotapi.Error{Code: 409, Message: "Conflict: terminated by other getUpdates request"}

	assert.True(t, isConflictError(conflict))
	assert.True(t, isConflictError(fmt.Errorf("getUpdates: %w", conflict)))

	assert.False(t, isConflictError(&tgbotapi.Error{Code: 429}))
	assert.False(t, isConflictError(errors.New("connection refused")))
	assert.False(t, isConflictError(nil))
}

func TestRetryAfter(t *testing.T) {
	wait, ok := retryAfter(&tgbotapi.Error{Code: 429, ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 5}})
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, wait)

	// Сервер не прислал retry_after, ждем минимум секунду
	wait, ok = retryAfter(&tgbotapi.Error{Code: 429})
	assert.True(t, ok)
	assert.Equal(t, time.Second, wait)

	_, ok = retryAfter(&tgbotapi.Error{Code: 409})
	assert.False(t, ok)

	_, ok = retryAfter(errors.New("timeout"))
	assert.False(t, ok)
}
