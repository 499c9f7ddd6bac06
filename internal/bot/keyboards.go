package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	ButtonCalculator = "🧮 Калькулятор"
	ButtonHelp       = "ℹ️ Помощь"
	ButtonSubscribe  = "🔔 Подписка"
	ButtonProfile    = "👤 Профиль"
	ButtonAdmin      = "⚙️ Админ-панель"
)

// mainKeyboard — постоянная клавиатура внизу чата. Админам добавляется
// строка с панелью.
func mainKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonCalculator),
			tgbotapi.NewKeyboardButton(ButtonHelp),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonSubscribe),
			tgbotapi.NewKeyboardButton(ButtonProfile),
		),
	}
	if isAdmin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonAdmin),
		))
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// calculatorKeyboard — инлайн-клавиатура с кнопками калькулятора.
// Каждая кнопка шлет callback вида calc:<клавиша>.
func calculatorKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		calcRow("7", "8", "9", "÷"),
		calcRow("4", "5", "6", "×"),
		calcRow("1", "2", "3", "-"),
		calcRow("0", ",", "=", "+"),
		calcRow("C", "⌫"),
	)
}

func calcRow(keys ...string) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(keys))
	for _, key := range keys {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(key, "calc:"+key))
	}
	return row
}

// subscribeKeyboard ведет в канал и дает перепроверить подписку.
func subscribeKeyboard(channel string) tgbotapi.InlineKeyboardMarkup {
	channelURL := "https://t.me/" + strings.TrimPrefix(channel, "@")
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Перейти в канал", channelURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Я подписался", "check_subscription"),
		),
	)
}

func profileKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔔 Уведомления", "toggle_notifications"),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить", "refresh_profile"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧮 Мои вычисления", "calc_history"),
		),
	)
}

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "admin_stats"),
			tgbotapi.NewInlineKeyboardButtonData("📤 Экспорт", "admin_export"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Пользователи", "admin_users"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📣 Рассылка подписчикам", "admin_broadcast_subs"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 Рассылка всем", "admin_broadcast_all"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗂 История рассылок", "admin_history"),
		),
	)
}

func broadcastConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Отправить", "broadcast_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "broadcast_cancel"),
		),
	)
}
