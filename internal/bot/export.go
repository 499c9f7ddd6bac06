package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const usersSheet = "Пользователи"

// exportUsersToExcel выгружает всех пользователей в Excel-файл и
// возвращает путь к нему.
func (b *Bot) exportUsersToExcel(ctx context.Context) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("не удалось создать каталог экспорта: %w", err)
	}

	users := b.userService.GetAllUsers(ctx)

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(usersSheet)
	if err != nil {
		return "", fmt.Errorf("не удалось создать лист: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Telegram ID", "Username", "Имя", "Фамилия", "Подписан",
		"Уведомления", "Вычислений", "Регистрация", "Последняя активность",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(usersSheet, cell, header)
		_ = f.SetCellStyle(usersSheet, cell, cell, headerStyle)
	}

	for i, user := range users {
		row := i + 2
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("A%d", row), user.UserID)
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("B%d", row), user.Username)
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("C%d", row), user.FirstName)
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("D%d", row), user.LastName)
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("E%d", row), boolToYesNo(user.Subscribed))
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("F%d", row), boolToYesNo(user.NotificationsEnabled))
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("G%d", row), user.CalculationsCount)
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("H%d", row), user.CreatedAt.Format("02.01.2006 15:04"))
		_ = f.SetCellValue(usersSheet, fmt.Sprintf("I%d", row), user.LastActivity.Format("02.01.2006 15:04"))
	}

	_ = f.SetColWidth(usersSheet, "A", "A", 15)
	_ = f.SetColWidth(usersSheet, "B", "D", 18)
	_ = f.SetColWidth(usersSheet, "E", "G", 12)
	_ = f.SetColWidth(usersSheet, "H", "I", 20)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("users_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("не удалось сохранить файл: %w", err)
	}

	b.logger.Info().Str("file_path", filePath).Int("users", len(users)).Msg("Users Excel file created")
	return filePath, nil
}

// boolToYesNo преобразует bool в "Да"/"Нет"
func boolToYesNo(b bool) string {
	if b {
		return "Да"
	}
	return "Нет"
}
