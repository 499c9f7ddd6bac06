package singleton

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

// ErrAlreadyRunning означает, что lock-файл существует и запуск запрещен.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock — файловый маркер единственного экземпляра. Наличие файла блокирует
// запуск второго процесса; снимается оператором вручную, если процесс
// завершился аварийно и не убрал файл за собой.
type Lock struct {
	path   string
	logger *zerolog.Logger
}

// Acquire создает lock-файл с PID текущего процесса. Если файл уже есть,
// запуск прерывается: маркер никогда не перезаписывается молча.
func Acquire(path string, logger *zerolog.Logger) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: lock-файл %s существует, удалите его вручную, если предыдущий процесс мертв", ErrAlreadyRunning, path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to check lock file: %w", err)
	}

	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	logger.Info().Str("path", path).Int("pid", pid).Msg("Lock-файл создан")
	return &Lock{path: path, logger: logger}, nil
}

// Release удаляет lock-файл. Вызывается безусловно при завершении.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		l.logger.Error().Err(err).Str("path", l.path).Msg("Не удалось удалить lock-файл")
		return
	}
	l.logger.Info().Str("path", l.path).Msg("Lock-файл удален")
}
