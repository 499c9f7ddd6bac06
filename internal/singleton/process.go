package singleton

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	terminateGrace = 2 * time.Second
	settleDelay    = 3 * time.Second
)

// RivalScanner находит и останавливает другие запущенные копии этой же
// программы. Это вспомогательный механизм: гарантию единственности дает
// lock-файл, а не сканирование.
type RivalScanner struct {
	selfPID int32
	pattern string
	logger  *zerolog.Logger
}

func NewRivalScanner(logger *zerolog.Logger) *RivalScanner {
	pattern := ""
	if exe, err := os.Executable(); err == nil {
		pattern = filepath.Base(exe)
	}
	return &RivalScanner{
		selfPID: int32(os.Getpid()),
		pattern: pattern,
		logger:  logger,
	}
}

// TerminateRivals посылает сигнал завершения всем процессам с той же
// командной строкой и ждет фиксированные паузы. Ошибки по отдельным
// процессам игнорируются, скан продолжается.
func (s *RivalScanner) TerminateRivals(ctx context.Context) {
	if s.pattern == "" {
		return
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Не удалось перечислить процессы, пропускаем проверку соперников")
		return
	}

	terminated := 0
	for _, p := range procs {
		if p.Pid == s.selfPID {
			continue
		}

		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil {
			// Процесс мог исчезнуть или недоступен, идем дальше
			continue
		}
		if !matchesCommandLine(cmdline, s.pattern) {
			continue
		}

		s.logger.Warn().
			Int32("pid", p.Pid).
			Str("cmdline", cmdline).
			Msg("Найдена другая копия процесса, посылаем сигнал завершения")

		if err := p.TerminateWithContext(ctx); err != nil {
			s.logger.Warn().Err(err).Int32("pid", p.Pid).Msg("Не удалось завершить процесс")
			continue
		}
		terminated++
	}

	if terminated == 0 {
		return
	}

	s.logger.Info().Int("terminated", terminated).Msg("Ждем завершения процессов-соперников")
	sleepCtx(ctx, terminateGrace)
	sleepCtx(ctx, settleDelay)
}

// matchesCommandLine проверяет, что командная строка запускает ту же программу.
func matchesCommandLine(cmdline, pattern string) bool {
	if cmdline == "" || pattern == "" {
		return false
	}
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return false
	}
	return strings.Contains(filepath.Base(fields[0]), pattern) ||
		(len(fields) > 1 && strings.Contains(fields[1], pattern))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
