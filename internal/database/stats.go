package database

import (
	"context"
	"fmt"

	"calcbot/internal/models"
)

// GetUserStats собирает агрегированную статистику для админ-панели.
func (db *DB) GetUserStats(ctx context.Context) (*models.UserStats, error) {
	stats := &models.UserStats{}
	err := db.withConn(ctx, "get_user_stats", func() error {
		if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE subscribed = 1`).Scan(&stats.SubscribedUsers); err != nil {
			return fmt.Errorf("count subscribed: %w", err)
		}
		if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calculator_sessions`).Scan(&stats.ActiveSessions); err != nil {
			return fmt.Errorf("count sessions: %w", err)
		}
		if err := db.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE last_activity > datetime('now', '-7 days')`,
		).Scan(&stats.ActiveWeek); err != nil {
			return fmt.Errorf("count active week: %w", err)
		}
		if err := db.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(calculations_count), 0) FROM users`,
		).Scan(&stats.TotalCalculations); err != nil {
			return fmt.Errorf("sum calculations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CleanupOldData удаляет сессии и историю вычислений старше N дней.
// При блокировке возвращает ErrBusy: очистка оппортунистическая,
// вызывающий может спокойно пропустить цикл.
func (db *DB) CleanupOldData(ctx context.Context, days int) error {
	cutoff := fmt.Sprintf("-%d days", days)

	var sessionsDeleted, historyDeleted int64
	err := db.withConn(ctx, "cleanup_old_data", func() error {
		res, err := db.db.ExecContext(ctx,
			`DELETE FROM calculator_sessions WHERE last_activity < datetime('now', ?)`, cutoff)
		if err != nil {
			return err
		}
		sessionsDeleted, _ = res.RowsAffected()

		res, err = db.db.ExecContext(ctx,
			`DELETE FROM calculation_history WHERE calculation_date < datetime('now', ?)`, cutoff)
		if err != nil {
			return err
		}
		historyDeleted, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}

	if sessionsDeleted > 0 || historyDeleted > 0 {
		db.logger.Info().
			Int64("sessions", sessionsDeleted).
			Int64("history", historyDeleted).
			Msg("Очищены устаревшие данные")
	}
	return nil
}
