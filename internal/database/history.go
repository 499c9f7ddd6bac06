package database

import (
	"context"
	"time"

	"calcbot/internal/models"
)

// AddCalculationRecord добавляет запись журнала вычислений.
func (db *DB) AddCalculationRecord(ctx context.Context, userID int64, expression, result string) error {
	query := `INSERT INTO calculation_history (user_id, expression, result, calculation_date)
              VALUES (?, ?, ?, ?)`
	return db.withConn(ctx, "add_calculation", func() error {
		_, err := db.db.ExecContext(ctx, query, userID, expression, result, time.Now())
		return err
	})
}

func (db *DB) GetUserCalculationHistory(ctx context.Context, userID int64, limit int) ([]*models.CalculationRecord, error) {
	query := `SELECT id, user_id, expression, result, calculation_date
              FROM calculation_history
              WHERE user_id = ?
              ORDER BY calculation_date DESC LIMIT ?`

	var records []*models.CalculationRecord
	err := db.withConn(ctx, "get_calculation_history", func() error {
		rows, err := db.db.QueryContext(ctx, query, userID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			r := &models.CalculationRecord{}
			if err := rows.Scan(&r.ID, &r.UserID, &r.Expression, &r.Result, &r.Date); err != nil {
				return err
			}
			records = append(records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// AddUpdateEntry добавляет запись истории обновлений бота.
func (db *DB) AddUpdateEntry(ctx context.Context, version, changesText string) error {
	query := `INSERT INTO update_history (version, changes_text, release_date)
              VALUES (?, ?, ?)`
	return db.withConn(ctx, "add_update_entry", func() error {
		_, err := db.db.ExecContext(ctx, query, version, changesText, time.Now())
		return err
	})
}

func (db *DB) GetUpdateHistory(ctx context.Context, limit int) ([]*models.UpdateEntry, error) {
	query := `SELECT id, version, changes_text, release_date
              FROM update_history ORDER BY release_date DESC LIMIT ?`

	var entries []*models.UpdateEntry
	err := db.withConn(ctx, "get_update_history", func() error {
		rows, err := db.db.QueryContext(ctx, query, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			e := &models.UpdateEntry{}
			if err := rows.Scan(&e.ID, &e.Version, &e.ChangesText, &e.ReleaseDate); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
