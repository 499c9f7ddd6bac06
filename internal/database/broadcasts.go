package database

import (
	"context"
	"time"

	"calcbot/internal/models"
)

// CreateBroadcast добавляет запись журнала рассылок и проставляет ID.
func (db *DB) CreateBroadcast(ctx context.Context, broadcast *models.Broadcast) error {
	query := `INSERT INTO broadcasts (admin_id, message_text, total_users, status, created_at)
              VALUES (?, ?, ?, ?, ?)`
	if broadcast.Status == "" {
		broadcast.Status = models.BroadcastStatusSending
	}
	if broadcast.CreatedAt.IsZero() {
		broadcast.CreatedAt = time.Now()
	}
	return db.withConn(ctx, "create_broadcast", func() error {
		result, err := db.db.ExecContext(ctx, query,
			broadcast.AdminID,
			broadcast.MessageText,
			broadcast.TotalUsers,
			broadcast.Status,
			broadcast.CreatedAt,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		broadcast.ID = id
		return nil
	})
}

func (db *DB) UpdateBroadcastStats(ctx context.Context, id, sentCount, failedCount int64, status string) error {
	query := `UPDATE broadcasts SET sent_count = ?, failed_count = ?, status = ? WHERE id = ?`
	return db.withConn(ctx, "update_broadcast", func() error {
		_, err := db.db.ExecContext(ctx, query, sentCount, failedCount, status, id)
		return err
	})
}

func (db *DB) GetBroadcastHistory(ctx context.Context, limit int) ([]*models.Broadcast, error) {
	query := `SELECT id, admin_id, message_text, total_users, sent_count, failed_count, status, created_at
              FROM broadcasts ORDER BY created_at DESC LIMIT ?`

	var broadcasts []*models.Broadcast
	err := db.withConn(ctx, "get_broadcast_history", func() error {
		rows, err := db.db.QueryContext(ctx, query, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		broadcasts = broadcasts[:0]
		for rows.Next() {
			b := &models.Broadcast{}
			err := rows.Scan(
				&b.ID, &b.AdminID, &b.MessageText, &b.TotalUsers,
				&b.SentCount, &b.FailedCount, &b.Status, &b.CreatedAt,
			)
			if err != nil {
				return err
			}
			broadcasts = append(broadcasts, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return broadcasts, nil
}
