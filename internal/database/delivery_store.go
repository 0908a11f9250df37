package database

import (
	"context"
	"fmt"
	"time"
)

// DeliveryStore persists the plugin's send history.
type DeliveryStore struct {
	db *DB
}

// NewDeliveryStore creates a new DeliveryStore.
func NewDeliveryStore(db *DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

// RecordDelivery inserts a delivery row and returns its ID.
func (s *DeliveryStore) RecordDelivery(ctx context.Context, d *Delivery) (int64, error) {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO deliveries (platform, conversation_id, emoticon, mode, target, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("RecordDelivery prepare: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, d.Platform, d.ConversationID, d.Emoticon, d.Mode, d.Target, d.Status, d.Error)
	if err != nil {
		return 0, fmt.Errorf("RecordDelivery exec: %w", err)
	}
	return res.LastInsertId()
}

// ListRecent returns up to limit deliveries, newest first.
func (s *DeliveryStore) ListRecent(ctx context.Context, limit int) ([]*Delivery, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, platform, conversation_id, emoticon, mode, target, status, error, created_at
		FROM deliveries ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecent query: %w", err)
	}
	defer rows.Close()

	var deliveries []*Delivery
	for rows.Next() {
		d := &Delivery{}
		if err := rows.Scan(&d.ID, &d.Platform, &d.ConversationID, &d.Emoticon, &d.Mode, &d.Target, &d.Status, &d.Error, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListRecent scan: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecent rows error: %w", err)
	}
	return deliveries, nil
}

// CountByEmoticon aggregates successfully sent images per emoticon, most used first.
func (s *DeliveryStore) CountByEmoticon(ctx context.Context) ([]EmoticonCount, error) {
	query := `SELECT emoticon, COUNT(*) FROM deliveries
		WHERE emoticon IS NOT NULL AND status = ?
		GROUP BY emoticon ORDER BY COUNT(*) DESC, emoticon`
	rows, err := s.db.QueryContext(ctx, query, StatusSent)
	if err != nil {
		return nil, fmt.Errorf("CountByEmoticon query: %w", err)
	}
	defer rows.Close()

	var counts []EmoticonCount
	for rows.Next() {
		var c EmoticonCount
		if err := rows.Scan(&c.Emoticon, &c.Count); err != nil {
			return nil, fmt.Errorf("CountByEmoticon scan: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CountByEmoticon rows error: %w", err)
	}
	return counts, nil
}

// PruneBefore deletes deliveries created before cutoff and returns how many were removed.
func (s *DeliveryStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deliveries WHERE created_at < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("PruneBefore exec: %w", err)
	}
	return res.RowsAffected()
}
