package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// SaveBroadcastPreview stores a pending broadcast message for the admin,
// replacing any prior preview. Confirmation happens in a later request, so
// the text has to survive a process restart.
func (s *Storage) SaveBroadcastPreview(ctx context.Context, adminID int64, message string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO broadcast_previews (admin_id, message, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (admin_id) DO UPDATE
		SET message = EXCLUDED.message, created_at = NOW()`,
		adminID, message,
	)
	if err != nil {
		return fmt.Errorf("failed to save broadcast preview: %w", err)
	}
	return nil
}

// TakeBroadcastPreview removes and returns the admin's pending preview.
// Previews older than ttl count as expired and are discarded.
func (s *Storage) TakeBroadcastPreview(ctx context.Context, adminID int64, ttl time.Duration) (string, error) {
	var (
		message   string
		createdAt time.Time
	)
	err := s.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, `
			DELETE FROM broadcast_previews
			WHERE admin_id = $1
			RETURNING message, created_at`,
			adminID,
		)
		if err := row.Scan(&message, &createdAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrBroadcastPreviewNotFound
			}
			return fmt.Errorf("failed to take broadcast preview: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if ttl > 0 && time.Since(createdAt) > ttl {
		return "", domain.ErrBroadcastPreviewNotFound
	}
	return message, nil
}
