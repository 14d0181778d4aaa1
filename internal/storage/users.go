package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/internal/ledger"
)

const userColumns = `id, external_id, username, full_name, is_banned, is_active, balance, created_at`

// UserByID fetches a user by internal id.
func (s *Storage) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UserByExternalID fetches a user by the opaque external identity.
func (s *Storage) UserByExternalID(ctx context.Context, externalID int64) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by external id: %w", err)
	}
	return &user, nil
}

// GetOrCreateUser resolves a user by external identity, creating the record
// with a zero balance on first contact. Profile fields are refreshed only
// when the caller supplies them; a NULL never overwrites a stored value.
func (s *Storage) GetOrCreateUser(ctx context.Context, externalID int64, username, fullName *string) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, `
		INSERT INTO users (external_id, username, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_id) DO UPDATE
		SET username = COALESCE(EXCLUDED.username, users.username),
		    full_name = COALESCE(EXCLUDED.full_name, users.full_name)
		RETURNING `+userColumns,
		externalID, username, fullName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}
	return &user, nil
}

// Credit adds funds to a user's balance through the ledger primitives.
func (s *Storage) Credit(ctx context.Context, userID int64, amount int64, reason string) error {
	err := s.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		return ledger.Credit(ctx, tx, userID, amount, reason)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Balance credited",
		slog.Int64("user_id", userID),
		slog.Int64("amount", amount),
		slog.String("reason", reason),
	)
	return nil
}

// LedgerSum returns the sum of a user's ledger entries. Used by diagnostics
// to verify the cached balance projection.
func (s *Storage) LedgerSum(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return sum, nil
}

// SetBanned flips the banned flag for the user with the given external id.
func (s *Storage) SetBanned(ctx context.Context, externalID int64, banned bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_banned = $1 WHERE external_id = $2`, banned, externalID)
	if err != nil {
		return fmt.Errorf("failed to update banned flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read banned update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// DeactivateUser clears the active flag; delivery and broadcasts skip
// inactive users.
func (s *Storage) DeactivateUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = FALSE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// ListActiveUsers returns every user still eligible for outbound messages.
func (s *Storage) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return users, nil
}
