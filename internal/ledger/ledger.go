// Package ledger holds the only two primitives allowed to move money. Every
// balance change (job charge, top-up, admin grant) appends one signed ledger
// entry and adjusts the cached balance inside the caller's transaction,
// keeping user.balance equal to the sum of the user's entries at every
// commit boundary.
package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// Credit adds amount to the user's balance and records the movement.
func Credit(ctx context.Context, tx *sqlx.Tx, userID int64, amount int64, reason string) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must not be negative, got %d", amount)
	}
	return move(ctx, tx, userID, amount, reason)
}

// Debit subtracts amount from the user's balance and records a negative
// movement. The balance guard lives in the same UPDATE as the mutation, so a
// concurrent debit cannot slip between a check and the write.
func Debit(ctx context.Context, tx *sqlx.Tx, userID int64, amount int64, reason string) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must not be negative, got %d", amount)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1`,
		amount, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read debit result: %w", err)
	}
	if affected == 0 {
		return domain.ErrInsufficientBalance
	}

	return appendEntry(ctx, tx, userID, -amount, reason)
}

func move(ctx context.Context, tx *sqlx.Tx, userID int64, amount int64, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id = $2`,
		amount, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read balance adjustment result: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return appendEntry(ctx, tx, userID, amount, reason)
}

func appendEntry(ctx context.Context, tx *sqlx.Tx, userID int64, amount int64, reason string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (user_id, amount, reason) VALUES ($1, $2, $3)`,
		userID, amount, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}
