package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

const draftColumns = `id, user_id, section, params, created_at, updated_at`

// GetOrCreateDraft returns the user's draft for the section, creating an
// empty one if none exists. The (user_id, section) unique constraint keeps
// concurrent creations down to a single row.
func (s *Storage) GetOrCreateDraft(ctx context.Context, userID int64, section domain.Section) (*domain.Draft, error) {
	var draft domain.Draft
	err := s.db.GetContext(ctx, &draft, `
		INSERT INTO drafts (user_id, section, params)
		VALUES ($1, $2, '{}'::jsonb)
		ON CONFLICT (user_id, section) DO UPDATE SET section = EXCLUDED.section
		RETURNING `+draftColumns,
		userID, section,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create draft: %w", err)
	}
	return &draft, nil
}

// DraftBySection fetches the user's draft for one section.
func (s *Storage) DraftBySection(ctx context.Context, userID int64, section domain.Section) (*domain.Draft, error) {
	var draft domain.Draft
	err := s.db.GetContext(ctx, &draft,
		`SELECT `+draftColumns+` FROM drafts WHERE user_id = $1 AND section = $2`,
		userID, section)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return &draft, nil
}

// ListDrafts returns all of the user's drafts.
func (s *Storage) ListDrafts(ctx context.Context, userID int64) ([]domain.Draft, error) {
	var drafts []domain.Draft
	err := s.db.SelectContext(ctx, &drafts,
		`SELECT `+draftColumns+` FROM drafts WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

// UpdateDraftParams persists the merged parameter set.
func (s *Storage) UpdateDraftParams(ctx context.Context, draftID int64, params domain.DraftParams) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE drafts SET params = $1, updated_at = NOW() WHERE id = $2`,
		params, draftID)
	if err != nil {
		return fmt.Errorf("failed to update draft params: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read draft update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrDraftNotFound
	}
	return nil
}

// SelectSection marks the section's draft as awaiting input and clears the
// flag on the user's other drafts, so at most one draft is active at a time.
func (s *Storage) SelectSection(ctx context.Context, userID int64, section domain.Section) (*domain.Draft, error) {
	var draft domain.Draft
	err := s.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE drafts
			SET params = jsonb_set(params, '{awaiting_input}', 'false'),
			    updated_at = NOW()
			WHERE user_id = $1 AND section <> $2`,
			userID, section)
		if err != nil {
			return fmt.Errorf("failed to deactivate other drafts: %w", err)
		}

		awaiting := section.Generating()
		err = tx.GetContext(ctx, &draft, `
			INSERT INTO drafts (user_id, section, params)
			VALUES ($1, $2, jsonb_build_object('awaiting_input', $3::boolean))
			ON CONFLICT (user_id, section) DO UPDATE
			SET params = jsonb_set(drafts.params, '{awaiting_input}', to_jsonb($3::boolean)),
			    updated_at = NOW()
			RETURNING `+draftColumns,
			userID, section, awaiting)
		if err != nil {
			return fmt.Errorf("failed to select section draft: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// DeleteDraft removes a draft. Called exactly once, when the draft's job has
// been created and enqueued.
func (s *Storage) DeleteDraft(ctx context.Context, draftID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = $1`, draftID)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
