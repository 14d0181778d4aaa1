package storage

import (
	"context"
	"fmt"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// ListVoices returns the active speech voices in display order.
func (s *Storage) ListVoices(ctx context.Context) ([]domain.Voice, error) {
	var voices []domain.Voice
	err := s.db.SelectContext(ctx, &voices, `
		SELECT id, code, title, is_active
		FROM voices
		WHERE is_active = TRUE
		ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return voices, nil
}
