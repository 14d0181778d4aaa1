package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// PriceTable loads the active price entries for the given codes, keyed by
// code. Codes with no active entry are simply absent from the map.
func (s *Storage) PriceTable(ctx context.Context, codes ...string) (map[string]domain.PriceEntry, error) {
	var rows []struct {
		Code      string          `db:"code"`
		Title     string          `db:"title"`
		Cost      decimal.Decimal `db:"cost"`
		Price     decimal.Decimal `db:"price"`
		IsActive  bool            `db:"is_active"`
		UpdatedAt time.Time       `db:"updated_at"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT code, title, cost, price, is_active, updated_at
		FROM prices
		WHERE is_active = TRUE AND code = ANY($1)`,
		pq.Array(codes),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load price table: %w", err)
	}

	table := make(map[string]domain.PriceEntry, len(rows))
	for _, r := range rows {
		table[r.Code] = domain.PriceEntry{
			Code:      r.Code,
			Title:     r.Title,
			Cost:      r.Cost,
			Price:     r.Price,
			IsActive:  r.IsActive,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return table, nil
}

// ListPrices returns every price entry, active or not, ordered by code.
func (s *Storage) ListPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	var entries []domain.PriceEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, code, title, cost, price, is_active, updated_at
		FROM prices
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	return entries, nil
}

// SetPrice upserts a price entry.
func (s *Storage) SetPrice(ctx context.Context, entry domain.PriceEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prices (code, title, cost, price, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (code) DO UPDATE
		SET title = EXCLUDED.title,
		    cost = EXCLUDED.cost,
		    price = EXCLUDED.price,
		    is_active = EXCLUDED.is_active,
		    updated_at = NOW()`,
		entry.Code, entry.Title, entry.Cost, entry.Price, entry.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to set price: %w", err)
	}
	return nil
}
