// Package storage is the single persistence layer for both binaries: users,
// drafts, prices, jobs, ledger entries, voices and broadcast previews. Status
// transitions are guarded UPDATEs, money moves only through internal/ledger,
// and the debit + job insert share one transaction.
package storage

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/genstudio-io/genstudio-be/shared/postgresql"
)

// Storage handles all database operations
type Storage struct {
	client *postgresql.Client
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		client: pg,
		db:     pg.GetDB(),
		logger: logger,
	}
}

// HealthCheck pings the database.
func (s *Storage) HealthCheck(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}
