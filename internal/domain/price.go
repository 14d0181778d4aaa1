package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceEntry is one row of the price table, keyed by code. Cost is internal,
// Price is what the user is billed. Read-mostly.
type PriceEntry struct {
	ID        int64           `db:"id"`
	Code      string          `db:"code"`
	Title     string          `db:"title"`
	Cost      decimal.Decimal `db:"cost"`
	Price     decimal.Decimal `db:"price"`
	IsActive  bool            `db:"is_active"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Voice is a reference row for the speech-synthesis audio mode. No lifecycle.
type Voice struct {
	ID       int64  `db:"id"`
	Code     string `db:"code"`
	Title    string `db:"title"`
	IsActive bool   `db:"is_active"`
}
