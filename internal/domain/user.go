package domain

import "time"

// User is an account identified externally by an opaque messenger id.
// Balance is a cached projection of the user's ledger entries and must equal
// their sum at every commit boundary.
type User struct {
	ID         int64     `db:"id"`
	ExternalID int64     `db:"external_id"`
	Username   *string   `db:"username"`
	FullName   *string   `db:"full_name"`
	IsBanned   bool      `db:"is_banned"`
	IsActive   bool      `db:"is_active"`
	Balance    int64     `db:"balance"`
	CreatedAt  time.Time `db:"created_at"`
}

// LedgerEntry is one append-only balance movement. Entries are never mutated
// or deleted.
type LedgerEntry struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Amount    int64     `db:"amount"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

// Ledger reason tags.
const (
	ReasonJobStart  = "job_start"
	ReasonTopUp     = "topup"
	ReasonAdminGive = "admin_give"
)
