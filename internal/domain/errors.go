package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be resolved by internal
	// or external identity.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserBanned is returned when a banned user attempts to create work.
	ErrUserBanned = errors.New("user is banned")

	// ErrJobNotFound is returned when a job cannot be found in the database.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotQueued is returned when claiming a job that is not in the
	// queued status (already claimed by another worker, or finished).
	ErrJobNotQueued = errors.New("job is not queued")

	// ErrDraftNotFound is returned when no draft exists for the user/section.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrNoActiveDraft is returned when the user has no draft awaiting input.
	ErrNoActiveDraft = errors.New("no active draft, select a section first")

	// ErrAmbiguousDraft is returned when more than one draft is flagged as
	// awaiting input. Resolution fails closed rather than guessing.
	ErrAmbiguousDraft = errors.New("multiple active drafts, select a section first")

	// ErrDraftNotReady is returned when a draft is submitted before its
	// section-specific readiness predicate holds.
	ErrDraftNotReady = errors.New("draft is missing required fields")

	// ErrPriceNotFound is returned when a price code is missing or inactive.
	// Pricing never silently falls back to zero.
	ErrPriceNotFound = errors.New("price code not found")

	// ErrInvalidPrice is returned for a negative price.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInsufficientBalance is returned when the user's balance does not
	// cover the priced amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrQueueUnavailable is returned after enqueue retries are exhausted.
	// The charge has already been applied at this point; see the dispatcher.
	ErrQueueUnavailable = errors.New("queue unavailable")

	// ErrUnknownSection is returned for an unrecognized section tag.
	ErrUnknownSection = errors.New("unknown section")

	// ErrBroadcastPreviewNotFound is returned when an admin confirms a
	// broadcast without a live preview entry.
	ErrBroadcastPreviewNotFound = errors.New("broadcast preview not found or expired")
)
