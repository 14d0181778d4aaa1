// Package dispatcher turns ready drafts into charged, enqueued jobs. It owns
// the ordering of the debit, the job row, and the queue publish, and the
// idempotency guarantees across retried submissions.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/internal/pricing"
)

// enqueueDelays drives the queue publish schedule, one attempt per entry.
// The wait after a failed attempt is its own entry, so the last one is never
// slept; after the final failure the job stays queued and charged.
var enqueueDelays = []time.Duration{
	500 * time.Millisecond,
	1500 * time.Millisecond,
	3 * time.Second,
}

// Store is the persistence surface the dispatcher needs.
type Store interface {
	GetOrCreateUser(ctx context.Context, externalID int64, username, fullName *string) (*domain.User, error)
	DraftBySection(ctx context.Context, userID int64, section domain.Section) (*domain.Draft, error)
	DeleteDraft(ctx context.Context, draftID int64) error
	PriceTable(ctx context.Context, codes ...string) (map[string]domain.PriceEntry, error)
	JobByIdempotencyKey(ctx context.Context, key string) (*domain.Job, error)
	JobByID(ctx context.Context, jobID int64) (*domain.Job, error)
	CreateJobCharged(ctx context.Context, job *domain.Job) (*domain.Job, bool, error)
	SetQueueRef(ctx context.Context, jobID int64, ref string) error
}

// Queue publishes work for the worker service.
type Queue interface {
	EnqueueJob(ctx context.Context, jobID int64) (string, error)
}

// Dispatcher coordinates task creation.
type Dispatcher struct {
	store           Store
	queue           Queue
	logger          *slog.Logger
	maxOutputTokens int

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// New creates a dispatcher. maxOutputTokens is the text output ceiling used
// for pricing.
func New(store Store, queue Queue, maxOutputTokens int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:           store,
		queue:           queue,
		logger:          logger,
		maxOutputTokens: maxOutputTokens,
		sleep:           time.Sleep,
	}
}

// TaskRequest identifies the submission.
type TaskRequest struct {
	ExternalID     int64
	Username       *string
	FullName       *string
	Section        domain.Section
	IdempotencyKey string
}

// CreateTask converts the user's draft in the given section into a charged,
// enqueued job. When the idempotency key matches an existing job, that job is
// returned with created=false and nothing is charged again.
//
// The debit and the job row commit together before the queue publish. If
// every publish attempt fails the job stays queued and the charge stands;
// the caller gets ErrQueueUnavailable alongside the job.
func (d *Dispatcher) CreateTask(ctx context.Context, req TaskRequest) (*domain.Job, bool, error) {
	user, err := d.store.GetOrCreateUser(ctx, req.ExternalID, req.Username, req.FullName)
	if err != nil {
		return nil, false, err
	}
	if user.IsBanned {
		return nil, false, domain.ErrUserBanned
	}

	if req.IdempotencyKey != "" {
		existing, err := d.store.JobByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			d.logger.Info("Task already exists for idempotency key",
				slog.Int64("job_id", existing.ID),
				slog.String("idempotency_key", req.IdempotencyKey),
			)
			return existing, false, nil
		}
		if !errors.Is(err, domain.ErrJobNotFound) {
			return nil, false, err
		}
	}

	draft, err := d.store.DraftBySection(ctx, user.ID, req.Section)
	if err != nil {
		return nil, false, err
	}
	if !draft.Ready() {
		return nil, false, domain.ErrDraftNotReady
	}

	payload, err := domain.BuildRequest(draft)
	if err != nil {
		return nil, false, err
	}

	price, err := d.price(ctx, draft)
	if err != nil {
		return nil, false, err
	}

	job := &domain.Job{
		UserID:  user.ID,
		DraftID: &draft.ID,
		Section: draft.Section,
		Price:   price,
		Payload: payload,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		job.IdempotencyKey = &key
	}

	created, isNew, err := d.store.CreateJobCharged(ctx, job)
	if err != nil {
		return nil, false, err
	}
	if !isNew {
		return created, false, nil
	}

	d.logger.Info("Task created",
		slog.Int64("job_id", created.ID),
		slog.Int64("user_id", user.ID),
		slog.String("section", string(created.Section)),
		slog.Int64("price", created.Price),
	)

	ref, err := d.enqueue(ctx, created.ID)
	if err != nil {
		d.logger.Error("Failed to enqueue job, charge stands",
			slog.Int64("job_id", created.ID),
			slog.Any("error", err),
		)
		return created, true, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	if err := d.store.DeleteDraft(ctx, draft.ID); err != nil {
		d.logger.Error("Failed to delete consumed draft",
			slog.Int64("draft_id", draft.ID),
			slog.Any("error", err),
		)
	}
	if err := d.store.SetQueueRef(ctx, created.ID, ref); err != nil {
		d.logger.Error("Failed to persist queue ref",
			slog.Int64("job_id", created.ID),
			slog.Any("error", err),
		)
	}
	created.QueueRef = &ref

	return created, true, nil
}

// RepeatTask charges and enqueues a fresh job carrying the payload of an
// earlier job. The price is recomputed against the current price table.
func (d *Dispatcher) RepeatTask(ctx context.Context, externalID, jobID int64) (*domain.Job, error) {
	user, err := d.store.GetOrCreateUser(ctx, externalID, nil, nil)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, domain.ErrUserBanned
	}

	prev, err := d.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if prev.UserID != user.ID {
		return nil, domain.ErrJobNotFound
	}

	price, err := d.price(ctx, payloadDraft(prev.Payload))
	if err != nil {
		return nil, err
	}

	job := &domain.Job{
		UserID:  user.ID,
		Section: prev.Section,
		Price:   price,
		Payload: prev.Payload,
	}
	created, _, err := d.store.CreateJobCharged(ctx, job)
	if err != nil {
		return nil, err
	}

	ref, err := d.enqueue(ctx, created.ID)
	if err != nil {
		return created, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}
	if err := d.store.SetQueueRef(ctx, created.ID, ref); err != nil {
		d.logger.Error("Failed to persist queue ref",
			slog.Int64("job_id", created.ID),
			slog.Any("error", err),
		)
	}
	created.QueueRef = &ref
	return created, nil
}

// Quote prices the user's current draft in the section without charging.
func (d *Dispatcher) Quote(ctx context.Context, userID int64, section domain.Section) (int64, error) {
	draft, err := d.store.DraftBySection(ctx, userID, section)
	if err != nil {
		return 0, err
	}
	return d.price(ctx, draft)
}

func (d *Dispatcher) price(ctx context.Context, draft *domain.Draft) (int64, error) {
	codes := pricing.CodesForDraft(draft)
	table, err := d.store.PriceTable(ctx, codes...)
	if err != nil {
		return 0, err
	}
	price, err := pricing.ForDraft(table, draft, d.maxOutputTokens)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidPrice, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("%w: negative price %d", domain.ErrInvalidPrice, price)
	}
	return price, nil
}

func (d *Dispatcher) enqueue(ctx context.Context, jobID int64) (string, error) {
	var lastErr error
	for attempt := 0; attempt < len(enqueueDelays); attempt++ {
		ref, err := d.queue.EnqueueJob(ctx, jobID)
		if err == nil {
			return ref, nil
		}
		lastErr = err
		if attempt == len(enqueueDelays)-1 {
			break
		}
		d.logger.Warn("Enqueue attempt failed, retrying",
			slog.Int64("job_id", jobID),
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_after", enqueueDelays[attempt]),
			slog.Any("error", err),
		)
		d.sleep(enqueueDelays[attempt])
	}
	return "", fmt.Errorf("enqueue failed after %d attempts: %w", len(enqueueDelays), lastErr)
}

// payloadDraft rebuilds a draft-shaped view of a stored payload so the price
// calculation can run on repeated jobs.
func payloadDraft(p domain.RequestPayload) *domain.Draft {
	d := &domain.Draft{Section: p.Section}
	switch {
	case p.Text != nil:
		d.Params.Prompt = p.Text.Prompt
	case p.Image != nil:
		d.Params.Mode = p.Image.Mode
		d.Params.Prompt = p.Image.Prompt
		d.Params.FileID = p.Image.FileID
		d.Params.Size = p.Image.Size
		d.Params.Quality = p.Image.Quality
		d.Params.UpscaleFactor = p.Image.UpscaleFactor
		d.Params.Megapixels = p.Image.Megapixels
	case p.Video != nil:
		d.Params.Mode = p.Video.Mode
		d.Params.Prompt = p.Video.Prompt
		d.Params.FileID = p.Video.FileID
		d.Params.DurationSec = p.Video.DurationSec
		d.Params.WithAudio = p.Video.WithAudio
		d.Params.UpscaleFactor = p.Video.UpscaleFactor
		d.Params.Megapixels = p.Video.Megapixels
	case p.Audio != nil:
		d.Params.Mode = p.Audio.Mode
		d.Params.Prompt = p.Audio.Prompt
		d.Params.FileID = p.Audio.FileID
		d.Params.TranscribeMode = p.Audio.TranscribeMode
		d.Params.VoiceID = p.Audio.VoiceID
	case p.ThreeD != nil:
		d.Params.FileID = p.ThreeD.FileID
		d.Params.Quality = p.ThreeD.Quality
	}
	return d
}
