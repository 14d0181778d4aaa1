package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/internal/ledger"
)

const jobColumns = `id, user_id, draft_id, section, status, queue_ref, price,
	payload, result, error_message, idempotency_key, delivery_failed,
	created_at, updated_at`

// pqUniqueViolation is the PostgreSQL error code for unique_violation.
const pqUniqueViolation = "23505"

type jobRow struct {
	ID             int64                 `db:"id"`
	UserID         int64                 `db:"user_id"`
	DraftID        sql.NullInt64         `db:"draft_id"`
	Section        string                `db:"section"`
	Status         string                `db:"status"`
	QueueRef       sql.NullString        `db:"queue_ref"`
	Price          int64                 `db:"price"`
	Payload        domain.RequestPayload `db:"payload"`
	Result         []byte                `db:"result"`
	ErrorMessage   sql.NullString        `db:"error_message"`
	IdempotencyKey sql.NullString        `db:"idempotency_key"`
	DeliveryFailed bool                  `db:"delivery_failed"`
	CreatedAt      time.Time             `db:"created_at"`
	UpdatedAt      time.Time             `db:"updated_at"`
}

func (r *jobRow) toDomain() (*domain.Job, error) {
	job := &domain.Job{
		ID:             r.ID,
		UserID:         r.UserID,
		Section:        domain.Section(r.Section),
		Status:         domain.JobStatus(r.Status),
		Price:          r.Price,
		Payload:        r.Payload,
		DeliveryFailed: r.DeliveryFailed,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.DraftID.Valid {
		job.DraftID = &r.DraftID.Int64
	}
	if r.QueueRef.Valid {
		job.QueueRef = &r.QueueRef.String
	}
	if r.ErrorMessage.Valid {
		job.ErrorMessage = &r.ErrorMessage.String
	}
	if r.IdempotencyKey.Valid {
		job.IdempotencyKey = &r.IdempotencyKey.String
	}
	if len(r.Result) > 0 {
		var result domain.Result
		if err := json.Unmarshal(r.Result, &result); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		job.Result = &result
	}
	return job, nil
}

// CreateJobCharged debits the price and inserts the job row as one atomic
// unit. A zero price skips the debit. When the idempotency key hits its
// unique index, the transaction rolls back (undoing the debit) and the
// previously created job is returned with created=false.
func (s *Storage) CreateJobCharged(ctx context.Context, job *domain.Job) (*domain.Job, bool, error) {
	var row jobRow
	err := s.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		if job.Price > 0 {
			if err := ledger.Debit(ctx, tx, job.UserID, job.Price, domain.ReasonJobStart); err != nil {
				return err
			}
		}

		err := tx.GetContext(ctx, &row, `
			INSERT INTO jobs (user_id, draft_id, section, status, price, payload, idempotency_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+jobColumns,
			job.UserID, job.DraftID, job.Section, domain.JobStatusQueued,
			job.Price, job.Payload, job.IdempotencyKey,
		)
		if err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		return nil
	})

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && job.IdempotencyKey != nil {
			existing, lookupErr := s.JobByIdempotencyKey(ctx, *job.IdempotencyKey)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("idempotency conflict but existing job not found: %w", lookupErr)
			}
			s.logger.Info("Idempotency key conflict, returning existing job",
				slog.Int64("job_id", existing.ID),
				slog.String("idempotency_key", *job.IdempotencyKey),
			)
			return existing, false, nil
		}
		return nil, false, err
	}

	created, err := row.toDomain()
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// JobByID fetches a job.
func (s *Storage) JobByID(ctx context.Context, jobID int64) (*domain.Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return row.toDomain()
}

// JobByIdempotencyKey returns the job carrying the key, or ErrJobNotFound.
func (s *Storage) JobByIdempotencyKey(ctx context.Context, key string) (*domain.Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+jobColumns+` FROM jobs WHERE idempotency_key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job by idempotency key: %w", err)
	}
	return row.toDomain()
}

// JobFilter narrows and paginates the job history read path.
type JobFilter struct {
	UserID   int64
	Section  string
	Status   string
	PageSize int
	Cursor   *JobCursor
}

// JobCursor is a (created_at, id) keyset cursor.
type JobCursor struct {
	CreatedAt time.Time
	JobID     int64
}

// ListJobs returns a page of jobs, newest first. Fetches one extra row so the
// caller can tell whether more results exist.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = $1`
	args := []interface{}{filter.UserID}
	argIdx := 2

	if filter.Section != "" {
		query += fmt.Sprintf(" AND section = $%d", argIdx)
		args = append(args, filter.Section)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// SetQueueRef persists the external queue handle after a successful enqueue.
func (s *Storage) SetQueueRef(ctx context.Context, jobID int64, ref string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET queue_ref = $1, updated_at = NOW() WHERE id = $2`,
		ref, jobID)
	if err != nil {
		return fmt.Errorf("failed to set queue ref: %w", err)
	}
	return nil
}

// ClaimJob moves a job from queued to processing. The status guard makes the
// transition strictly forward and keeps a second worker from claiming the
// same job.
func (s *Storage) ClaimJob(ctx context.Context, jobID int64) (*domain.Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE jobs
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+jobColumns,
		domain.JobStatusProcessing, jobID, domain.JobStatusQueued,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim job - not queued or not found",
				slog.Int64("job_id", jobID),
			)
			return nil, domain.ErrJobNotQueued
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return row.toDomain()
}

// CompleteJob stores the result payload and marks the job done.
func (s *Storage) CompleteJob(ctx context.Context, jobID int64, result *domain.Result) error {
	return s.finishJob(ctx, jobID, domain.JobStatusDone, result, nil)
}

// FailJob captures the error message and marks the job errored.
func (s *Storage) FailJob(ctx context.Context, jobID int64, message string) error {
	return s.finishJob(ctx, jobID, domain.JobStatusError, nil, &message)
}

func (s *Storage) finishJob(ctx context.Context, jobID int64, status domain.JobStatus, result *domain.Result, errorMessage *string) error {
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, result = $2, error_message = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5`,
		status, resultJSON, errorMessage, jobID, domain.JobStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read finish result: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}

	s.logger.Info("Job status updated",
		slog.Int64("job_id", jobID),
		slog.String("status", string(status)),
	)
	return nil
}

// SetDeliveryFailed records the outcome of a delivery attempt. This is the
// only mutation allowed on a terminal job.
func (s *Storage) SetDeliveryFailed(ctx context.Context, jobID int64, failed bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET delivery_failed = $1, updated_at = NOW() WHERE id = $2`,
		failed, jobID)
	if err != nil {
		return fmt.Errorf("failed to set delivery flag: %w", err)
	}
	return nil
}
