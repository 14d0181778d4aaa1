package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/internal/queue"
)

// process routes one envelope by kind.
func (w *Worker) process(ctx context.Context, msg *taskMessage) error {
	switch msg.envelope.Kind {
	case queue.KindJob:
		return w.processJob(ctx, msg.envelope.JobID)
	case queue.KindRedeliver:
		return w.processRedeliver(ctx, msg.envelope.JobID)
	case queue.KindBroadcast:
		return w.processBroadcast(ctx, msg.envelope.Message)
	default:
		return fmt.Errorf("unknown message kind %q", msg.envelope.Kind)
	}
}

// processJob runs a generation job end to end. The job row is the source of
// truth: claim moves it to processing, the provider call decides done or
// error, and delivery happens last without ever touching the terminal state.
func (w *Worker) processJob(ctx context.Context, jobID int64) error {
	job, err := w.store.ClaimJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotQueued) {
			// duplicate queue message or a concurrent claim; drop it
			w.logger.Warn("Job not claimable, dropping message",
				slog.Int64("job_id", jobID),
			)
			return nil
		}
		return fmt.Errorf("failed to claim job %d: %w", jobID, err)
	}

	w.logger.Info("Processing job",
		slog.Int64("job_id", job.ID),
		slog.String("section", string(job.Section)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	start := time.Now()
	result, genErr := w.generator.Submit(jobCtx, job.Payload)
	if genErr != nil {
		w.logger.Error("Generation failed",
			slog.Int64("job_id", job.ID),
			slog.Any("error", genErr),
		)
		w.recorder.RecordError("generation", genErr.Error())

		if failErr := w.store.FailJob(ctx, job.ID, genErr.Error()); failErr != nil {
			return fmt.Errorf("failed to record job failure: %w", failErr)
		}
		job.Status = domain.JobStatusError
		msg := genErr.Error()
		job.ErrorMessage = &msg
	} else {
		if doneErr := w.store.CompleteJob(ctx, job.ID, result); doneErr != nil {
			return fmt.Errorf("failed to record job result: %w", doneErr)
		}
		job.Status = domain.JobStatusDone
		job.Result = result

		w.logger.Info("Job completed",
			slog.Int64("job_id", job.ID),
			slog.Duration("elapsed", time.Since(start)),
		)
	}

	return w.deliverJob(ctx, job)
}

// processRedeliver re-sends the result of an already finished job.
func (w *Worker) processRedeliver(ctx context.Context, jobID int64) error {
	job, err := w.store.JobByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %d for redelivery: %w", jobID, err)
	}
	if !job.Status.Terminal() {
		return fmt.Errorf("job %d is not finished, cannot redeliver", jobID)
	}
	return w.deliverJob(ctx, job)
}

// deliverJob pushes the outcome to the job's owner and records the attempt.
func (w *Worker) deliverJob(ctx context.Context, job *domain.Job) error {
	user, err := w.store.UserByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to load job owner: %w", err)
	}

	delivered := w.deliverer.Deliver(ctx, user, job)
	if !delivered {
		w.recorder.RecordError("delivery", fmt.Sprintf("job %d result not delivered", job.ID))
	}
	if err := w.store.SetDeliveryFailed(ctx, job.ID, !delivered); err != nil {
		return fmt.Errorf("failed to record delivery outcome: %w", err)
	}
	return nil
}

// processBroadcast fans a message out to every active user. A user whose
// send fails is deactivated so later broadcasts skip them.
func (w *Worker) processBroadcast(ctx context.Context, message string) error {
	users, err := w.store.ListActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list broadcast recipients: %w", err)
	}

	sent := 0
	for i := range users {
		if w.deliverer.SendText(ctx, users[i].ExternalID, message) {
			sent++
			continue
		}
		if err := w.store.DeactivateUser(ctx, users[i].ID); err != nil {
			w.logger.Error("Failed to deactivate unreachable user",
				slog.Int64("user_id", users[i].ID),
				slog.Any("error", err),
			)
		}
	}

	w.logger.Info("Broadcast finished",
		slog.Int("recipients", len(users)),
		slog.Int("sent", sent),
	)
	return nil
}
