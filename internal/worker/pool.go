package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// spawnPool starts the processing goroutines.
func (w *Worker) spawnPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop processes messages until shutdown. Every message is settled
// exactly once: acked on success, nacked without requeue on failure. Jobs get
// a single processing attempt; their failure is recorded in the job row, not
// retried through the queue.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Debug("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			return

		case <-ctx.Done():
			return

		case msg, ok := <-w.tasksChan:
			if !ok {
				return
			}

			err := w.process(ctx, msg)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("No channel available for ack",
					slog.String("worker_name", workerName),
					slog.String("message_id", msg.envelope.MessageID),
				)
				continue
			}

			if err != nil {
				w.logger.Error("Message processing failed",
					slog.String("worker_name", workerName),
					slog.String("kind", msg.envelope.Kind),
					slog.String("message_id", msg.envelope.MessageID),
					slog.Any("error", err),
				)
				w.recorder.RecordError("worker", err.Error())

				if nackErr := channel.Nack(msg.deliveryTag, false, false); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("worker_name", workerName),
						slog.Any("error", nackErr),
					)
				}
				continue
			}

			if ackErr := channel.Ack(msg.deliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.Any("error", ackErr),
				)
			}
		}
	}
}
