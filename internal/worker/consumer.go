package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/genstudio-io/genstudio-be/internal/queue"
)

// taskMessage pairs a parsed envelope with its delivery tag for ack/nack.
type taskMessage struct {
	envelope    queue.Message
	deliveryTag uint64
}

// setupConsumer sets QoS on the channel and starts consuming.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// prefetch per consumer; unacked messages beyond this are held back
	if err := channel.Qos(w.prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("Consumer started",
		slog.String("worker_id", w.workerID),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	return deliveries, nil
}

// runDispatcher reads deliveries, parses envelopes, and hands them to the
// pool. Malformed envelopes are nacked without requeue.
func (w *Worker) runDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("Delivery channel closed")
				return
			}

			var envelope queue.Message
			if err := json.Unmarshal(delivery.Body, &envelope); err != nil {
				w.logger.Error("Failed to parse queue message",
					slog.Any("error", err),
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.Any("error", nackErr),
					)
				}
				continue
			}

			msg := &taskMessage{
				envelope:    envelope,
				deliveryTag: delivery.DeliveryTag,
			}

			select {
			case w.tasksChan <- msg:
				w.logger.Debug("Message dispatched to pool",
					slog.String("kind", envelope.Kind),
					slog.String("message_id", envelope.MessageID),
				)
			case <-ctx.Done():
				// hand the message back so another consumer picks it up
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.Any("error", nackErr),
					)
				}
				return
			}
		}
	}
}
