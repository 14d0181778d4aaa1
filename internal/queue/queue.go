package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/genstudio-io/genstudio-be/shared/rabbitmq"
)

// Message kinds carried on the generation queue.
const (
	KindJob       = "job"
	KindBroadcast = "broadcast"
	KindRedeliver = "redeliver"
)

// Message is the envelope published to the queue. Kind selects which of the
// remaining fields are meaningful.
type Message struct {
	Kind      string `json:"kind"`
	MessageID string `json:"message_id"`
	JobID     int64  `json:"job_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Publisher enqueues work for the worker service.
type Publisher struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewPublisher creates a publisher over an established RabbitMQ client.
func NewPublisher(client *rabbitmq.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
	}
}

// EnqueueJob publishes a generation job and returns the queue handle.
// A single publish attempt only; callers own the retry policy.
func (p *Publisher) EnqueueJob(ctx context.Context, jobID int64) (string, error) {
	return p.publish(ctx, Message{
		Kind:  KindJob,
		JobID: jobID,
	})
}

// EnqueueBroadcast publishes an admin broadcast to be fanned out by a
// worker. Uses the client's own retry backoff since no caller retries this.
func (p *Publisher) EnqueueBroadcast(ctx context.Context, message string) (string, error) {
	return p.publishWithRetry(ctx, Message{
		Kind:    KindBroadcast,
		Message: message,
	})
}

// EnqueueRedeliver asks a worker to re-send the result of a finished job.
func (p *Publisher) EnqueueRedeliver(ctx context.Context, jobID int64) (string, error) {
	return p.publishWithRetry(ctx, Message{
		Kind:  KindRedeliver,
		JobID: jobID,
	})
}

func (p *Publisher) publish(ctx context.Context, msg Message) (string, error) {
	return p.send(ctx, msg, p.client.Publish)
}

func (p *Publisher) publishWithRetry(ctx context.Context, msg Message) (string, error) {
	return p.send(ctx, msg, p.client.PublishWithRetry)
}

func (p *Publisher) send(ctx context.Context, msg Message, publish func(context.Context, []byte, string) error) (string, error) {
	msg.MessageID = uuid.New().String()

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal queue message: %w", err)
	}

	if err := publish(ctx, body, "application/json"); err != nil {
		return "", fmt.Errorf("failed to enqueue %s message: %w", msg.Kind, err)
	}

	p.logger.Debug("Enqueued message",
		slog.String("kind", msg.Kind),
		slog.String("message_id", msg.MessageID),
		slog.Int64("job_id", msg.JobID),
	)

	return msg.MessageID, nil
}

// Depth reports how many messages are waiting on the queue.
func (p *Publisher) Depth() (int, error) {
	return p.client.QueueDepth()
}
