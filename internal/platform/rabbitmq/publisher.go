package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/phrazzld/notes-api/internal/job"
)

// attemptsHeader counts completed runs of a message.
const attemptsHeader = "x-attempts"

var _ job.Queue = (*Publisher)(nil)

// Publisher implements job.Queue by publishing persistent messages to a
// durable queue.
type Publisher struct {
	mu    sync.Mutex
	ch    channel
	queue string
}

// NewPublisher declares the queues and returns a Publisher for queue.
func NewPublisher(c *Client, queue string) (*Publisher, error) {
	return newPublisher(c.ch, queue)
}

func newPublisher(ch channel, queue string) (*Publisher, error) {
	if err := Declare(ch, queue); err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, queue: queue}, nil
}

// Enqueue publishes j to the work queue.
func (p *Publisher) Enqueue(ctx context.Context, j *job.Job) error {
	return p.publish(ctx, p.queue, j)
}

func (p *Publisher) publish(ctx context.Context, queue string, j *job.Job) error {
	msg, err := encode(j)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish job %s: %w", j.ID, err)
	}
	return nil
}

func encode(j *job.Job) (amqp.Publishing, error) {
	body, err := json.Marshal(j)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode job: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    j.ID.String(),
		Type:         string(j.Type),
		Timestamp:    j.CreatedAt,
		Headers:      amqp.Table{attemptsHeader: int32(j.Attempts)},
		Body:         body,
	}, nil
}

// attempts reads the attempts header, tolerating the integer widths
// different clients use.
func attempts(h amqp.Table) int {
	switch v := h[attemptsHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
