package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/phrazzld/notes-api/internal/job"
	"github.com/phrazzld/notes-api/internal/platform/logger"
)

// ConsumerConfig tunes a Consumer.
type ConsumerConfig struct {
	// Concurrency is both the number of handler goroutines and the
	// channel prefetch count.
	Concurrency  int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Consumer runs jobs delivered from a queue through a dispatcher.
type Consumer struct {
	pub        *Publisher
	queue      string
	dispatcher *job.Dispatcher
	config     ConsumerConfig
	logger     *slog.Logger
}

// NewConsumer declares the queues and returns a Consumer for queue.
func NewConsumer(c *Client, queue string, dispatcher *job.Dispatcher, cfg ConsumerConfig, log *slog.Logger) (*Consumer, error) {
	return newConsumer(c.ch, queue, dispatcher, cfg, log)
}

func newConsumer(ch channel, queue string, dispatcher *job.Dispatcher, cfg ConsumerConfig, log *slog.Logger) (*Consumer, error) {
	pub, err := newPublisher(ch, queue)
	if err != nil {
		return nil, err
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		pub:        pub,
		queue:      queue,
		dispatcher: dispatcher,
		config:     cfg,
		logger:     log.With(slog.String("component", "rabbitmq_consumer"), slog.String("queue", queue)),
	}, nil
}

// Run consumes until ctx is cancelled or the broker closes the delivery
// channel. Messages are acked only after their outcome is settled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.pub.ch.Qos(c.config.Concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}
	deliveries, err := c.pub.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consumer started", "concurrency", c.config.Concurrency)

	var closed bool
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < c.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						mu.Lock()
						closed = true
						mu.Unlock()
						return
					}
					c.handle(ctx, d)
				}
			}
		}()
	}
	wg.Wait()

	if closed && ctx.Err() == nil {
		return errors.New("delivery channel closed by broker")
	}
	c.logger.Info("consumer stopped")
	return nil
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var j job.Job
	if err := json.Unmarshal(d.Body, &j); err != nil {
		c.logger.Error("dropping undecodable message", "message_id", d.MessageId, "error", err)
		c.deadLetter(ctx, d, nil)
		return
	}
	j.Attempts = attempts(d.Headers) + 1

	log := c.logger.With("job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts)
	log.Info("processing job")

	err := c.dispatcher.Dispatch(logger.WithLogger(ctx, log), &j)
	switch {
	case err == nil:
		log.Info("job completed")
		c.ack(d, log)

	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		log.Info("job interrupted by shutdown")
		c.requeue(d, log)

	case job.IsPermanent(err):
		log.Warn("job failed permanently", "error", err)
		c.ack(d, log)

	case j.Attempts >= c.config.MaxAttempts:
		log.Error("job attempts exhausted, dead-lettering", "error", err)
		j.LastError = err.Error()
		c.deadLetter(ctx, d, &j)

	default:
		delay := job.Backoff(c.config.RetryBackoff, j.Attempts)
		log.Warn("job failed, scheduling retry", "error", err, "retry_in", delay.String())
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			c.requeue(d, log)
			return
		case <-timer.C:
		}
		j.LastError = err.Error()
		if err := c.pub.publish(ctx, c.queue, &j); err != nil {
			log.Error("failed to republish job", "error", err)
			c.requeue(d, log)
			return
		}
		c.ack(d, log)
	}
}

// deadLetter moves the message to the dead-letter queue. A nil job means
// the body could not be decoded and is forwarded verbatim.
func (c *Consumer) deadLetter(ctx context.Context, d amqp.Delivery, j *job.Job) {
	var err error
	if j != nil {
		err = c.pub.publish(ctx, DeadLetterQueue(c.queue), j)
	} else {
		c.pub.mu.Lock()
		err = c.pub.ch.PublishWithContext(ctx, "", DeadLetterQueue(c.queue), false, false, amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    d.MessageId,
			Headers:      d.Headers,
			Body:         d.Body,
		})
		c.pub.mu.Unlock()
	}
	if err != nil {
		c.logger.Error("failed to dead-letter message", "message_id", d.MessageId, "error", err)
		c.requeue(d, c.logger)
		return
	}
	c.ack(d, c.logger)
}

func (c *Consumer) ack(d amqp.Delivery, log *slog.Logger) {
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", "error", err)
	}
}

func (c *Consumer) requeue(d amqp.Delivery, log *slog.Logger) {
	if err := d.Nack(false, true); err != nil {
		log.Error("failed to requeue message", "error", err)
	}
}
