// Package rabbitmq carries mutation jobs over RabbitMQ as an alternative to
// the Postgres-backed job runner.
package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of *amqp.Channel used here.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client owns one connection and one channel.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial opens a connection and a channel on it.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	return &Client{conn: conn, ch: ch}, nil
}

// Close closes the channel and then the connection.
func (c *Client) Close() error {
	if err := c.ch.Close(); err != nil {
		_ = c.conn.Close()
		return err
	}
	return c.conn.Close()
}

// DeadLetterQueue names the queue that receives jobs whose attempts ran out.
func DeadLetterQueue(name string) string {
	return name + ".dead"
}

// Declare creates the work queue and its dead-letter queue, both durable.
func Declare(ch channel, name string) error {
	for _, q := range []string{name, DeadLetterQueue(name)} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", q, err)
		}
	}
	return nil
}
