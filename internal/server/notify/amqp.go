package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes export events as persistent JSON messages to a
// durable RabbitMQ queue through the default exchange.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	pub     publisher
	queue   string
	timeout time.Duration
}

// NewAMQPNotifier dials url, opens a channel and declares queue.
func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	n := newAMQPNotifier(ch, q.Name)
	n.conn = conn
	n.channel = ch
	return n, nil
}

func newAMQPNotifier(pub publisher, queue string) *AMQPNotifier {
	return &AMQPNotifier{pub: pub, queue: queue, timeout: 5 * time.Second}
}

func (n *AMQPNotifier) ExportPublished(ctx context.Context, ev ExportEvent) error {
	if ev.Type == "" {
		ev.Type = EventExportPublished
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err = n.pub.PublishWithContext(ctx,
		"",      // exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         ev.Type,
			Timestamp:    ev.PublishedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	return nil
}

// Close releases the channel and the connection.
func (n *AMQPNotifier) Close() error {
	var firstErr error
	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if n.conn != nil {
		if err := n.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
