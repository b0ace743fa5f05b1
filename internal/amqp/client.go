// Package amqp publishes notifications and export jobs to RabbitMQ and
// consumes export jobs in the worker.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rabbitmq/amqp091-go"

	"pennywise/internal/core"
	"pennywise/internal/notify"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// channel is the subset of *amqp091.Channel the client uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

type Config struct {
	URL         string
	Exchange    string
	NotifyQueue string
	ExportQueue string
}

type Client struct {
	conn    *amqp091.Connection
	channel channel
	cfg     Config

	publishMu sync.Mutex
	breaker   breaker
}

// NewClient dials the broker, retrying connection errors with exponential
// backoff, and declares the exchange and both queues.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	conn, err := dialWithRetry(ctx, cfg.URL, 5)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client, err := newClient(ch, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	client.conn = conn
	return client, nil
}

func newClient(ch channel, cfg Config) (*Client, error) {
	c := &Client{channel: ch, cfg: cfg}
	if err := c.setup(); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}
	return c, nil
}

func dialWithRetry(ctx context.Context, url string, attempts int) (*amqp091.Connection, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if !isConnectionError(err) {
			break
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP dial failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("dial AMQP: %w", lastErr)
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.cfg.Exchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{c.cfg.NotifyQueue, c.cfg.ExportQueue} {
		if _, err := c.channel.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		// routing key is the queue name on a direct exchange
		if err := c.channel.QueueBind(q, q, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}
	return nil
}

// Notify implements notify.Notifier by publishing to the notification queue.
func (c *Client) Notify(ctx context.Context, n notify.Notification) error {
	body, err := json.Marshal(NotificationMessageFrom(n))
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return c.publish(ctx, c.cfg.NotifyQueue, body)
}

// RequestExport queues an export job for the worker.
func (c *Client) RequestExport(ctx context.Context, target string, ref core.Date) error {
	msg := NewExportRequestMessage(target, ref)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal export request: %w", err)
	}
	if err := c.publish(ctx, c.cfg.ExportQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published export request", "id", msg.ID, "target", target)
	return nil
}

func (c *Client) publish(ctx context.Context, queue string, body []byte) error {
	if c.breaker.isOpen() {
		return ErrCircuitOpen
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.publishMu.Lock()
	err := c.channel.PublishWithContext(
		ctx,
		c.cfg.Exchange, // exchange
		queue,          // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	c.publishMu.Unlock()

	if err != nil {
		c.breaker.recordFailure()
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	c.breaker.recordSuccess()
	return nil
}

// ConsumeExportRequests delivers export jobs to handler until ctx is done.
// Undecodable messages are dropped; handler failures are requeued.
func (c *Client) ConsumeExportRequests(ctx context.Context, handler func(context.Context, *ExportRequestMessage) error) error {
	msgs, err := c.channel.Consume(
		c.cfg.ExportQueue, // queue
		"",                // consumer
		false,             // auto-ack (we want manual ack)
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming export requests", "queue", c.cfg.ExportQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return nil
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, handler func(context.Context, *ExportRequestMessage) error) {
	msg, err := ExportRequestMessageFromJSON(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode export request", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle export request", "error", err, "id", msg.ID, "target", msg.Target)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	_ = d.Ack(false)
	slog.InfoContext(ctx, "Export request processed", "id", msg.ID, "target", msg.Target)
}

func (c *Client) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
