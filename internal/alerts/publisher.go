// Package alerts publishes anomaly alerts to RabbitMQ.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/cleared-dev/foresight/internal/log"
)

const publishTimeout = 5 * time.Second

// Publisher delivers anomaly alerts.
type Publisher interface {
	Publish(ctx context.Context, alerts []AnomalyAlert) error
	Close() error
}

// NopPublisher drops alerts. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []AnomalyAlert) error { return nil }

func (NopPublisher) Close() error { return nil }

// channel is the subset of *amqp091.Channel the client uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Client publishes alerts to a durable direct exchange.
type Client struct {
	conn       *amqp091.Connection
	channel    channel
	exchange   string
	queue      string
	routingKey string
	logger     *log.Logger
}

// NewClient dials url and declares the exchange, queue and binding.
func NewClient(url, exchange, queue, routingKey string, logger *log.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c, err := newClient(ch, exchange, queue, routingKey, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func newClient(ch channel, exchange, queue, routingKey string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if routingKey == "" {
		routingKey = queue
	}
	c := &Client{
		channel:    ch,
		exchange:   exchange,
		queue:      queue,
		routingKey: routingKey,
		logger:     logger.WithComponent(log.ComponentAlerts),
	}
	if err := c.setup(); err != nil {
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(
		c.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(c.queue, c.routingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Publish sends each alert as a persistent JSON message.
func (c *Client) Publish(ctx context.Context, alerts []AnomalyAlert) error {
	for _, a := range alerts {
		body, err := a.ToJSON()
		if err != nil {
			return fmt.Errorf("marshal alert %s: %w", a.EntryID, err)
		}

		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err = c.channel.PublishWithContext(
			pubCtx,
			c.exchange,   // exchange
			c.routingKey, // routing key
			false,        // mandatory
			false,        // immediate
			amqp091.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp091.Persistent,
				Timestamp:     a.Timestamp,
				MessageId:     a.RunID + "/" + a.EntryID,
				CorrelationId: a.RunID,
				Body:          body,
			},
		)
		cancel()
		if err != nil {
			return fmt.Errorf("publish alert %s: %w", a.EntryID, err)
		}

		c.logger.InfoContext(ctx, "anomaly alert published",
			"entry_id", a.EntryID,
			log.FieldRunID, a.RunID,
			"exchange", c.exchange,
			"routing_key", c.routingKey)
	}
	return nil
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
