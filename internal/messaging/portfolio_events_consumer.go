package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// PortfolioChangeHandler is invoked for every portfolio change event.
// Returning an error nacks the message so it lands on the DLQ.
type PortfolioChangeHandler func(ctx context.Context, event PortfolioChangedEvent) error

// PortfolioEventsConsumer consumes portfolio change events from the
// portfolio service. Cached analytics for a changed portfolio are
// invalidated by the registered handler.
type PortfolioEventsConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	handler   PortfolioChangeHandler
	logger    *logrus.Logger
}

// NewPortfolioEventsConsumer creates a new portfolio events consumer
func NewPortfolioEventsConsumer(rabbitURL, queueName string, handler PortfolioChangeHandler, logger *logrus.Logger) (*PortfolioEventsConsumer, error) {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange for portfolio events
	err = channel.ExchangeDeclare(
		"portfolio.events", // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare events exchange: %w", err)
	}

	// Declare queue for portfolio change events
	queue, err := channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		amqp.Table{
			"x-dead-letter-exchange": "portfolio.events.dlq",
		},
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue to every holding change
	err = channel.QueueBind(
		queue.Name,         // queue name
		"portfolio.holding.*", // routing key
		"portfolio.events", // exchange
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Infof("✅ Portfolio events consumer initialized (queue: %s)", queueName)

	return &PortfolioEventsConsumer{
		conn:      conn,
		channel:   channel,
		queueName: queueName,
		handler:   handler,
		logger:    logger,
	}, nil
}

// Start starts consuming portfolio change events in the background
func (c *PortfolioEventsConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("🔄 Portfolio events consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("🛑 Portfolio events consumer shutting down")
				return

			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("Message channel closed")
					return
				}

				var event PortfolioChangedEvent
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					c.logger.Errorf("Failed to unmarshal portfolio event: %v", err)
					msg.Nack(false, false) // Send to DLQ
					continue
				}

				c.logger.Debugf("📨 Received portfolio event (event_id: %s, portfolio_id: %s, change: %s)",
					event.EventID, event.PortfolioID, event.ChangeType)

				if err := c.handler(ctx, event); err != nil {
					c.logger.Errorf("Failed to handle portfolio event %s: %v", event.EventID, err)
					msg.Nack(false, false) // Send to DLQ
					continue
				}

				msg.Ack(false)
			}
		}
	}()

	return nil
}

// Close closes the consumer channel and connection
func (c *PortfolioEventsConsumer) Close() error {
	if err := c.channel.Close(); err != nil {
		c.logger.Warnf("Error closing channel: %v", err)
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Warnf("Error closing connection: %v", err)
		return err
	}
	c.logger.Info("Portfolio events consumer closed")
	return nil
}
