package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// ReportPublisher publishes report-computed events to RabbitMQ.
// Publishing is best-effort from the caller's point of view: a report
// is still returned to the API client when the broker is down.
type ReportPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *logrus.Logger
}

// NewReportPublisher creates a new report event publisher
func NewReportPublisher(rabbitURL, exchange, routingKey string, logger *logrus.Logger) (*ReportPublisher, error) {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange (idempotent)
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Infof("✅ Report event publisher initialized (exchange: %s, routing_key: %s)", exchange, routingKey)

	return &ReportPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// PublishReportComputed publishes a report-computed event and returns
// its event ID.
func (p *ReportPublisher) PublishReportComputed(ctx context.Context, portfolioID, ticker, reportType string) (string, error) {
	event := ReportComputedEvent{
		EventID:     uuid.New().String(),
		PortfolioID: portfolioID,
		Ticker:      ticker,
		ReportType:  reportType,
		ComputedBy:  "portfolio-analytics-api",
		Timestamp:   time.Now(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.Publish(
		p.exchange,                       // exchange
		p.routingKey+"."+event.ReportType, // routing key
		false,                            // mandatory
		false,                            // immediate
		amqp.Publishing{
			CorrelationId: event.EventID,
			ContentType:   "application/json",
			Body:          body,
			Timestamp:     time.Now(),
			DeliveryMode:  amqp.Persistent, // Durable message
		},
	)

	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debugf("📤 Published report event (event_id: %s, type: %s, portfolio_id: %s)",
		event.EventID, event.ReportType, event.PortfolioID)

	return event.EventID, nil
}

// Close closes the publisher channel and connection
func (p *ReportPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Warnf("Error closing channel: %v", err)
	}
	if err := p.conn.Close(); err != nil {
		p.logger.Warnf("Error closing connection: %v", err)
		return err
	}
	p.logger.Info("Report event publisher closed")
	return nil
}
