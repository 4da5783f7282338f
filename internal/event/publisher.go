package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"marketplace-service/internal/models"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MarketplaceQueue carries one message per successful state transition.
const MarketplaceQueue = "marketplace_events"

// MarketplacePublisher publishes marketplace events to RabbitMQ. It
// satisfies the services.Publisher interface.
type MarketplacePublisher struct {
	conn              *Connection
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

// NewMarketplacePublisher creates the publisher and declares the durable
// event queue.
func NewMarketplacePublisher(conn *Connection) (*MarketplacePublisher, error) {
	_, err := conn.channel.QueueDeclare(
		MarketplaceQueue, // queue name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &MarketplacePublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}, nil
}

// Publish sends one marketplace event to the queue as persistent JSON.
func (p *MarketplacePublisher) Publish(ctx context.Context, event models.MarketplaceEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal marketplace event: %w", err)
	}

	err = p.conn.channel.PublishWithContext(
		ctx,
		"",               // exchange
		MarketplaceQueue, // routing key (queue name)
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish marketplace event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Debug("Marketplace event published",
		"queue", MarketplaceQueue,
		"type", event.Type,
		"actor", event.Actor,
	)

	return nil
}

// Stats reports publish counters for the health endpoint.
func (p *MarketplacePublisher) Stats() (published, failed int64, lastPublish time.Time) {
	return p.messagesPublished, p.messagesFailed, p.lastPublishTime
}
