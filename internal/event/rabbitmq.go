package event

import (
	"fmt"
	"log/slog"
	"marketplace-service/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection is the broker link the marketplace event stream publishes
// through. One connection and one channel serve the whole service; the
// publisher declares its queue on the channel at startup.
type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to the event broker and opens the publishing channel.
func Dial(cfg config.RabbitMQConfig) (*Connection, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.Username, cfg.Password, cfg.Host, cfg.Port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open broker channel: %w", err)
	}

	slog.Info("Connected to event broker", "host", cfg.Host, "port", cfg.Port)
	return &Connection{conn: conn, channel: channel}, nil
}

// Close shuts the channel down before the connection.
func (c *Connection) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			slog.Error("Failed to close broker channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			slog.Error("Failed to close broker connection", "error", err)
			return err
		}
	}
	slog.Info("Event broker connection closed")
	return nil
}
