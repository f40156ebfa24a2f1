package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog/internal/logger"
	"catalog/internal/models"

	amqp "github.com/streadway/amqp"
)

// DefaultQueue is used when Config.Queue is empty.
const DefaultQueue = "product_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	// amqp.Channel is not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, opens a channel and declares the event queue.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", cfg.Queue, err)
	}

	logger.Logger.Info().Str("queue", cfg.Queue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// EncodeProductEvent builds the persistent JSON message for event.
func EncodeProductEvent(event models.ProductEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal product event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         event.Type,
		MessageId:    event.ProductID,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
	}, nil
}

// DecodeProductEvent parses a message produced by EncodeProductEvent.
func DecodeProductEvent(body []byte) (models.ProductEvent, error) {
	var event models.ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.ProductEvent{}, fmt.Errorf("failed to decode product event: %w", err)
	}
	if event.Type == "" || event.ProductID == "" {
		return models.ProductEvent{}, errors.New("product event is missing type or productId")
	}
	return event, nil
}

// PublishProductEvent publishes event to the product event queue on the default exchange.
func (c *Client) PublishProductEvent(ctx context.Context, event models.ProductEvent) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := EncodeProductEvent(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logger.Logger.Debug().
		Str("type", event.Type).
		Str("product_id", event.ProductID).
		Msg("Product event published")
	return nil
}

// ConsumeProductEvents starts a goroutine delivering queued events to handler.
// A delivery is acked when handler returns nil. Undecodable messages are dropped,
// handler failures are requeued once and dropped on redelivery.
func (c *Client) ConsumeProductEvents(handler func(models.ProductEvent) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	c.mu.Lock()
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Logger.Info().Str("queue", c.queue).Msg("Waiting for product events")

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
		logger.Logger.Info().Msg("Product event consumer stopped")
	}()

	return nil
}

func handleDelivery(msg amqp.Delivery, handler func(models.ProductEvent) error) {
	l := logger.Logger.With().Uint64("delivery_tag", msg.DeliveryTag).Logger()

	event, err := DecodeProductEvent(msg.Body)
	if err != nil {
		l.Error().Err(err).Msg("Dropping malformed message")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			l.Error().Err(nackErr).Msg("Error nacking message")
		}
		return
	}

	if err := handler(event); err != nil {
		l.Error().Err(err).Bool("redelivered", msg.Redelivered).Msg("Error processing message")
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			l.Error().Err(nackErr).Msg("Error nacking message")
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		l.Error().Err(ackErr).Msg("Error acking message")
	}
}

// LogProductEvent is the consumer the server runs: it records each event in the log.
func LogProductEvent(event models.ProductEvent) error {
	logger.Logger.Info().
		Str("type", event.Type).
		Str("product_id", event.ProductID).
		Str("owner_id", event.OwnerID).
		Str("occurred_at", event.OccurredAt.Format(time.RFC3339)).
		Msg("Product event received")
	return nil
}
