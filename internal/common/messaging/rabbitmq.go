package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rizkirmdhn/anydownloader/internal/common/config"
	"github.com/rizkirmdhn/anydownloader/internal/common/logger"
	"github.com/rizkirmdhn/anydownloader/pkg/models"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// Client defines the messaging client interface
type Client interface {
	// PublishJSON publishes a JSON message to the exchange with the given routing key
	PublishJSON(ctx context.Context, routingKey string, data interface{}) error

	// Close closes the connection
	Close() error
}

// RabbitMQClient implements the Client interface using RabbitMQ
type RabbitMQClient struct {
	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
	config  *config.RabbitMQConfig
	log     *logger.ComponentLogger
}

// NewRabbitMQClient creates a new RabbitMQ client and declares the event exchange
func NewRabbitMQClient(cfg *config.RabbitMQConfig, log *logrus.Logger) (*RabbitMQClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq URL is required")
	}

	if cfg.Exchange == "" {
		return nil, fmt.Errorf("rabbitmq exchange name is required")
	}

	client := &RabbitMQClient{
		config: cfg,
		log:    logger.NewComponentLogger(log, "messaging"),
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

// connect establishes a connection to RabbitMQ
func (c *RabbitMQClient) connect() error {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		c.config.Exchange,        // name
		config.ExchangeTypeTopic, // type
		true,                     // durable
		false,                    // auto-deleted
		false,                    // internal
		false,                    // no-wait
		nil,                      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare an exchange: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	// Set up connection recovery
	go c.handleReconnect(conn)

	return nil
}

// handleReconnect attempts to reconnect to RabbitMQ when the connection is lost
func (c *RabbitMQClient) handleReconnect(conn *amqp.Connection) {
	amqpErr, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || c.isClosed() {
		return
	}

	c.log.WithError(amqpErr).Warn("RabbitMQ connection closed, attempting to reconnect")

	for i := 0; i < c.config.ReconnectRetries; i++ {
		time.Sleep(c.config.ReconnectTimeout)

		if c.isClosed() {
			return
		}
		if err := c.connect(); err == nil {
			c.log.Entry().Info("Successfully reconnected to RabbitMQ")
			return
		}

		c.log.WithFields(logrus.Fields{
			"attempt": i + 1,
			"retries": c.config.ReconnectRetries,
		}).Warn("Failed to reconnect to RabbitMQ")
	}

	c.log.Entry().Error("Failed to reconnect to RabbitMQ after multiple attempts")
}

// PublishJSON publishes a JSON message to the event exchange with the given routing key
func (c *RabbitMQClient) PublishJSON(ctx context.Context, routingKey string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON message: %w", err)
	}

	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()

	if channel == nil {
		return fmt.Errorf("rabbitmq channel is not open")
	}

	return channel.PublishWithContext(
		ctx,
		c.config.Exchange, // exchange
		routingKey,        // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// Publish sends a download event to the exchange. Failures are logged, not returned.
func (c *RabbitMQClient) Publish(event models.DownloadEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := c.PublishJSON(ctx, RoutingKeyFor(event), event); err != nil {
		c.log.WithFields(logrus.Fields{
			"error":  err,
			"type":   event.Type,
			"status": event.Status,
			"url":    event.URL,
		}).Warn("Failed to publish event")
	}
}

// RoutingKeyFor maps an event to the routing key it is published with
func RoutingKeyFor(event models.DownloadEvent) string {
	if event.Type == models.EventBatch {
		return config.RoutingLogBatch
	}
	return config.RoutingLogDownload
}

func (c *RabbitMQClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close closes the connection and channel
func (c *RabbitMQClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	if c.channel != nil {
		c.channel.Close()
	}

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
