package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/giobyte8/imgvariants/internal/models"
	"github.com/giobyte8/imgvariants/internal/telemetry"
	"github.com/giobyte8/imgvariants/internal/telemetry/metrics"
)

// Holds the config params for the consumer
type AMQPConfig struct {
	AMQPUri  string
	Exchange string

	VariantsGenQueueName string
	VariantsDelQueueName string
}

// VariantsProcessor handles decoded variant requests.
// Implemented by services.VariantsService
type VariantsProcessor interface {
	ProcessGenRequest(ctx context.Context, req models.VariantsRequest) error
	ProcessDelRequest(ctx context.Context, req models.VariantsRequest) error
}

type requestHandler func(ctx context.Context, req models.VariantsRequest) error

type AMQPConsumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	config      AMQPConfig
	variantsSvc VariantsProcessor
	telemetry   *telemetry.TelemetrySvc
}

// Creates a new AMQPConsumer instance ready to connect to broker
func NewAMQPConsumer(
	config AMQPConfig,
	variantsSvc VariantsProcessor,
	telemetry *telemetry.TelemetrySvc,
) (*AMQPConsumer, error) {

	if config.AMQPUri == "" {
		return nil, fmt.Errorf("AMQP URI cannot be empty in config")
	}
	if config.Exchange == "" {
		return nil, fmt.Errorf("AMQP exchange cannot be empty in config")
	}
	if config.VariantsGenQueueName == "" {
		return nil, fmt.Errorf(
			"AMQP variants generation queue name cannot be empty in config",
		)
	}
	if config.VariantsDelQueueName == "" {
		return nil, fmt.Errorf(
			"AMQP variants delete queue name cannot be empty in config",
		)
	}

	return &AMQPConsumer{
		config:      config,
		variantsSvc: variantsSvc,
		telemetry:   telemetry,
	}, nil
}

// Connects to AMQP broker, declares exchange and queues and
// starts consuming messages
func (c *AMQPConsumer) Start(ctx context.Context) error {
	slog.Debug("AMQP - Initializing AMQP Consumer")

	var err error
	c.conn, err = amqp.Dial(c.config.AMQPUri)
	if err != nil {
		return fmt.Errorf("AMQP - Connection to broker failed: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("AMQP - Failed to open channel: %w", err)
	}

	err = c.channel.ExchangeDeclare(
		c.config.Exchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		c.closeAll()
		return fmt.Errorf("AMQP - Failed to declare exchange: %w", err)
	}

	for _, queueName := range []string{
		c.config.VariantsGenQueueName,
		c.config.VariantsDelQueueName,
	} {
		if err := c.declareAndBind(queueName); err != nil {
			c.closeAll()
			return fmt.Errorf(
				"AMQP - Failed to declare/bind queue %s: %w",
				queueName,
				err,
			)
		}
	}

	genMsgs, err := c.consume(c.config.VariantsGenQueueName, "imgvariants-gen")
	if err != nil {
		c.closeAll()
		return err
	}

	delMsgs, err := c.consume(c.config.VariantsDelQueueName, "imgvariants-del")
	if err != nil {
		c.closeAll()
		return err
	}

	go c.consumeLoop(
		ctx,
		"gen",
		genMsgs,
		metrics.VariantGenRequestReceived,
		c.variantsSvc.ProcessGenRequest,
	)
	go c.consumeLoop(
		ctx,
		"del",
		delMsgs,
		metrics.VariantDelRequestReceived,
		c.variantsSvc.ProcessDelRequest,
	)
	return nil
}

// Gracefully stops the AMQP consumer
func (c *AMQPConsumer) Stop() {
	slog.Info("AMQP - Stopping AMQP Consumer...")
	c.closeAll()
	slog.Info("AMQP - AMQP Consumer stopped")
}

func (c *AMQPConsumer) closeAll() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			slog.Error("AMQP - Failed to close channel", "error", err)
		} else {
			slog.Debug("AMQP - Channel closed")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			slog.Error("AMQP - Failed to close connection", "error", err)
		} else {
			slog.Debug("AMQP - Connection closed")
		}
	}
}

func (c *AMQPConsumer) declareAndBind(queueName string) error {
	_, err := c.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	return c.channel.QueueBind(
		queueName,         // Queue
		queueName,         // Routing key
		c.config.Exchange, // Exchange
		false,             // No-wait
		nil,               // Arguments
	)
}

func (c *AMQPConsumer) consume(
	queueName string,
	consumerTag string,
) (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(
		queueName,
		consumerTag,
		false, // Auto-acknowledge
		false, // Exclusive
		false, // No-local
		false, // No-wait
		nil,   // Arguments
	)
	if err != nil {
		return nil, fmt.Errorf(
			"AMQP - Failed to create consumer for queue %s: %w",
			queueName,
			err,
		)
	}

	return msgs, nil
}

func (c *AMQPConsumer) consumeLoop(
	ctx context.Context,
	kind string,
	msgs <-chan amqp.Delivery,
	receivedMetric metrics.MetricName,
	handle requestHandler,
) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				slog.Info(
					"AMQP - Variants message channel closed. goroutine exiting",
					"kind", kind,
				)
				return
			}

			c.handleDelivery(ctx, kind, msg, receivedMetric, handle)

		case <-ctx.Done():
			slog.Info(
				"AMQP - Context done signal received, "+
					"stopping variants consumption goroutine...",
				"kind", kind,
			)
			return
		}
	}
}

// Decodes and processes a single message. Message is acked on success
// and nacked, without requeue, otherwise.
func (c *AMQPConsumer) handleDelivery(
	ctx context.Context,
	kind string,
	msg amqp.Delivery,
	receivedMetric metrics.MetricName,
	handle requestHandler,
) {
	var req models.VariantsRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		slog.Error(
			"AMQP - Failed to unmarshal variants message",
			"kind", kind,
			"error", err,
			"message", string(msg.Body),
		)
		nack(kind, msg)
		return
	}

	c.telemetry.Metrics().Increment(receivedMetric, nil)

	if err := handle(ctx, req); err != nil {
		slog.Error(
			"AMQP - Failed to process variants request",
			"kind", kind,
			"error", err,
			"requestId", req.RequestId,
			"filePath", req.FilePath,
		)
		nack(kind, msg)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error(
			"AMQP - Failed to acknowledge variants message",
			"kind", kind,
			"error", err,
		)
	}
}

func nack(kind string, msg amqp.Delivery) {
	if err := msg.Nack(false, false); err != nil {
		slog.Error(
			"AMQP - Failed to nack variants message",
			"kind", kind,
			"error", err,
		)
	}
}
