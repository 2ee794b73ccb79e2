package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"sandroute/internal/config"
	"sandroute/internal/constants"
	"sandroute/internal/logger"
	apperrors "sandroute/pkg/errors"
	"sandroute/pkg/logging"
	"sandroute/pkg/metrics"
	"sandroute/pkg/models"
	"sandroute/pkg/retry"
)

func amqpURL(cfg config.RabbitMQConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
}

// declareExchange (re)declares the shared fan-out surface: a durable
// topic exchange every identity binds its own queue to.
func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

type RabbitMQProducer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   logger.Logger
}

func NewRabbitMQProducer(cfg config.RabbitMQConfig, log logger.Logger) (*RabbitMQProducer, error) {
	conn, err := amqp.Dial(amqpURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(ch, cfg.Exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQProducer{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   log,
	}, nil
}

// Publish writes the envelope to the topic exchange. The AMQP routing
// key is the topic; selective consumption keys travel in the message
// headers and envelope metadata, not in the AMQP routing key, so "#"
// bindings deliver a copy to every bound queue.
func (p *RabbitMQProducer) Publish(ctx context.Context, topic string, msg models.MessageEnvelope) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	headers := amqp.Table{}
	if msg.Metadata.HasRoutingKey() {
		headers[constants.RoutingKeyHeader] = msg.Metadata.RoutingKey
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    time.Now(),
			Headers:      headers,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish rabbitmq message: %w", err)
	}

	metrics.IncBrokerMessagesWritten(msg.Source, topic)
	return nil
}

func (p *RabbitMQProducer) Close() error {
	var err error
	if p.channel != nil {
		err = p.channel.Close()
	}
	if p.conn != nil {
		if closeErr := p.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// RabbitMQConsumer owns one queue bound "#" to the shared exchange, so
// it sees every message on the topic. Deliveries are acked exactly
// once after the handler returns, regardless of outcome.
type RabbitMQConsumer struct {
	cfg         config.RabbitMQConfig
	conn        *amqp.Connection
	channel     *amqp.Channel
	wg          sync.WaitGroup
	logger      logger.Logger
	serviceName string
}

func NewRabbitMQConsumer(cfg config.RabbitMQConfig, log logger.Logger) *RabbitMQConsumer {
	return &RabbitMQConsumer{
		cfg:         cfg,
		logger:      log,
		serviceName: "unknown",
	}
}

func (c *RabbitMQConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *RabbitMQConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	conn, err := amqp.Dial(amqpURL(c.cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	c.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	c.channel = ch

	if err := declareExchange(ch, c.cfg.Exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := ch.QueueDeclare(
		c.cfg.QueueName,
		c.cfg.Durable,
		c.cfg.AutoDelete,
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	// "#" matches every topic, giving this queue a full copy of the
	// stream for its identity.
	if err := ch.QueueBind(queue.Name, "#", c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Infow("Started consuming",
		"exchange", c.cfg.Exchange,
		"queue", queue.Name,
		"topic", topic,
		"service_name", c.serviceName,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		consumeCtx := logging.WithServiceName(ctx, c.serviceName)

		for {
			select {
			case <-ctx.Done():
				c.logger.InfowCtx(consumeCtx, "Stopped consuming",
					"queue", queue.Name,
					"reason", "context canceled",
				)
				return
			case d, ok := <-deliveries:
				if !ok {
					c.logger.WarnwCtx(consumeCtx, "Delivery channel closed",
						"queue", queue.Name,
					)
					return
				}

				metrics.IncBrokerMessagesRead(c.serviceName, topic)
				c.handleDelivery(consumeCtx, d, topic, handler)

				if err := d.Ack(false); err != nil {
					c.logger.ErrorwCtx(consumeCtx, "Failed to ack delivery",
						"error", err,
						"queue", queue.Name,
					)
				}
			}
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, d amqp.Delivery, topic string, handler HandlerFunc) {
	var envelope models.MessageEnvelope
	if err := json.Unmarshal(d.Body, &envelope); err != nil {
		c.logger.ErrorwCtx(ctx, "Failed to unmarshal message",
			"error", err,
			"topic", topic,
			"service_name", c.serviceName,
		)
		return
	}

	msgCtx := ctx
	if envelope.Metadata.TraceID != "" {
		msgCtx = logging.WithTraceID(msgCtx, envelope.Metadata.TraceID)
	}
	msgCtx = logging.WithMessageID(msgCtx, envelope.ID)

	if err := c.processWithRetry(msgCtx, envelope, handler, topic); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to process message after retries, acking anyway",
			"error", err,
			"topic", topic,
		)
	}
}

func (c *RabbitMQConsumer) processWithRetry(ctx context.Context, envelope models.MessageEnvelope, handler HandlerFunc, topic string) error {
	policy := retry.DefaultPolicy()

	if c.cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = c.cfg.Retry.MaxAttempts
	}
	if c.cfg.Retry.InitialInterval > 0 {
		policy.InitialInterval = c.cfg.Retry.InitialInterval
	}
	if c.cfg.Retry.MaxInterval > 0 {
		policy.MaxInterval = c.cfg.Retry.MaxInterval
	}
	if c.cfg.Retry.Multiplier > 0 {
		policy.Multiplier = c.cfg.Retry.Multiplier
	}
	if c.cfg.Retry.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = c.cfg.Retry.MaxElapsedTime
	}

	return retry.RetryWithCallback(ctx, policy, func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = apperrors.RecoverPanic(r)
				c.logger.ErrorwCtx(ctx, "Panic recovered during message processing",
					"error", err,
					"topic", topic,
				)
			}
		}()
		return handler(ctx, envelope)
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues(c.serviceName, topic).Inc()
		c.logger.WarnwCtx(ctx, "Retrying message processing",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"next_delay", nextDelay,
			"error", err,
			"topic", topic,
		)
	})
}

func (c *RabbitMQConsumer) Close() error {
	var err error
	if c.channel != nil {
		err = c.channel.Close()
	}
	if c.conn != nil {
		if closeErr := c.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	c.wg.Wait()
	return err
}
