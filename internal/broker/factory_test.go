package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandroute/internal/config"
	"sandroute/internal/logger"
	"sandroute/internal/routing"
)

func TestGroupIDFor(t *testing.T) {
	baseline := routing.NewBaselineIdentity("orders")
	sandbox := routing.NewSandboxIdentity("orders", "feature-x", "")

	assert.Equal(t, "orders-consumer", groupIDFor("orders-consumer", baseline))
	assert.Equal(t, "orders-consumer-feature-x", groupIDFor("orders-consumer", sandbox))
	assert.Equal(t, "orders", groupIDFor("", baseline))
	assert.Equal(t, "orders-feature-x", groupIDFor("", sandbox))
}

func TestQueueNameFor(t *testing.T) {
	baseline := routing.NewBaselineIdentity("orders")
	sandbox := routing.NewSandboxIdentity("orders", "feature-x", "")

	assert.Equal(t, "orders-queue", queueNameFor("orders-queue", baseline))
	assert.Equal(t, "orders-queue-feature-x", queueNameFor("orders-queue", sandbox))
}

func TestNewConsumerPerIdentityKafka(t *testing.T) {
	cfg := config.BrokerConfig{
		Type: "kafka",
		Kafka: config.KafkaConfig{
			Brokers: []string{"localhost:9092"},
			GroupID: "orders-consumer",
		},
	}

	baselineConsumer, err := NewConsumer(cfg, routing.NewBaselineIdentity("orders"), logger.NopLogger())
	require.NoError(t, err)
	sandboxConsumer, err := NewConsumer(cfg, routing.NewSandboxIdentity("orders", "feature-x", ""), logger.NopLogger())
	require.NoError(t, err)

	assert.Equal(t, "orders-consumer", baselineConsumer.(*KafkaConsumer).cfg.GroupID)
	assert.Equal(t, "orders-consumer-feature-x", sandboxConsumer.(*KafkaConsumer).cfg.GroupID)
}

func TestNewConsumerPerIdentityRabbitMQ(t *testing.T) {
	cfg := config.BrokerConfig{
		Type: "rabbitmq",
		RabbitMQ: config.RabbitMQConfig{
			Host:      "localhost",
			Port:      5672,
			Exchange:  "orders_exchange",
			QueueName: "orders-queue",
			Durable:   true,
		},
	}

	baselineConsumer, err := NewConsumer(cfg, routing.NewBaselineIdentity("orders"), logger.NopLogger())
	require.NoError(t, err)
	sandboxConsumer, err := NewConsumer(cfg, routing.NewSandboxIdentity("orders", "feature-x", ""), logger.NopLogger())
	require.NoError(t, err)

	baselineCfg := baselineConsumer.(*RabbitMQConsumer).cfg
	assert.Equal(t, "orders-queue", baselineCfg.QueueName)
	assert.True(t, baselineCfg.Durable)
	assert.False(t, baselineCfg.AutoDelete)

	sandboxCfg := sandboxConsumer.(*RabbitMQConsumer).cfg
	assert.Equal(t, "orders-queue-feature-x", sandboxCfg.QueueName)
	assert.False(t, sandboxCfg.Durable)
	assert.True(t, sandboxCfg.AutoDelete)
}

func TestNewConsumerUnknownType(t *testing.T) {
	_, err := NewConsumer(config.BrokerConfig{Type: "sqs"}, routing.NewBaselineIdentity("orders"), logger.NopLogger())
	assert.Error(t, err)
}

func TestNewProducerUnknownType(t *testing.T) {
	_, err := NewProducer(config.BrokerConfig{Type: "sqs"}, logger.NopLogger())
	assert.Error(t, err)
}
