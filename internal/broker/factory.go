package broker

import (
	"fmt"

	"sandroute/internal/config"
	"sandroute/internal/logger"
	"sandroute/internal/routing"
)

func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case "kafka":
		return NewKafkaProducer(cfg.Kafka, log), nil
	case "rabbitmq":
		return NewRabbitMQProducer(cfg.RabbitMQ, log)
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// NewConsumer builds a consumer bound to one logical identity. Each
// identity gets its own consumer group (Kafka) or queue (RabbitMQ), so
// baseline and every sandbox each receive a full copy of the stream.
func NewConsumer(cfg config.BrokerConfig, identity routing.ConsumerIdentity, log logger.Logger) (Consumer, error) {
	switch cfg.Type {
	case "kafka":
		kafkaCfg := cfg.Kafka
		kafkaCfg.GroupID = groupIDFor(kafkaCfg.GroupID, identity)
		return NewKafkaConsumer(kafkaCfg, log), nil
	case "rabbitmq":
		rabbitCfg := cfg.RabbitMQ
		rabbitCfg.QueueName = queueNameFor(rabbitCfg.QueueName, identity)
		if !identity.IsBaseline() {
			// Sandbox queues vanish with the sandbox; baseline keeps
			// its durable queue across restarts.
			rabbitCfg.Durable = false
			rabbitCfg.AutoDelete = true
		}
		return NewRabbitMQConsumer(rabbitCfg, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

func groupIDFor(base string, identity routing.ConsumerIdentity) string {
	if base == "" {
		base = identity.ServiceName
	}
	if identity.IsBaseline() {
		return base
	}
	return fmt.Sprintf("%s-%s", base, identity.SandboxID)
}

func queueNameFor(base string, identity routing.ConsumerIdentity) string {
	if base == "" {
		base = identity.ServiceName
	}
	if identity.IsBaseline() {
		return base
	}
	return fmt.Sprintf("%s-%s", base, identity.SandboxID)
}
