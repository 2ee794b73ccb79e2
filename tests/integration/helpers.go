package integration

import (
	"sandroute/internal/config"
	"sandroute/internal/logger"
	"sandroute/pkg/models"
)

const (
	containerStartupTimeout = 60
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestKafkaConfig(brokers []string, groupID string) config.KafkaConfig {
	return config.KafkaConfig{
		Brokers: brokers,
		GroupID: groupID,
		Retry: config.RetryConfig{
			MaxAttempts: 1,
		},
	}
}

func createOrderMessage(id, routingKey string) models.MessageEnvelope {
	msg := models.MessageEnvelope{
		ID:     id,
		Source: "integration-test",
		Payload: map[string]interface{}{
			"order_id": "o-" + id,
			"amount":   10.0,
		},
	}
	if routingKey != "" {
		msg.Metadata.RoutingKey = routingKey
		msg.Metadata.ServiceName = "orders"
	}
	return msg
}
