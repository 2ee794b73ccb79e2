package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                8080,
			ReadTimeoutSeconds:  10 * time.Second,
			WriteTimeoutSeconds: 10 * time.Second,
		},
		Broker: BrokerConfig{
			Type:  "kafka",
			Topic: "orders",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "orders-consumer",
			},
		},
		Identity: IdentityConfig{
			ServiceName: "orders",
		},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantError bool
	}{
		{
			name:   "valid kafka config",
			mutate: func(cfg *Config) {},
		},
		{
			name: "valid rabbitmq config",
			mutate: func(cfg *Config) {
				cfg.Broker.Type = "rabbitmq"
				cfg.Broker.RabbitMQ = RabbitMQConfig{
					Host:     "localhost",
					Port:     5672,
					Exchange: "orders_exchange",
				}
			},
		},
		{
			name: "valid sandbox identity",
			mutate: func(cfg *Config) {
				cfg.Identity.SandboxRoutingKey = "feature-x"
				cfg.Identity.SandboxName = "feature-x-sbx"
			},
		},
		{
			name:      "invalid port",
			mutate:    func(cfg *Config) { cfg.Server.Port = 0 },
			wantError: true,
		},
		{
			name:      "missing topic",
			mutate:    func(cfg *Config) { cfg.Broker.Topic = "" },
			wantError: true,
		},
		{
			name:      "unknown broker type",
			mutate:    func(cfg *Config) { cfg.Broker.Type = "sqs" },
			wantError: true,
		},
		{
			name:      "kafka without brokers",
			mutate:    func(cfg *Config) { cfg.Broker.Kafka.Brokers = nil },
			wantError: true,
		},
		{
			name: "rabbitmq without exchange",
			mutate: func(cfg *Config) {
				cfg.Broker.Type = "rabbitmq"
				cfg.Broker.RabbitMQ = RabbitMQConfig{Host: "localhost", Port: 5672}
			},
			wantError: true,
		},
		{
			name:      "missing service name",
			mutate:    func(cfg *Config) { cfg.Identity.ServiceName = "" },
			wantError: true,
		},
		{
			name: "sandbox name without routing key",
			mutate: func(cfg *Config) {
				cfg.Identity.SandboxName = "feature-x-sbx"
			},
			wantError: true,
		},
		{
			name: "redis optional when absent",
			mutate: func(cfg *Config) {
				cfg.Redis = RedisConfig{}
			},
		},
		{
			name: "redis port out of range",
			mutate: func(cfg *Config) {
				cfg.Redis = RedisConfig{Host: "localhost", Port: 99999}
			},
			wantError: true,
		},
		{
			name: "negative registry refresh interval",
			mutate: func(cfg *Config) {
				cfg.Registry.RefreshInterval = -time.Second
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := ValidateStatic(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
