package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"sandroute/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("broker.topic", constants.DefaultTopic)
	viper.SetDefault("broker.rabbitmq.exchange", constants.DefaultExchange)
	viper.SetDefault("broker.rabbitmq.port", 5672)
	viper.SetDefault("registry.baseline_kind", "Deployment")
	viper.SetDefault("registry.refresh_interval", constants.DefaultRegistryRefreshInterval)
	viper.SetDefault("registry.request_timeout", constants.DefaultRegistryRequestTimeout)
}

func bindEnvVariables() {
	viper.BindEnv("broker.type", "BROKER_TYPE")
	viper.BindEnv("broker.topic", "BROKER_TOPIC")
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.rabbitmq.host", "BROKER_RABBITMQ_HOST")
	viper.BindEnv("broker.rabbitmq.port", "BROKER_RABBITMQ_PORT")
	viper.BindEnv("broker.rabbitmq.user", "BROKER_RABBITMQ_USER")
	viper.BindEnv("broker.rabbitmq.password", "BROKER_RABBITMQ_PASSWORD")
	viper.BindEnv("broker.rabbitmq.exchange", "BROKER_RABBITMQ_EXCHANGE")
	viper.BindEnv("broker.rabbitmq.queue_name", "BROKER_RABBITMQ_QUEUE_NAME")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("registry.routeserver_addr", "REGISTRY_ROUTESERVER_ADDR")
	viper.BindEnv("registry.baseline_kind", "REGISTRY_BASELINE_KIND")
	viper.BindEnv("registry.baseline_namespace", "REGISTRY_BASELINE_NAMESPACE")
	viper.BindEnv("registry.baseline_name", "REGISTRY_BASELINE_NAME")

	viper.BindEnv("identity.service_name", "IDENTITY_SERVICE_NAME")

	// Sandbox identity is injected by the sandbox provisioner under its
	// own variable names.
	viper.BindEnv("identity.sandbox_routing_key", constants.EnvSandboxRoutingKey)
	viper.BindEnv("identity.sandbox_name", constants.EnvSandboxName)

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}
