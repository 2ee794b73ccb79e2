package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Broker         BrokerConfig
	Redis          RedisConfig
	Registry       RegistryConfig
	Identity       IdentityConfig
	Publisher      PublisherConfig
	Logging        LoggingConfig
	CircuitBreaker CircuitBreakerConfig
	Tracing        TracingConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type BrokerConfig struct {
	Type     string         `mapstructure:"type"`
	Topic    string         `mapstructure:"topic"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type KafkaConfig struct {
	Brokers []string    `mapstructure:"brokers"`
	GroupID string      `mapstructure:"group_id"`
	Retry   RetryConfig `mapstructure:"retry"`
}

type RabbitMQConfig struct {
	Host       string      `mapstructure:"host"`
	Port       int         `mapstructure:"port"`
	User       string      `mapstructure:"user"`
	Password   string      `mapstructure:"password"`
	Exchange   string      `mapstructure:"exchange"`
	QueueName  string      `mapstructure:"queue_name"`
	Durable    bool        `mapstructure:"durable"`
	AutoDelete bool        `mapstructure:"auto_delete"`
	Retry      RetryConfig `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RegistryConfig locates the control plane that reports which sandbox
// routing keys are currently active for a baseline workload.
type RegistryConfig struct {
	RouteServerAddr   string        `mapstructure:"routeserver_addr"`
	BaselineKind      string        `mapstructure:"baseline_kind"`
	BaselineNamespace string        `mapstructure:"baseline_namespace"`
	BaselineName      string        `mapstructure:"baseline_name"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Retry             RetryConfig   `mapstructure:"retry"`
}

// IdentityConfig fixes the consumer identity for the process lifetime.
// An empty SandboxRoutingKey means the process runs as baseline.
type IdentityConfig struct {
	ServiceName       string `mapstructure:"service_name"`
	SandboxRoutingKey string `mapstructure:"sandbox_routing_key"`
	SandboxName       string `mapstructure:"sandbox_name"`
}

type PublisherConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
