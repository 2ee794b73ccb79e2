package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
)

// RoutingKeyHeader is the override header carrying an explicit sandbox
// routing key; it takes precedence over the baggage entry of the same name.
const (
	RoutingKeyHeader  = "sd-routing-key"
	RoutingKeyBaggage = "sd-routing-key"
	BaggageHeader     = "baggage"
)

const (
	EnvSandboxRoutingKey = "SIGNADOT_SANDBOX_ROUTING_KEY"
	EnvSandboxName       = "SIGNADOT_SANDBOX_NAME"
)

const (
	DefaultTopic    = "orders"
	DefaultExchange = "orders_exchange"
)

const (
	DefaultRegistryRefreshInterval = 10 * time.Second
	DefaultRegistryRequestTimeout  = 5 * time.Second
)

// Event log bounds mirror the control API: keep at most 1000 entries,
// serve the most recent 100.
const (
	EventLogKey     = "events"
	EventLogMaxLen  = 1000
	EventLogPageLen = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DecisionAccept = "accept"
	DecisionSkip   = "skip"
)

const (
	RoleBaselineName = "Baseline"
)
