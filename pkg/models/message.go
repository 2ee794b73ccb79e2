package models

import "time"

type MessageEnvelope struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`  // Business data
	Metadata  Metadata               `json:"metadata"` // Routing metadata (sandbox key, trace_id)
}

// Metadata carries the sandbox routing tag alongside tracing info.
// RoutingKey empty means baseline traffic. ServiceName identifies which
// logical service's sandbox the key belongs to, when present.
type Metadata struct {
	RoutingKey  string `json:"routing_key,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`
}

// HasRoutingKey reports whether the message was tagged for a sandbox.
func (m Metadata) HasRoutingKey() bool {
	return m.RoutingKey != ""
}
