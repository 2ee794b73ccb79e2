package broker

import (
	"context"

	"sandroute/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, msg models.MessageEnvelope) error
	Close() error
}

// Consumer delivers every message on the topic to the handler and
// acknowledges it exactly once afterwards, whatever the handler
// returned. Selective consumption happens inside the handler; the
// broker layer never re-queues on its behalf.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, msg models.MessageEnvelope) error
