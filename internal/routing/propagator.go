package routing

import (
	"context"
	"net/http"

	"sandroute/internal/constants"
	"sandroute/pkg/models"
	"sandroute/pkg/tracing"
)

type overrideKeyType struct{}

var overrideKey overrideKeyType

// Propagator moves the sandbox routing identifier from an inbound
// request's context onto outbound message metadata.
type Propagator struct {
	serviceName string
}

func NewPropagator(serviceName string) *Propagator {
	return &Propagator{serviceName: serviceName}
}

// ContextFromHeaders captures routing inputs from inbound HTTP headers.
// The explicit override header wins over any ambient baggage; the raw
// baggage header is parsed as a fallback for callers that bypass the
// tracing middleware.
func ContextFromHeaders(ctx context.Context, headers http.Header) context.Context {
	if v := headers.Get(constants.RoutingKeyHeader); v != "" {
		ctx = context.WithValue(ctx, overrideKey, v)
	}

	if tracing.BaggageEntry(ctx, constants.RoutingKeyBaggage) == "" {
		if raw := headers.Get(constants.BaggageHeader); raw != "" {
			if v := tracing.ParseBaggageHeader(raw, constants.RoutingKeyBaggage); v != "" {
				ctx = tracing.WithBaggageEntry(ctx, constants.RoutingKeyBaggage, v)
			}
		}
	}

	return ctx
}

// RoutingKeyFromContext resolves the effective routing key: explicit
// override first, then the baggage entry. Empty means baseline.
func RoutingKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(overrideKey).(string); ok && v != "" {
		return v
	}
	return tracing.BaggageEntry(ctx, constants.RoutingKeyBaggage)
}

// Attach writes the resolved routing key onto the outgoing envelope.
// With no key in context the metadata is left untagged (implicit
// baseline). Attach is idempotent: re-running it over the same context
// yields identical metadata.
func (p *Propagator) Attach(ctx context.Context, env *models.MessageEnvelope) {
	key := RoutingKeyFromContext(ctx)
	if key == "" {
		return
	}

	env.Metadata.RoutingKey = key
	env.Metadata.ServiceName = p.serviceName
}

// Inject mirrors the envelope's routing key back into a context, so a
// consumer's downstream calls propagate the same metadata they were
// delivered with.
func Inject(ctx context.Context, env models.MessageEnvelope) context.Context {
	if !env.Metadata.HasRoutingKey() {
		return ctx
	}
	return tracing.WithBaggageEntry(ctx, constants.RoutingKeyBaggage, env.Metadata.RoutingKey)
}
