package tracing

import (
	"context"

	"go.opentelemetry.io/otel/baggage"
)

// BaggageEntry reads a single member value from the W3C baggage carried
// by ctx. Empty when the member is absent.
func BaggageEntry(ctx context.Context, key string) string {
	return baggage.FromContext(ctx).Member(key).Value()
}

// WithBaggageEntry returns ctx with the baggage member set, leaving the
// remaining members untouched. Invalid keys or values return ctx as is.
func WithBaggageEntry(ctx context.Context, key, value string) context.Context {
	member, err := baggage.NewMember(key, value)
	if err != nil {
		return ctx
	}

	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}

	return baggage.ContextWithBaggage(ctx, bag)
}

// ParseBaggageHeader extracts a member value straight from a raw baggage
// header, for carriers that hand headers over without a context round
// trip. Malformed headers yield empty.
func ParseBaggageHeader(header, key string) string {
	bag, err := baggage.Parse(header)
	if err != nil {
		return ""
	}
	return bag.Member(key).Value()
}
