package logging

import (
	"context"
)

const (
	TraceIDKey     = "trace_id"
	MessageIDKey   = "message_id"
	ServiceNameKey = "service_name"
	RoutingKeyKey  = "routing_key"
	ConsumerKey    = "consumer"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, MessageIDKey, messageID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func WithRoutingKey(ctx context.Context, routingKey string) context.Context {
	return context.WithValue(ctx, RoutingKeyKey, routingKey)
}

// WithConsumer records the consumer identity label ("Baseline" or the
// sandbox name) that every decision log line carries.
func WithConsumer(ctx context.Context, consumer string) context.Context {
	return context.WithValue(ctx, ConsumerKey, consumer)
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func GetMessageID(ctx context.Context) string {
	if messageID, ok := ctx.Value(MessageIDKey).(string); ok {
		return messageID
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetRoutingKey(ctx context.Context) string {
	if routingKey, ok := ctx.Value(RoutingKeyKey).(string); ok {
		return routingKey
	}
	return ""
}

func GetConsumer(ctx context.Context) string {
	if consumer, ok := ctx.Value(ConsumerKey).(string); ok {
		return consumer
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 10)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}

	if messageID := GetMessageID(ctx); messageID != "" {
		fields = append(fields, "message_id", messageID)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	if routingKey := GetRoutingKey(ctx); routingKey != "" {
		fields = append(fields, "routing_key", routingKey)
	}

	if consumer := GetConsumer(ctx); consumer != "" {
		fields = append(fields, "consumer", consumer)
	}

	return fields
}
