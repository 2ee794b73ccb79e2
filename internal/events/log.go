package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"sandroute/internal/constants"
	"sandroute/internal/logger"
	"sandroute/pkg/metrics"
	"sandroute/pkg/models"
)

// Event kinds. Publishers record one entry per message written to the
// broker, consumers one per accepted delivery.
const (
	KindPublished = "published"
	KindConsumed  = "consumed"
)

// Event is one recorded publish or consumption. The recent window of
// these feeds the /events and /stats endpoints that demos and smoke
// tests read.
type Event struct {
	Kind       string                 `json:"kind"`
	Consumer   string                 `json:"consumer,omitempty"`
	Service    string                 `json:"service"`
	MessageID  string                 `json:"message_id"`
	RoutingKey string                 `json:"routing_key,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Stats aggregates the recent window: consumptions per consumer
// identity and publishes per routing key. Untagged publishes count
// under the "baseline" key.
type Stats struct {
	Total        int            `json:"total"`
	Published    int            `json:"published"`
	Consumed     int            `json:"consumed"`
	ByConsumer   map[string]int `json:"by_consumer"`
	ByRoutingKey map[string]int `json:"by_routing_key"`
}

// Log is a capped Redis list of recent consumption events. It is a
// best-effort observability surface: a nil client or a failed write
// never fails message processing.
type Log struct {
	client *redis.Client
	logger logger.Logger
}

func NewLog(client *redis.Client, log logger.Logger) *Log {
	return &Log{client: client, logger: log}
}

func FromEnvelope(consumer, service string, env models.MessageEnvelope) Event {
	return Event{
		Kind:       KindConsumed,
		Consumer:   consumer,
		Service:    service,
		MessageID:  env.ID,
		RoutingKey: env.Metadata.RoutingKey,
		Payload:    env.Payload,
		Timestamp:  time.Now().UTC(),
	}
}

func FromPublish(service string, env models.MessageEnvelope) Event {
	return Event{
		Kind:       KindPublished,
		Service:    service,
		MessageID:  env.ID,
		RoutingKey: env.Metadata.RoutingKey,
		Payload:    env.Payload,
		Timestamp:  time.Now().UTC(),
	}
}

// Record prepends the event and trims the list to its cap.
func (l *Log) Record(ctx context.Context, event Event) {
	if l.client == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		metrics.EventLogWritesTotal.WithLabelValues("failure").Inc()
		l.logger.WarnwCtx(ctx, "Failed to marshal event, dropping",
			"error", err,
			"message_id", event.MessageID,
		)
		return
	}

	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, constants.EventLogKey, body)
	pipe.LTrim(ctx, constants.EventLogKey, 0, constants.EventLogMaxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.EventLogWritesTotal.WithLabelValues("failure").Inc()
		l.logger.WarnwCtx(ctx, "Failed to record event, dropping",
			"error", err,
			"message_id", event.MessageID,
		)
		return
	}

	metrics.EventLogWritesTotal.WithLabelValues("success").Inc()
}

// Recent returns the newest page of events, newest first.
func (l *Log) Recent(ctx context.Context) ([]Event, error) {
	if l.client == nil {
		return []Event{}, nil
	}

	raw, err := l.client.LRange(ctx, constants.EventLogKey, 0, constants.EventLogPageLen-1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		var event Event
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			// Skip entries written by older formats.
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// ConsumerStats aggregates the whole retained window.
func (l *Log) ConsumerStats(ctx context.Context) (Stats, error) {
	stats := Stats{
		ByConsumer:   map[string]int{},
		ByRoutingKey: map[string]int{},
	}
	if l.client == nil {
		return stats, nil
	}

	raw, err := l.client.LRange(ctx, constants.EventLogKey, 0, constants.EventLogMaxLen-1).Result()
	if err != nil {
		return Stats{}, err
	}

	for _, item := range raw {
		var event Event
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		stats.Total++

		if event.Kind == KindPublished {
			stats.Published++
			key := event.RoutingKey
			if key == "" {
				key = "baseline"
			}
			stats.ByRoutingKey[key]++
			continue
		}

		// Entries written before kinds existed carry a consumer name.
		stats.Consumed++
		stats.ByConsumer[event.Consumer]++
	}
	return stats, nil
}
