package consumer

import (
	"context"
	"time"

	"sandroute/internal/events"
	"sandroute/internal/logger"
	"sandroute/internal/routing"
	"sandroute/pkg/logging"
	"sandroute/pkg/metrics"
	"sandroute/pkg/models"
)

// ViewProvider hands out the current registry view for a service.
type ViewProvider interface {
	ActiveIDsFor(serviceName string) routing.View
}

// Handler processes a message this identity accepted.
type Handler interface {
	Process(ctx context.Context, msg models.MessageEnvelope) error
}

// Pipeline is the decision stage between the broker and the business
// handler. For every delivery it decides accept or skip for this
// process's identity, records the decision, and runs the handler only
// on accept. Skips return nil so the broker acks them like any other
// delivery.
type Pipeline struct {
	identity routing.ConsumerIdentity
	views    ViewProvider
	handler  Handler
	eventLog *events.Log
	logger   logger.Logger
}

func NewPipeline(identity routing.ConsumerIdentity, views ViewProvider, handler Handler, eventLog *events.Log, log logger.Logger) *Pipeline {
	return &Pipeline{
		identity: identity,
		views:    views,
		handler:  handler,
		eventLog: eventLog,
		logger:   log,
	}
}

// Handle implements broker.HandlerFunc.
func (p *Pipeline) Handle(ctx context.Context, msg models.MessageEnvelope) error {
	key := msg.Metadata.RoutingKey

	ctx = logging.WithConsumer(ctx, p.identity.Label())
	if key != "" {
		ctx = logging.WithRoutingKey(ctx, key)
	}

	view := p.currentView()
	if key != "" && !routing.WellFormedKey(key) {
		p.logger.WarnwCtx(ctx, "Malformed routing key, treating as unknown",
			"message_id", msg.ID,
		)
	}

	decision := routing.Decide(p.identity, key, view)
	metrics.IncConsumeDecision(p.identity.Label(), decision.Outcome.String(), string(decision.Rule))
	p.logger.InfowCtx(ctx, "Consumption decision",
		"message_id", msg.ID,
		"outcome", decision.Outcome.String(),
		"rule", string(decision.Rule),
		"registry_version", view.Version(),
	)

	if !decision.Accepted() {
		return nil
	}

	// Downstream calls made by the handler carry the same routing
	// metadata the message arrived with.
	ctx = routing.Inject(ctx, msg)

	start := time.Now()
	if err := p.handler.Process(ctx, msg); err != nil {
		return err
	}
	metrics.ObserveProcessingDuration(p.identity.Label(), time.Since(start))

	if p.eventLog != nil {
		p.eventLog.Record(ctx, events.FromEnvelope(p.identity.Label(), p.identity.ServiceName, msg))
	}
	return nil
}

// currentView resolves the registry view used by the baseline rules.
// Sandbox consumers decide on their own id alone; a missing or
// unavailable registry degrades to the empty view, never to an error.
func (p *Pipeline) currentView() routing.View {
	if !p.identity.IsBaseline() || p.views == nil {
		return routing.EmptyView
	}
	if view := p.views.ActiveIDsFor(p.identity.ServiceName); view != nil {
		return view
	}
	return routing.EmptyView
}
