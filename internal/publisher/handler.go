package publisher

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sandroute/internal/broker"
	"sandroute/internal/events"
	"sandroute/internal/logger"
	"sandroute/internal/routing"
	apperrors "sandroute/pkg/errors"
	"sandroute/pkg/metrics"
	"sandroute/pkg/models"
)

// Handler exposes the publish surface. Publishing reads the caller's
// routing metadata from headers, stamps it onto the envelope, and
// writes one copy to the shared topic; the broker bindings fan it out
// to every consumer identity.
type Handler struct {
	producer    broker.Producer
	propagator  *routing.Propagator
	eventLog    *events.Log
	topic       string
	serviceName string
	logger      logger.Logger
}

func NewHandler(producer broker.Producer, propagator *routing.Propagator, eventLog *events.Log, topic, serviceName string, log logger.Logger) *Handler {
	return &Handler{
		producer:    producer,
		propagator:  propagator,
		eventLog:    eventLog,
		topic:       topic,
		serviceName: serviceName,
		logger:      log,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/publish", h.Publish)
	router.GET("/events", h.Events)
	router.GET("/stats", h.Stats)
}

func (h *Handler) Publish(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := apperrors.ErrValidation.WithCause(err)
		c.JSON(appErr.Status, apperrors.ToErrorResponse(appErr))
		return
	}

	ctx := routing.ContextFromHeaders(c.Request.Context(), c.Request.Header)

	// Consumers tolerate malformed keys, but a caller handing one in
	// explicitly gets told instead of silently producing baseline-only
	// traffic.
	if key := routing.RoutingKeyFromContext(ctx); key != "" && !routing.WellFormedKey(key) {
		appErr := apperrors.ErrMalformedRoutingMetadata.WithDetail("routing_key", key)
		c.JSON(appErr.Status, apperrors.ToErrorResponse(appErr))
		return
	}

	envelope := models.NewMessageEnvelopeBuilder().
		WithSource(h.serviceName).
		WithPayload(payload).
		Build()
	h.propagator.Attach(ctx, envelope)

	if err := h.producer.Publish(ctx, h.topic, *envelope); err != nil {
		metrics.IncPublishFailure(h.topic)
		appErr := apperrors.Wrap(err, apperrors.ErrDeliverySurface)
		h.logger.ErrorwCtx(ctx, "Failed to publish message",
			"error", err,
			"topic", h.topic,
			"message_id", envelope.ID,
		)
		c.JSON(appErr.Status, apperrors.ToErrorResponse(appErr))
		return
	}

	metrics.IncMessagePublished(h.topic, envelope.Metadata.RoutingKey)
	h.eventLog.Record(ctx, events.FromPublish(h.serviceName, *envelope))
	h.logger.InfowCtx(ctx, "Message published",
		"topic", h.topic,
		"message_id", envelope.ID,
		"routing_key", envelope.Metadata.RoutingKey,
	)

	c.JSON(http.StatusOK, gin.H{
		"status":      "published",
		"message_id":  envelope.ID,
		"topic":       h.topic,
		"routing_key": envelope.Metadata.RoutingKey,
	})
}

// Events serves the most recent publish and consumption events from the
// shared log.
func (h *Handler) Events(c *gin.Context) {
	recent, err := h.eventLog.Recent(c.Request.Context())
	if err != nil {
		appErr := apperrors.Wrap(err, apperrors.ErrServiceUnavailable)
		c.JSON(appErr.Status, apperrors.ToErrorResponse(appErr))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(recent),
		"events": recent,
	})
}

// Stats aggregates the retained window: publishes per routing key and
// consumptions per consumer identity.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.eventLog.ConsumerStats(c.Request.Context())
	if err != nil {
		appErr := apperrors.Wrap(err, apperrors.ErrServiceUnavailable)
		c.JSON(appErr.Status, apperrors.ToErrorResponse(appErr))
		return
	}
	c.JSON(http.StatusOK, stats)
}
