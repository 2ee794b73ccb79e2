package consumer

import (
	"context"
	"fmt"

	"sandroute/internal/logger"
	apperrors "sandroute/pkg/errors"
	"sandroute/pkg/models"
)

// OrderProcessor is the demo business handler: it validates and
// "fulfills" order payloads. Real deployments swap in their own
// Handler; the decision stage in front of it does not change.
type OrderProcessor struct {
	logger logger.Logger
}

func NewOrderProcessor(log logger.Logger) *OrderProcessor {
	return &OrderProcessor{logger: log}
}

func (h *OrderProcessor) Process(ctx context.Context, msg models.MessageEnvelope) error {
	orderID, ok := stringField(msg.Payload, "order_id")
	if !ok {
		return apperrors.ErrValidation.WithDetail("message", "payload missing order_id")
	}

	amount, _ := numberField(msg.Payload, "amount")

	h.logger.InfowCtx(ctx, "Processing order",
		"order_id", orderID,
		"amount", amount,
		"source", msg.Source,
	)
	return nil
}

func stringField(payload map[string]interface{}, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v), true
	}
	return s, s != ""
}

func numberField(payload map[string]interface{}, key string) (float64, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
