package consumer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandroute/internal/logger"
	"sandroute/internal/routing"
	"sandroute/pkg/models"
)

type recordingHandler struct {
	mu        sync.Mutex
	processed []models.MessageEnvelope
	err       error
}

func (h *recordingHandler) Process(ctx context.Context, msg models.MessageEnvelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.processed = append(h.processed, msg)
	return nil
}

func (h *recordingHandler) ids() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.processed))
	for _, m := range h.processed {
		out = append(out, m.ID)
	}
	return out
}

type staticViews struct {
	view routing.View
}

func (s staticViews) ActiveIDsFor(string) routing.View { return s.view }

type setView map[string]bool

func (v setView) Contains(id string) bool { return v[id] }
func (setView) Version() uint64           { return 7 }

func tagged(id, key string) models.MessageEnvelope {
	return models.MessageEnvelope{
		ID:      id,
		Payload: map[string]interface{}{"order_id": "o-" + id},
		Metadata: models.Metadata{
			RoutingKey:  key,
			ServiceName: "orders",
		},
	}
}

func untagged(id string) models.MessageEnvelope {
	return models.MessageEnvelope{
		ID:      id,
		Payload: map[string]interface{}{"order_id": "o-" + id},
	}
}

func TestBaselinePipeline(t *testing.T) {
	handler := &recordingHandler{}
	baseline := routing.NewBaselineIdentity("orders")
	views := staticViews{view: setView{"feature-x": true}}
	pipeline := NewPipeline(baseline, views, handler, nil, logger.NopLogger())

	ctx := context.Background()
	require.NoError(t, pipeline.Handle(ctx, untagged("m1")))
	require.NoError(t, pipeline.Handle(ctx, tagged("m2", "feature-x")))
	require.NoError(t, pipeline.Handle(ctx, tagged("m3", "feature-unknown")))
	require.NoError(t, pipeline.Handle(ctx, tagged("m4", "Not A Key!")))

	// m2 belongs to the active sandbox's own queue; everything else is
	// baseline's to process.
	assert.Equal(t, []string{"m1", "m3", "m4"}, handler.ids())
}

func TestSandboxPipeline(t *testing.T) {
	handler := &recordingHandler{}
	sandbox := routing.NewSandboxIdentity("orders", "feature-x", "")
	pipeline := NewPipeline(sandbox, nil, handler, nil, logger.NopLogger())

	ctx := context.Background()
	require.NoError(t, pipeline.Handle(ctx, untagged("m1")))
	require.NoError(t, pipeline.Handle(ctx, tagged("m2", "feature-x")))
	require.NoError(t, pipeline.Handle(ctx, tagged("m3", "feature-y")))

	assert.Equal(t, []string{"m2"}, handler.ids())
}

func TestSkipReturnsNilForAck(t *testing.T) {
	handler := &recordingHandler{err: assert.AnError}
	sandbox := routing.NewSandboxIdentity("orders", "feature-x", "")
	pipeline := NewPipeline(sandbox, nil, handler, nil, logger.NopLogger())

	// A skipped message never reaches the failing handler, so the
	// broker acks it like any other delivery.
	assert.NoError(t, pipeline.Handle(context.Background(), untagged("m1")))
}

func TestHandlerErrorPropagates(t *testing.T) {
	handler := &recordingHandler{err: assert.AnError}
	baseline := routing.NewBaselineIdentity("orders")
	pipeline := NewPipeline(baseline, nil, handler, nil, logger.NopLogger())

	err := pipeline.Handle(context.Background(), untagged("m1"))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestBaselineWithoutRegistryAcceptsTagged(t *testing.T) {
	handler := &recordingHandler{}
	baseline := routing.NewBaselineIdentity("orders")
	pipeline := NewPipeline(baseline, nil, handler, nil, logger.NopLogger())

	require.NoError(t, pipeline.Handle(context.Background(), tagged("m1", "feature-x")))
	assert.Equal(t, []string{"m1"}, handler.ids())
}

func TestAcceptedMessageInjectsRoutingContext(t *testing.T) {
	var seenKey string
	handler := handlerFunc(func(ctx context.Context, msg models.MessageEnvelope) error {
		seenKey = routing.RoutingKeyFromContext(ctx)
		return nil
	})

	sandbox := routing.NewSandboxIdentity("orders", "feature-x", "")
	pipeline := NewPipeline(sandbox, nil, handler, nil, logger.NopLogger())

	require.NoError(t, pipeline.Handle(context.Background(), tagged("m1", "feature-x")))
	assert.Equal(t, "feature-x", seenKey)
}

type handlerFunc func(ctx context.Context, msg models.MessageEnvelope) error

func (f handlerFunc) Process(ctx context.Context, msg models.MessageEnvelope) error {
	return f(ctx, msg)
}
