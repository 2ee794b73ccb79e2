package integration

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandroute/internal/broker"
	"sandroute/internal/config"
	"sandroute/internal/consumer"
	"sandroute/internal/routing"
	"sandroute/pkg/models"
)

type collectingHandler struct {
	mu  sync.Mutex
	ids []string
}

func (h *collectingHandler) Process(ctx context.Context, msg models.MessageEnvelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, msg.ID)
	return nil
}

func (h *collectingHandler) sorted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]string(nil), h.ids...)
	sort.Strings(out)
	return out
}

type fixedView map[string]bool

func (v fixedView) Contains(id string) bool { return v[id] }
func (fixedView) Version() uint64           { return 1 }

type fixedViews struct{ view fixedView }

func (f fixedViews) ActiveIDsFor(string) routing.View { return f.view }

// Publishes a mixed stream once and runs a baseline and a sandbox
// consumer against it, each with its own consumer group. Every message
// must be processed by exactly one identity.
func TestKafkaSelectiveFanOut(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true)
	log := createTestLogger()
	topic := "orders-fanout-test"

	producer := broker.NewKafkaProducer(createTestKafkaConfig(infra.KafkaBrokers, ""), log)
	t.Cleanup(func() { producer.Close() })

	ctx := context.Background()
	messages := []models.MessageEnvelope{
		createOrderMessage("m1", ""),
		createOrderMessage("m2", "feature-x"),
		createOrderMessage("m3", "feature-unknown"),
		createOrderMessage("m4", ""),
	}
	for _, msg := range messages {
		require.NoError(t, producer.Publish(ctx, topic, msg))
	}

	baselineIdentity := routing.NewBaselineIdentity("orders")
	sandboxIdentity := routing.NewSandboxIdentity("orders", "feature-x", "")
	activeViews := fixedViews{view: fixedView{"feature-x": true}}

	baselineHandler := &collectingHandler{}
	baselinePipeline := consumer.NewPipeline(baselineIdentity, activeViews, baselineHandler, nil, log)

	sandboxHandler := &collectingHandler{}
	sandboxPipeline := consumer.NewPipeline(sandboxIdentity, nil, sandboxHandler, nil, log)

	brokerCfg := config.BrokerConfig{
		Type:  "kafka",
		Kafka: createTestKafkaConfig(infra.KafkaBrokers, "orders-consumer"),
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	baselineConsumer, err := broker.NewConsumer(brokerCfg, baselineIdentity, log)
	require.NoError(t, err)
	t.Cleanup(func() { baselineConsumer.Close() })
	go baselineConsumer.Consume(consumeCtx, topic, baselinePipeline.Handle)

	sandboxConsumer, err := broker.NewConsumer(brokerCfg, sandboxIdentity, log)
	require.NoError(t, err)
	t.Cleanup(func() { sandboxConsumer.Close() })
	go sandboxConsumer.Consume(consumeCtx, topic, sandboxPipeline.Handle)

	assert.Eventually(t, func() bool {
		return len(baselineHandler.sorted()) == 3 && len(sandboxHandler.sorted()) == 1
	}, 2*time.Minute, 200*time.Millisecond)

	assert.Equal(t, []string{"m1", "m3", "m4"}, baselineHandler.sorted())
	assert.Equal(t, []string{"m2"}, sandboxHandler.sorted())
}

// A second sandbox whose key is not in the active set: its copy of the
// stream yields only its own messages, and baseline picks up the keys
// no active sandbox owns.
func TestKafkaInactiveKeyFallsBackToBaseline(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true)
	log := createTestLogger()
	topic := "orders-fallback-test"

	producer := broker.NewKafkaProducer(createTestKafkaConfig(infra.KafkaBrokers, ""), log)
	t.Cleanup(func() { producer.Close() })

	ctx := context.Background()
	require.NoError(t, producer.Publish(ctx, topic, createOrderMessage("m1", "feature-retired")))
	require.NoError(t, producer.Publish(ctx, topic, createOrderMessage("m2", "")))

	baselineIdentity := routing.NewBaselineIdentity("orders")
	baselineHandler := &collectingHandler{}
	// No sandbox is active, so even tagged traffic stays with baseline.
	baselinePipeline := consumer.NewPipeline(baselineIdentity, fixedViews{view: fixedView{}}, baselineHandler, nil, log)

	brokerCfg := config.BrokerConfig{
		Type:  "kafka",
		Kafka: createTestKafkaConfig(infra.KafkaBrokers, "orders-consumer"),
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	baselineConsumer, err := broker.NewConsumer(brokerCfg, baselineIdentity, log)
	require.NoError(t, err)
	t.Cleanup(func() { baselineConsumer.Close() })
	go baselineConsumer.Consume(consumeCtx, topic, baselinePipeline.Handle)

	assert.Eventually(t, func() bool {
		return len(baselineHandler.sorted()) == 2
	}, 2*time.Minute, 200*time.Millisecond)

	assert.Equal(t, []string{"m1", "m2"}, baselineHandler.sorted())
}
