package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandroute/internal/config"
	"sandroute/internal/logger"
	"sandroute/pkg/circuitbreaker"
	apperrors "sandroute/pkg/errors"
)

func testRegistryConfig(baseURL string) config.RegistryConfig {
	return config.RegistryConfig{
		RouteServerAddr:   baseURL,
		BaselineKind:      "Deployment",
		BaselineNamespace: "demo",
		BaselineName:      "orders",
		Retry: config.RetryConfig{
			MaxAttempts: 1,
		},
	}
}

func TestListActiveRoutingKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workloads/routing-rules", r.URL.Path)
		assert.Equal(t, "Deployment", r.URL.Query().Get("baselineKind"))
		assert.Equal(t, "demo", r.URL.Query().Get("baselineNamespace"))
		assert.Equal(t, "orders", r.URL.Query().Get("baselineName"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"routingRules":[{"routingKey":"feature-a"},{"routingKey":"feature-b"},{"routingKey":""}]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(testRegistryConfig(server.URL), nil, logger.NopLogger())

	keys, err := client.ListActiveRoutingKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"feature-a", "feature-b"}, keys)
}

func TestListActiveRoutingKeysEmptyRules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routingRules":[]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(testRegistryConfig(server.URL), nil, logger.NopLogger())

	keys, err := client.ListActiveRoutingKeys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestListActiveRoutingKeysServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(testRegistryConfig(server.URL), nil, logger.NopLogger())

	_, err := client.ListActiveRoutingKeys(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsRegistryUnavailable(err))
}

func TestListActiveRoutingKeysMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewHTTPClient(testRegistryConfig(server.URL), nil, logger.NopLogger())

	_, err := client.ListActiveRoutingKeys(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsRegistryUnavailable(err))
}

func TestListActiveRoutingKeysRetriesTransientFailure(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		first := requests == 1
		mu.Unlock()

		if first {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"routingRules":[{"routingKey":"feature-a"}]}`))
	}))
	defer server.Close()

	cfg := testRegistryConfig(server.URL)
	cfg.Retry = config.RetryConfig{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
	client := NewHTTPClient(cfg, nil, logger.NopLogger())

	keys, err := client.ListActiveRoutingKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"feature-a"}, keys)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, requests)
}

func TestListActiveRoutingKeysThroughBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routingRules":[{"routingKey":"feature-a"}]}`))
	}))
	defer server.Close()

	breaker := circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("registry-test"))
	client := NewHTTPClient(testRegistryConfig(server.URL), breaker, logger.NopLogger())

	keys, err := client.ListActiveRoutingKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"feature-a"}, keys)
}

func TestListActiveRoutingKeysUnreachable(t *testing.T) {
	client := NewHTTPClient(testRegistryConfig("http://127.0.0.1:1"), nil, logger.NopLogger())

	_, err := client.ListActiveRoutingKeys(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsRegistryUnavailable(err))
}
