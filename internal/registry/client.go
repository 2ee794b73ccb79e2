package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"sandroute/internal/config"
	"sandroute/internal/logger"
	"sandroute/pkg/circuitbreaker"
	apperrors "sandroute/pkg/errors"
	"sandroute/pkg/retry"
)

// Client lists the sandbox routing keys currently active for the
// baseline workload this process fronts.
type Client interface {
	ListActiveRoutingKeys(ctx context.Context) ([]string, error)
}

type routingRule struct {
	RoutingKey string `json:"routingKey"`
}

type routingRulesResponse struct {
	RoutingRules []routingRule `json:"routingRules"`
}

// HTTPClient queries the route server's routing-rules endpoint. Calls
// go through an optional circuit breaker so a flapping control plane
// does not pile up blocked refreshes, and transient failures inside a
// call get a short backoff retry before the poller's next tick.
type HTTPClient struct {
	baseURL           string
	baselineKind      string
	baselineNamespace string
	baselineName      string
	httpClient        *http.Client
	breaker           *circuitbreaker.Wrapper
	retryPolicy       retry.Policy
	logger            logger.Logger
}

func NewHTTPClient(cfg config.RegistryConfig, breaker *circuitbreaker.Wrapper, log logger.Logger) *HTTPClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// The poller retries on its own schedule, so keep in-call retries
	// short unless configured otherwise.
	policy := retry.Policy{
		MaxAttempts:     2,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		Multiplier:      2.0,
	}
	if cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialInterval > 0 {
		policy.InitialInterval = cfg.Retry.InitialInterval
	}
	if cfg.Retry.MaxInterval > 0 {
		policy.MaxInterval = cfg.Retry.MaxInterval
	}
	if cfg.Retry.Multiplier > 0 {
		policy.Multiplier = cfg.Retry.Multiplier
	}
	if cfg.Retry.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = cfg.Retry.MaxElapsedTime
	}

	return &HTTPClient{
		baseURL:           cfg.RouteServerAddr,
		baselineKind:      cfg.BaselineKind,
		baselineNamespace: cfg.BaselineNamespace,
		baselineName:      cfg.BaselineName,
		httpClient:        &http.Client{Timeout: timeout},
		breaker:           breaker,
		retryPolicy:       policy,
		logger:            log,
	}
}

func (c *HTTPClient) ListActiveRoutingKeys(ctx context.Context) ([]string, error) {
	if c.breaker == nil {
		return c.fetchWithRetry(ctx)
	}

	result, err := c.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		return c.fetchWithRetry(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *HTTPClient) fetchWithRetry(ctx context.Context) ([]string, error) {
	var keys []string
	err := retry.RetryWithCallback(ctx, c.retryPolicy, func() error {
		got, err := c.listActiveRoutingKeys(ctx)
		if err != nil {
			return err
		}
		keys = got
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		c.logger.Warnw("Retrying route server fetch",
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
		)
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (c *HTTPClient) listActiveRoutingKeys(ctx context.Context) ([]string, error) {
	endpoint, err := c.rulesURL()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRegistryUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRegistryUnavailable)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRegistryUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(
			fmt.Errorf("route server returned status %d", resp.StatusCode),
			apperrors.ErrRegistryUnavailable,
		)
	}

	var rules routingRulesResponse
	if err := json.NewDecoder(resp.Body).Decode(&rules); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRegistryUnavailable)
	}

	keys := make([]string, 0, len(rules.RoutingRules))
	for _, rule := range rules.RoutingRules {
		if rule.RoutingKey != "" {
			keys = append(keys, rule.RoutingKey)
		}
	}
	return keys, nil
}

func (c *HTTPClient) rulesURL() (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	base.Path = "/api/v1/workloads/routing-rules"

	query := url.Values{}
	query.Set("baselineKind", c.baselineKind)
	query.Set("baselineNamespace", c.baselineNamespace)
	query.Set("baselineName", c.baselineName)
	base.RawQuery = query.Encode()

	return base.String(), nil
}
