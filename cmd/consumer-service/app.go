package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"sandroute/internal/config"
	"sandroute/internal/constants"
	"sandroute/internal/consumer"
	"sandroute/internal/events"
	"sandroute/internal/logger"
	"sandroute/internal/registry"
	"sandroute/pkg/bootstrap"
	"sandroute/pkg/circuitbreaker"
	"sandroute/pkg/health"
	"sandroute/pkg/metrics"
	"sandroute/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	redisClient    *redis.Client
	eventLog       *events.Log
	registry       *registry.Registry
	poller         *registry.Poller
	pipeline       *consumer.Pipeline
	server         *http.Server
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("consumer-service")
	}
	return &App{
		Base: bootstrap.NewBase(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	redisClient, err := bootstrap.InitRedis(ctx, a.Config.Redis, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	a.redisClient = redisClient
	a.eventLog = events.NewLog(redisClient, a.Logger)

	if err := a.InitConsumer(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.initRegistry()

	handler := consumer.NewOrderProcessor(a.Logger)
	a.pipeline = consumer.NewPipeline(a.Identity, a.viewProvider(), handler, a.eventLog, a.Logger)

	tp, err := tracing.Init(a.Config.Tracing, "consumer-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterConsumerMetrics()
	metrics.RegisterBrokerMetrics()
	if a.registry != nil {
		metrics.RegisterRegistryMetrics()
	}
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

// initRegistry wires the sandbox registry for baseline identities only.
// A sandbox consumer matches against its own routing key and never
// needs the active set.
func (a *App) initRegistry() {
	if !a.Identity.IsBaseline() {
		a.Logger.Infow("Running as sandbox consumer, registry disabled",
			"sandbox", a.Identity.SandboxName,
			"routing_key", a.Identity.SandboxID,
		)
		return
	}

	var breaker *circuitbreaker.Wrapper
	if a.Config.CircuitBreaker.Enabled {
		breaker = circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("sandbox-registry"))
	}

	client := registry.NewHTTPClient(a.Config.Registry, breaker, a.Logger)
	a.registry = registry.New(
		client,
		a.Identity.ServiceName,
		a.Config.Registry.RequestTimeout,
		a.Logger,
	)

	interval := a.Config.Registry.RefreshInterval
	if interval <= 0 {
		interval = constants.DefaultRegistryRefreshInterval
	}
	a.poller = registry.NewPoller(a.registry, interval, a.Logger)
}

func (a *App) viewProvider() consumer.ViewProvider {
	if a.registry == nil {
		return nil
	}
	return a.registry
}

func (a *App) initHTTPServer() error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.registry != nil {
		// Stale beyond three refresh intervals degrades the service but
		// keeps it serving from the last good snapshot.
		interval := a.Config.Registry.RefreshInterval
		if interval <= 0 {
			interval = constants.DefaultRegistryRefreshInterval
		}
		healthRegistry.Register(health.NewRegistryChecker(a.registry, 3*interval))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	if a.poller != nil {
		g.Go(func() error {
			return a.poller.Run(gCtx)
		})
	}

	topic := a.Config.Broker.Topic
	g.Go(func() error {
		return a.Consumer.Consume(gCtx, topic, a.pipeline.Handle)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		if a.redisClient != nil {
			if err := a.redisClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("redis close error: %w", err))
			}
		}

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
