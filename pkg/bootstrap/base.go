package bootstrap

import (
	"context"
	"fmt"

	"sandroute/internal/broker"
	"sandroute/internal/config"
	"sandroute/internal/logger"
	"sandroute/internal/routing"
)

type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	Identity routing.ConsumerIdentity
	Producer broker.Producer
	Consumer broker.Consumer
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config:   cfg,
		Logger:   log,
		Identity: routing.IdentityFromConfig(cfg.Identity),
	}
}

func (b *Base) InitProducer() error {
	producer, err := broker.NewProducer(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}
	b.Producer = producer
	return nil
}

// InitConsumer wires a consumer for this process's identity. Baseline
// and each sandbox get their own group or queue, so every identity
// receives a full copy of the stream.
func (b *Base) InitConsumer() error {
	consumer, err := broker.NewConsumer(b.Config.Broker, b.Identity, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	consumer.SetServiceName(b.Identity.ServiceName)
	b.Consumer = consumer
	return nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	if b.Producer != nil {
		if err := b.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	if b.Consumer != nil {
		if err := b.Consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer close error: %w", err))
		}
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	errs = append(errs, b.ShutdownBroker()...)

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
