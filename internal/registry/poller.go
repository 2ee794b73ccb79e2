package registry

import (
	"context"
	"time"

	"sandroute/internal/logger"
	"sandroute/pkg/metrics"
)

// Poller refreshes the registry on a fixed interval. A failed refresh
// is logged and retried on the next tick; consumers keep filtering
// against the last good snapshot in the meantime.
type Poller struct {
	registry *Registry
	interval time.Duration
	logger   logger.Logger
}

func NewPoller(registry *Registry, interval time.Duration, log logger.Logger) *Poller {
	return &Poller{
		registry: registry,
		interval: interval,
		logger:   log,
	}
}

// Run refreshes once immediately, then on every tick until the context
// is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Infow("Registry poller stopping")
			return ctx.Err()
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if err := p.registry.Refresh(ctx); err != nil {
		p.logger.Warnw("Registry refresh failed, keeping last snapshot",
			"error", err,
			"snapshot_age", p.registry.StalenessAge().String(),
		)
	}
	metrics.SetRegistryStaleness(p.registry.StalenessAge())
}
