package registry

import (
	"context"
	"sync/atomic"
	"time"

	"sandroute/internal/logger"
	"sandroute/internal/routing"
	apperrors "sandroute/pkg/errors"
	"sandroute/pkg/metrics"
)

// Snapshot is one immutable view of the active sandbox routing keys for
// a service. Snapshots are replaced wholesale, never mutated, so any
// number of filter evaluations can read one concurrently.
type Snapshot struct {
	version   uint64
	fetchedAt time.Time
	active    map[string]struct{}
}

func newSnapshot(version uint64, ids []string) *Snapshot {
	active := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			active[id] = struct{}{}
		}
	}
	return &Snapshot{
		version:   version,
		fetchedAt: time.Now(),
		active:    active,
	}
}

func (s *Snapshot) Contains(id string) bool {
	_, ok := s.active[id]
	return ok
}

func (s *Snapshot) Version() uint64 {
	return s.version
}

func (s *Snapshot) Len() int {
	return len(s.active)
}

// Registry caches the control plane's answer to "which sandboxes of
// this service are active right now". Reads are non-blocking against
// the cached snapshot; a failed refresh keeps the last good snapshot.
type Registry struct {
	client      Client
	serviceName string
	timeout     time.Duration
	logger      logger.Logger

	current atomic.Pointer[Snapshot]
}

func New(client Client, serviceName string, timeout time.Duration, log logger.Logger) *Registry {
	r := &Registry{
		client:      client,
		serviceName: serviceName,
		timeout:     timeout,
		logger:      log,
	}
	r.current.Store(newSnapshot(0, nil))
	return r
}

// ActiveIDsFor returns the cached view of active sandbox ids scoped to
// the given service. Keys of other services are by definition not in
// this registry, so they get the empty view and classify as unknown.
func (r *Registry) ActiveIDsFor(serviceName string) routing.View {
	if serviceName != r.serviceName {
		return routing.EmptyView
	}
	return r.current.Load()
}

// Refresh fetches a fresh snapshot within the configured timeout.
// Snapshot application is monotonic: the new version is derived from
// the snapshot observed before the fetch, and a compare-and-swap
// discards the result if a newer snapshot landed in the meantime.
func (r *Registry) Refresh(ctx context.Context) error {
	base := r.current.Load()

	fetchCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	ids, err := r.client.ListActiveRoutingKeys(fetchCtx)
	if err != nil {
		metrics.IncRegistryRefresh("failure")
		return apperrors.Wrap(err, apperrors.ErrRegistryUnavailable)
	}

	next := newSnapshot(base.version+1, ids)
	if !r.current.CompareAndSwap(base, next) {
		metrics.IncRegistryRefresh("discarded")
		r.logger.Warnw("Discarding stale registry refresh result",
			"stale_version", next.version,
			"current_version", r.current.Load().Version(),
		)
		return nil
	}

	metrics.IncRegistryRefresh("success")
	metrics.SetRegistryActiveSandboxes(next.Len())
	r.logger.Infow("Sandbox registry refreshed",
		"version", next.version,
		"active_sandboxes", next.Len(),
	)
	return nil
}

// StalenessAge reports how old the cached snapshot is. Before the first
// successful refresh the age is measured from registry construction.
func (r *Registry) StalenessAge() time.Duration {
	return time.Since(r.current.Load().fetchedAt)
}
