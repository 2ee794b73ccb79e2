package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

// Degrader is an optional Checker refinement: a failing check that only
// degrades the service instead of making it unhealthy.
type Degrader interface {
	Degraded() bool
}

type Health struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CheckerRegistry struct {
	checkers []Checker
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{
		checkers: make([]Checker, 0),
	}
}

func (r *CheckerRegistry) Register(checker Checker) {
	r.checkers = append(r.checkers, checker)
}

func (r *CheckerRegistry) Check(ctx context.Context) Health {
	results := make(map[string]CheckResult)
	allHealthy := true
	anyDegraded := false

	for _, checker := range r.checkers {
		err := checker.Check(ctx)
		result := CheckResult{
			Timestamp: time.Now(),
		}

		if err != nil {
			if d, ok := checker.(Degrader); ok && d.Degraded() {
				result.Status = StatusDegraded
				anyDegraded = true
			} else {
				result.Status = StatusUnhealthy
				allHealthy = false
			}
			result.Message = err.Error()
		} else {
			result.Status = StatusHealthy
		}

		results[checker.Name()] = result
	}

	overallStatus := StatusHealthy
	if !allHealthy {
		overallStatus = StatusUnhealthy
	} else if anyDegraded {
		overallStatus = StatusDegraded
	}

	return Health{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string {
	return "redis"
}

func (c *RedisChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// StalenessReporter exposes the age of the cached registry snapshot.
type StalenessReporter interface {
	StalenessAge() time.Duration
}

// RegistryChecker reports the sandbox registry as degraded (not
// unhealthy) when its snapshot exceeds the staleness threshold: the
// consumer keeps running on the last good snapshot.
type RegistryChecker struct {
	reporter     StalenessReporter
	maxStaleness time.Duration
}

func NewRegistryChecker(reporter StalenessReporter, maxStaleness time.Duration) *RegistryChecker {
	return &RegistryChecker{reporter: reporter, maxStaleness: maxStaleness}
}

func (c *RegistryChecker) Name() string {
	return "sandbox_registry"
}

func (c *RegistryChecker) Degraded() bool {
	return true
}

func (c *RegistryChecker) Check(_ context.Context) error {
	age := c.reporter.StalenessAge()
	if age > c.maxStaleness {
		return fmt.Errorf("registry snapshot is %s old (threshold %s)", age.Round(time.Second), c.maxStaleness)
	}
	return nil
}
