package routing

import (
	"sandroute/internal/config"
	"sandroute/internal/constants"
)

type Role int

const (
	RoleBaseline Role = iota
	RoleSandbox
)

func (r Role) String() string {
	if r == RoleSandbox {
		return "sandbox"
	}
	return "baseline"
}

// ConsumerIdentity fixes who this process is for its whole lifetime:
// either the always-on baseline of a service, or one specific sandbox
// fork identified by the routing key it owns.
type ConsumerIdentity struct {
	Role        Role
	SandboxID   string // routing key owned by this sandbox; empty for baseline
	SandboxName string // display name, may differ from the routing key
	ServiceName string
}

func NewBaselineIdentity(serviceName string) ConsumerIdentity {
	return ConsumerIdentity{
		Role:        RoleBaseline,
		ServiceName: serviceName,
	}
}

func NewSandboxIdentity(serviceName, routingKey, sandboxName string) ConsumerIdentity {
	if sandboxName == "" {
		sandboxName = routingKey
	}
	return ConsumerIdentity{
		Role:        RoleSandbox,
		SandboxID:   routingKey,
		SandboxName: sandboxName,
		ServiceName: serviceName,
	}
}

// IdentityFromConfig derives the process identity: a sandbox routing
// key present in the environment makes this a sandbox consumer,
// otherwise it runs as baseline.
func IdentityFromConfig(cfg config.IdentityConfig) ConsumerIdentity {
	if cfg.SandboxRoutingKey == "" {
		return NewBaselineIdentity(cfg.ServiceName)
	}
	return NewSandboxIdentity(cfg.ServiceName, cfg.SandboxRoutingKey, cfg.SandboxName)
}

func (id ConsumerIdentity) IsBaseline() bool {
	return id.Role == RoleBaseline
}

// Label is the identity string used in logs and queue names.
func (id ConsumerIdentity) Label() string {
	if id.IsBaseline() {
		return constants.RoleBaselineName
	}
	return id.SandboxName
}
