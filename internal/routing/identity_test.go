package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sandroute/internal/config"
)

func TestIdentityFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.IdentityConfig
		wantRole  Role
		wantLabel string
	}{
		{
			name:      "no routing key means baseline",
			cfg:       config.IdentityConfig{ServiceName: "orders"},
			wantRole:  RoleBaseline,
			wantLabel: "Baseline",
		},
		{
			name: "routing key with name",
			cfg: config.IdentityConfig{
				ServiceName:       "orders",
				SandboxRoutingKey: "feature-x",
				SandboxName:       "feature-x-sbx",
			},
			wantRole:  RoleSandbox,
			wantLabel: "feature-x-sbx",
		},
		{
			name: "routing key without name falls back to the key",
			cfg: config.IdentityConfig{
				ServiceName:       "orders",
				SandboxRoutingKey: "feature-x",
			},
			wantRole:  RoleSandbox,
			wantLabel: "feature-x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := IdentityFromConfig(tt.cfg)
			assert.Equal(t, tt.wantRole, id.Role)
			assert.Equal(t, tt.wantLabel, id.Label())
			assert.Equal(t, "orders", id.ServiceName)
		})
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "baseline", RoleBaseline.String())
	assert.Equal(t, "sandbox", RoleSandbox.String())
}
