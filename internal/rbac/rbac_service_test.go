package rbac

import (
	"testing"

	"go-leave/internal/domain"
	"go-leave/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	e, err := infra.NewEnforcer()
	require.NoError(t, err)

	svc := NewService(e)
	require.NoError(t, svc.LoadPolicy(DefaultPolicy()))
	return svc
}

func TestRBACService_Enforce(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		want     bool
	}{
		{"employee can apply", RoleEmployee, "leave", "create", true},
		{"employee reads own", RoleEmployee, "leave", "read_own", true},
		{"employee cannot approve", RoleEmployee, "leave", "approve", false},
		{"employee cannot read all", RoleEmployee, "leave", "read", false},
		{"manager approves", RoleManager, "leave", "approve", true},
		{"manager inherits apply", RoleManager, "leave", "create", true},
		{"admin inherits approve", RoleAdmin, "leave", "approve", true},
		{"unknown role denied", "guest", "leave", "read_own", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := svc.Enforce(domain.EnforceRequest{
				Role:     tt.role,
				Resource: tt.resource,
				Action:   tt.action,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestRBACService_EnforceEmptyRole(t *testing.T) {
	svc := newTestService(t)

	allowed, err := svc.Enforce(domain.EnforceRequest{Resource: "leave", Action: "read"})
	assert.ErrorIs(t, err, ErrEmptyRole)
	assert.False(t, allowed)
}

func TestRBACService_LoadPolicyReplaces(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.LoadPolicy(Policy{
		Permissions: []Permission{{Role: RoleEmployee, Resource: "leave", Action: "approve"}},
	}))

	allowed, err := svc.Enforce(domain.EnforceRequest{Role: RoleEmployee, Resource: "leave", Action: "approve"})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Enforce(domain.EnforceRequest{Role: RoleEmployee, Resource: "leave", Action: "create"})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRBACService_PermissionsForRole(t *testing.T) {
	svc := newTestService(t)

	perms, err := svc.PermissionsForRole(RoleManager)
	require.NoError(t, err)

	assert.Contains(t, perms, domain.PermissionResponse{Resource: "leave", Action: "approve"})
	assert.Contains(t, perms, domain.PermissionResponse{Resource: "leave", Action: "create"})
	assert.NotContains(t, perms, domain.PermissionResponse{Resource: "balance", Action: "seed"})
}
