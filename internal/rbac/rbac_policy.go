package rbac

import "go-leave/internal/domain"

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// Permission grants Role the Action on Resource.
type Permission struct {
	Role     string `mapstructure:"role"`
	Resource string `mapstructure:"resource"`
	Action   string `mapstructure:"action"`
}

// Inheritance gives Role every permission of Parent.
type Inheritance struct {
	Role   string `mapstructure:"role"`
	Parent string `mapstructure:"parent"`
}

type Policy struct {
	Permissions  []Permission  `mapstructure:"permissions"`
	Inheritances []Inheritance `mapstructure:"inheritances"`
}

// DefaultPolicy lets employees apply for and read their own leave, and lets
// managers read and decide everyone's.
func DefaultPolicy() Policy {
	return Policy{
		Permissions: []Permission{
			{Role: RoleEmployee, Resource: domain.ResourceLeave, Action: domain.ActionCreate},
			{Role: RoleEmployee, Resource: domain.ResourceLeave, Action: domain.ActionReadOwn},
			{Role: RoleEmployee, Resource: domain.ResourceBalance, Action: domain.ActionReadOwn},
			{Role: RoleManager, Resource: domain.ResourceLeave, Action: domain.ActionRead},
			{Role: RoleManager, Resource: domain.ResourceLeave, Action: domain.ActionApprove},
			{Role: RoleManager, Resource: domain.ResourceBalance, Action: domain.ActionRead},
			{Role: RoleAdmin, Resource: domain.ResourceBalance, Action: domain.ActionSeed},
		},
		Inheritances: []Inheritance{
			{Role: RoleManager, Parent: RoleEmployee},
			{Role: RoleAdmin, Parent: RoleManager},
		},
	}
}
