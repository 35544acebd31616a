package domain

// Resources guarded by the leave service.
const (
	ResourceLeave   = "leave"
	ResourceBalance = "balance"
)

// Actions granted on a resource. ActionApprove covers both approve and
// reject decisions.
const (
	ActionCreate  = "create"
	ActionReadOwn = "read_own"
	ActionRead    = "read"
	ActionApprove = "approve"
	ActionSeed    = "seed"
)

// EnforceRequest asks whether Role may perform Action on Resource.
// EmployeeID is carried for logging only; policy is per role.
type EnforceRequest struct {
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
}

// Permission renders the pair as resource:action, the form used in
// forbidden responses.
func (r EnforceRequest) Permission() string {
	return r.Resource + ":" + r.Action
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

type PermissionResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type RoleResponse struct {
	Name        string               `json:"name"`
	Permissions []PermissionResponse `json:"permissions"`
}
