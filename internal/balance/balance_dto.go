package balance

type BalanceResponse struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Sick         int    `json:"sick"`
	Medical      int    `json:"medical"`
	Privileged   int    `json:"privileged"`
}

func (r BalanceResponse) Of(c Category) int {
	switch c {
	case CategorySick:
		return r.Sick
	case CategoryMedical:
		return r.Medical
	case CategoryPrivileged:
		return r.Privileged
	default:
		return 0
	}
}

type SeedBalanceRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	FullName   string `json:"full_name"`
}
