package leave

type ApplyLeaveRequest struct {
	Category  string `json:"category"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// DecideLeaveRequest accepts the decision in any case (Approved, APPROVED);
// the service folds it and rejects anything else.
type DecideLeaveRequest struct {
	Decision string `json:"decision" binding:"required"`
	Remarks  string `json:"remarks"`
}

type LeaveResponse struct {
	ID         int64   `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Category   string  `json:"category"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	TotalDays  int     `json:"total_days"`
	Reason     string  `json:"reason"`
	Status     string  `json:"status"`
	Remarks    string  `json:"remarks"`
	DecidedBy  *string `json:"decided_by,omitempty"`
	DecidedAt  *string `json:"decided_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}
