package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveApplied   = "leave_applied"
	LeaveApproved  = "leave_approved"
	LeaveRejected  = "leave_rejected"
	LeaveCancelled = "leave_cancelled"
)

// LeaveEvent is published once per committed transition of a leave request.
// Remaining is the category balance right after the transition.
type LeaveEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    int64     `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	ActorID    string    `json:"actor_id"`
	Category   string    `json:"category"`
	TotalDays  int       `json:"total_days"`
	Status     string    `json:"status"`
	Remarks    string    `json:"remarks,omitempty"`
	Remaining  int       `json:"remaining"`
	OccurredAt time.Time `json:"occurred_at"`
}
