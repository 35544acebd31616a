package leave

import (
	"time"

	"go-leave/internal/balance"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is allowed. Only PENDING
// moves; an unrecognised value is treated as final too.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Leave is a leave request. While PENDING its TotalDays are already debited
// from the employee's balance for Category.
type Leave struct {
	ID         int64            `gorm:"primaryKey;autoIncrement:false"`
	EmployeeID uuid.UUID        `gorm:"type:uuid;not null;index:idx_leave_requests_employee_created"`
	Category   balance.Category `gorm:"type:varchar(20);not null"`
	StartDate  time.Time        `gorm:"type:date;not null"`
	EndDate    time.Time        `gorm:"type:date;not null"`
	TotalDays  int              `gorm:"type:int;not null;check:total_days >= 1"`
	Reason     string           `gorm:"type:text;not null"`

	Status    Status     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status"`
	Remarks   string     `gorm:"type:text;not null;default:''"`
	DecidedBy *uuid.UUID `gorm:"type:uuid"`
	DecidedAt *time.Time

	CreatedAt time.Time `gorm:"index:idx_leave_requests_employee_created"`
	UpdatedAt time.Time
}

func (Leave) TableName() string {
	return "leave_requests"
}

// StatusChange is the write applied when a pending request is resolved.
type StatusChange struct {
	Status    Status
	Remarks   string
	DecidedBy *uuid.UUID
	DecidedAt *time.Time
}

// inclusiveDays counts calendar days from start to end, both included. Both
// are UTC midnights; Unix seconds keep ranges beyond time.Duration's ~292
// year limit exact.
func inclusiveDays(start, end time.Time) int {
	return int((end.Unix()-start.Unix())/86400) + 1
}
